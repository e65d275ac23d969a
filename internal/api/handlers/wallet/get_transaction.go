package wallet

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github/chapool/wallet-txengine/internal/api"
	"github/chapool/wallet-txengine/internal/api/httperrors"
	"github/chapool/wallet-txengine/internal/wallet"
)

func GetTransactionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/transactions/:id", getTransactionHandler(s))
}

func getTransactionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		tx, err := s.Store.Get(c.Request().Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, wallet.ErrNotFound) {
				return httperrors.ErrNotFoundTransaction
			}
			return err
		}

		return c.JSON(http.StatusOK, transactionToItem(tx))
	}
}
