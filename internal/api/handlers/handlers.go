package handlers

import (
	"github.com/labstack/echo/v4"

	"github/chapool/wallet-txengine/internal/api"
	"github/chapool/wallet-txengine/internal/api/handlers/common"
	"github/chapool/wallet-txengine/internal/api/handlers/wallet"
)

func AttachAllRoutes(s *api.Server) {
	s.Router.Routes = []*echo.Route{
		common.GetHealthyRoute(s),
		common.GetReadyRoute(s),
		wallet.GetChainsRoute(s),
		wallet.GetTransactionRoute(s),
		wallet.GetTransactionsRoute(s),
	}
}
