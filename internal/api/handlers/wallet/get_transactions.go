package wallet

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github/chapool/wallet-txengine/internal/api"
	"github/chapool/wallet-txengine/internal/api/httperrors"
	"github/chapool/wallet-txengine/internal/util"
	"github/chapool/wallet-txengine/internal/wallet"
	"github/chapool/wallet-txengine/internal/wallet/chain"
	"github/chapool/wallet-txengine/internal/wallet/store"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

func GetTransactionsRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/transactions", getTransactionsHandler(s))
}

func getTransactionsHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		filter, err := parseFilter(c)
		if err != nil {
			return err
		}

		txs, err := s.Store.Query(ctx, filter)
		if err != nil {
			log.Error().Err(err).Msg("Failed to query transactions")
			return err
		}

		items := make([]*TransactionItem, 0, len(txs))
		for _, tx := range txs {
			items = append(items, transactionToItem(tx))
		}

		return c.JSON(http.StatusOK, &GetTransactionsResponse{Transactions: items})
	}
}

// parseFilter reads repeated state and chain params plus owner and limit.
func parseFilter(c echo.Context) (store.Filter, error) {
	params := c.QueryParams()
	filter := store.Filter{Owner: c.QueryParam("owner"), Limit: defaultLimit}

	for _, raw := range params["state"] {
		state := wallet.TransactionState(raw)
		switch state {
		case wallet.TransactionStatePending, wallet.TransactionStateConfirmed,
			wallet.TransactionStateFailed, wallet.TransactionStateReverted:
			filter.States = append(filter.States, state)
		default:
			return filter, httperrors.ErrBadRequestInvalidState.WithDetail(raw)
		}
	}

	for _, raw := range params["chain"] {
		ch, err := chain.Parse(raw)
		if err != nil {
			return filter, httperrors.ErrBadRequestInvalidChain.WithDetail(raw)
		}
		filter.Chains = append(filter.Chains, ch)
	}

	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return filter, httperrors.ErrBadRequestInvalidLimit
		}
		filter.Limit = min(limit, maxLimit)
	}

	return filter, nil
}
