package wallet

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github/chapool/wallet-txengine/internal/api"
)

func GetChainsRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1.GET("/chains", getChainsHandler(s))
}

func getChainsHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		configs := s.Chains.EnabledChains()

		items := make([]*ChainItem, 0, len(configs))
		for _, cfg := range configs {
			_, signErr := s.Registry.Signer(cfg.Chain)
			_, broadcastErr := s.Registry.Broadcaster(cfg.Chain)
			_, status := s.Registry.StatusClient(cfg.Chain)

			items = append(items, &ChainItem{
				Chain:     cfg.Chain.String(),
				Name:      cfg.Name,
				Family:    string(cfg.Family),
				Symbol:    cfg.Symbol,
				Decimals:  cfg.Decimals,
				Sign:      signErr == nil,
				Broadcast: broadcastErr == nil,
				Status:    status,
			})
		}

		return c.JSON(http.StatusOK, &GetChainsResponse{Chains: items})
	}
}
