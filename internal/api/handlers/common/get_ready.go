package common

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github/chapool/wallet-txengine/internal/api"
	"github/chapool/wallet-txengine/internal/util"
)

// StatusNotReady is returned while the engine is starting or broken.
const StatusNotReady = 521

func GetReadyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/ready", getReadyHandler(s))
}

// Readiness check
// This endpoint returns 200 when our Service is ready to serve traffic (i.e. respond to queries).
// Does read-only probes apart from the general server ready state.
func getReadyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		if !s.Ready() {
			return c.String(StatusNotReady, "Not ready.")
		}

		if s.DB != nil {
			if err := s.DB.PingContext(ctx); err != nil {
				util.LogFromContext(ctx).Warn().Err(err).Msg("Readiness probe failed, database not reachable")
				return c.String(StatusNotReady, "Not ready.")
			}
		}

		return c.String(http.StatusOK, "Ready.")
	}
}
