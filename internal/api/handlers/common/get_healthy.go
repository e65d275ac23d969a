package common

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github/chapool/wallet-txengine/internal/api"
)

func GetHealthyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/healthy", getHealthyHandler(s))
}

// Liveness check
// The process answers as long as echo is serving; dependencies are checked by the readiness probe.
func getHealthyHandler(_ *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy.")
	}
}
