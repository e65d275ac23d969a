package router

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github/chapool/wallet-txengine/internal/api"
	"github/chapool/wallet-txengine/internal/api/handlers"
	"github/chapool/wallet-txengine/internal/api/httperrors"
	"github/chapool/wallet-txengine/internal/util"
)

func Init(s *api.Server) {
	s.Echo = echo.New()

	s.Echo.Debug = false
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.HTTPErrorHandler = httperrors.HTTPErrorHandler

	s.Echo.Pre(middleware.RemoveTrailingSlash())
	s.Echo.Use(middleware.Recover())
	s.Echo.Use(middleware.RequestID())
	s.Echo.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "management",
		Registerer: s.Metrics,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Path(), "/metrics")
		},
	}))
	s.Echo.Use(requestLogger)

	s.Router = &api.Router{
		Routes:     nil, // will be populated by handlers.AttachAllRoutes(s)
		Root:       s.Echo.Group(""),
		Management: s.Echo.Group("/-"),
		APIV1:      s.Echo.Group("/api/v1"),
	}

	s.Echo.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: s.Metrics}))

	// ---
	// Finally attach our handlers
	handlers.AttachAllRoutes(s)
}

// requestLogger attaches a request scoped logger to the request context and logs completed
// requests.
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		l := log.With().
			Str("id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Logger()
		c.SetRequest(req.WithContext(util.WithLogger(req.Context(), l)))

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		l.Debug().Int("status", c.Response().Status).Msg("Request handled")

		return nil
	}
}
