package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sudo-init-do/distal/internal/apperr"
)

// HTTPErrorHandler renders every error as {"error": message}.
// Dependency and internal details are hidden unless exposeDetails is set.
func HTTPErrorHandler(log *zap.Logger, exposeDetails bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "Internal server error"

		var ae *apperr.Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			status = apperr.HTTPStatus(ae.Code)
			if apperr.Exposed(ae.Code) {
				message = ae.Message
			} else {
				log.Error("request failed",
					zap.String("code", string(ae.Code)),
					zap.String("path", c.Path()),
					zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
					zap.Error(err))
				if exposeDetails {
					message = err.Error()
				}
			}
		case errors.As(err, &he):
			status = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(he.Code)
			}
		default:
			log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
			if exposeDetails {
				message = err.Error()
			}
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, echo.Map{"error": message})
		}
		if err != nil {
			log.Warn("write error response", zap.Error(err))
		}
	}
}
