package middleware

import (
	"errors"
	"net/http"

	apperrors "myJara/pkg/errors"
	"myJara/pkg/logger"
	jsonres "myJara/pkg/response"

	"github.com/labstack/echo/v4"
)

// ErrorHandler renders errors that escape handlers in the common error envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	code := apperrors.CodeInternal
	message := "internal server error"

	var httpErr *echo.HTTPError
	if appErr, ok := apperrors.As(err); ok {
		status, code, message = appErr.Status, appErr.Code, appErr.Message
	} else if errors.As(err, &httpErr) {
		status = httpErr.Code
		code = http.StatusText(httpErr.Code)
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(httpErr.Code)
		}
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "path", c.Path(), err)
	}

	var writeErr error
	if c.Request().Method == http.MethodHead {
		writeErr = c.NoContent(status)
	} else {
		writeErr = c.JSON(status, jsonres.Error(code, message, nil))
	}
	if writeErr != nil {
		logger.Error("failed to write error response", writeErr)
	}
}
