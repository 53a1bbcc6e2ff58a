package rest

import (
	apperrors "myJara/pkg/errors"
	"myJara/pkg/logger"
	"net/http"
	"time"

	jsonres "myJara/pkg/response"

	"github.com/labstack/echo/v4"
)

const defaultTimeout = 10 * time.Second

// writeError maps service errors onto the error envelope.
func writeError(c echo.Context, err error) error {
	appErr, ok := apperrors.As(err)
	if !ok {
		logger.Error("unexpected error", "path", c.Path(), err)
		return c.JSON(http.StatusInternalServerError, jsonres.Error(
			apperrors.CodeInternal, "internal server error", nil,
		))
	}

	if appErr.Status >= http.StatusInternalServerError {
		logger.Error("request failed", "path", c.Path(), err)
	}

	return c.JSON(appErr.Status, jsonres.Error(appErr.Code, appErr.Message, nil))
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, jsonres.Error(apperrors.CodeValidation, message, nil))
}
