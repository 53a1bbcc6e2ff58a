package rest

import (
	"context"
	"myJara/business/user"
	"myJara/domain"
	"myJara/internal/middleware"
	"myJara/pkg/logger"
	"net/http"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type UserService interface {
	GetProfile(ctx context.Context, id string) (domain.User, error)
	UpdateProfile(ctx context.Context, id, role string, input user.ProfileInput) (domain.User, error)
}

type UserHandler struct {
	userService UserService
	timeout     time.Duration
}

func NewUserHandler(userService UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		timeout:     defaultTimeout,
	}
}

func (h *UserHandler) GetMe(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	u, err := h.userService.GetProfile(ctx, middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(u))
}

func (h *UserHandler) UpdateMe(c echo.Context) error {
	var req user.ProfileInput
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", err)
		return badRequest(c, "invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	u, err := h.userService.UpdateProfile(ctx, middleware.UserID(c), middleware.Role(c), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(u))
}
