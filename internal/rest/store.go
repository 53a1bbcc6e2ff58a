package rest

import (
	"context"
	"myJara/business/store"
	"myJara/domain"
	"myJara/internal/middleware"
	"myJara/pkg/logger"
	"net/http"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type StoreService interface {
	RegisterStore(ctx context.Context, ownerID string, input store.RegisterStoreInput) (*domain.Store, error)
	GetMyStore(ctx context.Context, ownerID string) (*domain.Store, error)
	GetStore(ctx context.Context, id string) (*domain.Store, error)
}

type StoreHandler struct {
	storeService StoreService
	timeout      time.Duration
}

func NewStoreHandler(storeService StoreService) *StoreHandler {
	return &StoreHandler{
		storeService: storeService,
		timeout:      defaultTimeout,
	}
}

// RegisterStore validates inside the service, which owns the location rules.
func (h *StoreHandler) RegisterStore(c echo.Context) error {
	var req store.RegisterStoreInput
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", err)
		return badRequest(c, "invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	created, err := h.storeService.RegisterStore(ctx, middleware.UserID(c), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(created))
}

func (h *StoreHandler) GetMyStore(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	s, err := h.storeService.GetMyStore(ctx, middleware.UserID(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(s))
}

func (h *StoreHandler) GetStore(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	s, err := h.storeService.GetStore(ctx, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(s))
}
