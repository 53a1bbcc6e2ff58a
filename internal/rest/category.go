package rest

import (
	"context"
	"myJara/domain"
	"myJara/pkg/logger"
	"net/http"
	"strconv"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type CategoryService interface {
	GetAllCategories(ctx context.Context) ([]domain.Category, error)
	GetCategoryByID(ctx context.Context, id uint64) (domain.Category, error)
	CreateCategory(ctx context.Context, name string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id uint64) error
}

type CategoryHandler struct {
	categoryService CategoryService
	validator       *validator.Validate
	timeout         time.Duration
}

func NewCategoryHandler(categoryService CategoryService) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		validator:       validator.New(),
		timeout:         defaultTimeout,
	}
}

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (h *CategoryHandler) GetAllCategories(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	categories, err := h.categoryService.GetAllCategories(ctx)
	if err != nil {
		logger.Error("Failed to find all categories", err)
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(categories))
}

func (h *CategoryHandler) GetCategoryByID(c echo.Context) error {
	categoryID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		logger.Error("Invalid category id", err)
		return badRequest(c, "invalid category id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	category, err := h.categoryService.GetCategoryByID(ctx, categoryID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(category))
}

func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", err)
		return badRequest(c, "invalid request body")
	}

	if err := h.validator.Struct(&req); err != nil {
		logger.Error("Failed to validate category request", err)
		return badRequest(c, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	category, err := h.categoryService.CreateCategory(ctx, req.Name)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(category))
}

func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	categoryID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		logger.Error("Invalid category id", err)
		return badRequest(c, "invalid category id")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.categoryService.DeleteCategory(ctx, categoryID); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("category deleted"))
}
