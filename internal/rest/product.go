package rest

import (
	"context"
	"myJara/business/product"
	"myJara/domain"
	"myJara/internal/middleware"
	"myJara/pkg/logger"
	"net/http"
	"strconv"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ProductService interface {
	Search(ctx context.Context, q product.SearchQuery) ([]domain.SearchResult, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, ownerID string, p *domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, ownerID string, p *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, ownerID string, id string) error
}

type ProductHandler struct {
	productService ProductService
	validator      *validator.Validate
	timeout        time.Duration
}

func NewProductHandler(productService ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		validator:      validator.New(),
		timeout:        defaultTimeout,
	}
}

type ProductRequest struct {
	CategoryID      uint64          `json:"category_id"`
	Name            string          `json:"name" validate:"required,max=200"`
	Description     string          `json:"description" validate:"max=2000"`
	Unit            string          `json:"unit" validate:"required,max=50"`
	ImageURL        string          `json:"image_url" validate:"omitempty,url"`
	Price           decimal.Decimal `json:"price"`
	JaraBuyQuantity *int            `json:"jara_buy_quantity" validate:"omitempty,gt=0"`
	JaraGetQuantity *int            `json:"jara_get_quantity" validate:"omitempty,gte=0"`
	Quantity        int             `json:"quantity" validate:"gte=0"`
}

func (r ProductRequest) toDomain() *domain.Product {
	return &domain.Product{
		CategoryID:      r.CategoryID,
		Name:            r.Name,
		Description:     r.Description,
		Unit:            r.Unit,
		ImageURL:        r.ImageURL,
		Price:           r.Price,
		JaraBuyQuantity: r.JaraBuyQuantity,
		JaraGetQuantity: r.JaraGetQuantity,
		Quantity:        r.Quantity,
	}
}

// Search handles GET /products/search?q=&category_id=&sort=&limit=
func (h *ProductHandler) Search(c echo.Context) error {
	q := product.SearchQuery{
		Keyword: c.QueryParam("q"),
		Sort:    c.QueryParam("sort"),
	}

	if raw := c.QueryParam("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return badRequest(c, "invalid category id")
		}
		q.CategoryID = id
	}

	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return badRequest(c, "invalid limit")
		}
		q.Limit = limit
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	results, err := h.productService.Search(ctx, q)
	if err != nil {
		logger.Error("Failed to search products", err)
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(results))
}

func (h *ProductHandler) GetProductByID(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	p, err := h.productService.GetProductByID(ctx, c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(p))
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", err)
		return badRequest(c, "invalid request body")
	}

	if err := h.validator.Struct(&req); err != nil {
		logger.Error("Failed to validate product request", err)
		return badRequest(c, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	created, err := h.productService.CreateProduct(ctx, middleware.UserID(c), req.toDomain())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(created))
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", err)
		return badRequest(c, "invalid request body")
	}

	if err := h.validator.Struct(&req); err != nil {
		logger.Error("Failed to validate product request", err)
		return badRequest(c, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	p := req.toDomain()
	p.ID = c.Param("id")

	updated, err := h.productService.UpdateProduct(ctx, middleware.UserID(c), p)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(updated))
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.productService.DeleteProduct(ctx, middleware.UserID(c), c.Param("id")); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("product deleted"))
}
