package product

import (
	"context"
	"fmt"
	"myJara/business/ranking"
	"myJara/domain"
	apperrors "myJara/pkg/errors"
	"myJara/pkg/logger"
	"myJara/pkg/metrics"
	"strings"
	"time"
)

// ProductRepository contract interface
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id string) (domain.Product, error)
	Search(ctx context.Context, filter domain.SearchFilter) ([]domain.SearchResult, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
}

type StoreRepository interface {
	FindByOwner(ctx context.Context, ownerID string) (domain.Store, error)
}

type SearchQuery struct {
	Keyword    string
	CategoryID uint64
	Sort       string
	Limit      int
}

type Config struct {
	DefaultLimit int
	MaxLimit     int
	// RankWindow is how many of the newest matches a non-relevance sort ranks
	// before the limit is applied.
	RankWindow int
}

type productService struct {
	productRepo ProductRepository
	storeRepo   StoreRepository
	cfg         Config
}

func NewProductService(productRepo ProductRepository, storeRepo StoreRepository, cfg Config) *productService {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 50
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = cfg.DefaultLimit
	}
	if cfg.RankWindow <= 0 {
		cfg.RankWindow = 1000
	}
	if cfg.RankWindow < cfg.MaxLimit {
		cfg.RankWindow = cfg.MaxLimit
	}

	return &productService{
		productRepo: productRepo,
		storeRepo:   storeRepo,
		cfg:         cfg,
	}
}

// Search filters the catalog and orders the hits by the requested sort mode.
func (s *productService) Search(ctx context.Context, q SearchQuery) ([]domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when searching products")
		return nil, fmt.Errorf("context error: %w", err)
	}

	mode, err := ranking.ParseSortMode(q.Sort)
	if err != nil {
		return nil, err
	}

	limit := q.Limit
	switch {
	case limit <= 0:
		limit = s.cfg.DefaultLimit
	case limit > s.cfg.MaxLimit:
		limit = s.cfg.MaxLimit
	}

	start := time.Now()
	defer func() {
		metrics.SearchLatency.Observe(time.Since(start).Seconds())
	}()
	metrics.SearchRequests.WithLabelValues(string(mode)).Inc()

	// relevance keeps repository order, so the limit can go to the query
	fetch := limit
	if mode != ranking.SortRelevance {
		fetch = s.cfg.RankWindow
	}

	results, err := s.productRepo.Search(ctx, domain.SearchFilter{
		Keyword:    strings.TrimSpace(q.Keyword),
		CategoryID: q.CategoryID,
		Limit:      fetch,
	})
	if err != nil {
		logger.Error("failed to search products", "keyword", q.Keyword, err)
		return nil, apperrors.Upstream("failed to search products", err)
	}

	ranked := ranking.Rank(results, mode)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked, nil
}

func (s *productService) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		logger.Error("invalid product id")
		return nil, apperrors.Validation("invalid product id")
	}

	if err := ctx.Err(); err != nil {
		logger.Error("context error when get product")
		return nil, fmt.Errorf("context error: %w", err)
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		logger.Error("failed to find product by id", err)
		return nil, err
	}

	return &product, nil
}

// CreateProduct lists a product under the caller's store.
func (s *productService) CreateProduct(ctx context.Context, ownerID string, product *domain.Product) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when create product")
		return nil, fmt.Errorf("context error: %w", err)
	}

	if err := validateProduct(product); err != nil {
		logger.Error("Invalid product data", err)
		return nil, err
	}

	store, err := s.ownStore(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	product.ID = ""
	product.StoreID = store.ID
	if err := s.productRepo.Create(ctx, product); err != nil {
		logger.Error("failed to create new product", err)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	logger.Info("product created successfully", "product_id", product.ID, "store_id", store.ID)

	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, ownerID string, product *domain.Product) (*domain.Product, error) {
	if err := ctx.Err(); err != nil {
		logger.Error("context error when updating product")
		return nil, fmt.Errorf("context error: %w", err)
	}

	if product.ID == "" {
		logger.Error("Invalid product data: ID is required")
		return nil, apperrors.Validation("product id is required")
	}

	if err := validateProduct(product); err != nil {
		logger.Error("Invalid product data", err)
		return nil, err
	}

	existing, err := s.ownedProduct(ctx, ownerID, product.ID)
	if err != nil {
		return nil, err
	}

	product.StoreID = existing.StoreID
	if err := s.productRepo.Update(ctx, product); err != nil {
		logger.Error("failed to update product", err)
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	updatedProduct, err := s.productRepo.FindByID(ctx, product.ID)
	if err != nil {
		logger.Error("failed to fetch updated product", err)
		return nil, fmt.Errorf("failed to fetch updated product: %w", err)
	}

	logger.Info("product updated success", "product_id", product.ID)

	return &updatedProduct, nil
}

func (s *productService) DeleteProduct(ctx context.Context, ownerID string, id string) error {
	if id == "" {
		logger.Error("Invalid product id when deleting product")
		return apperrors.Validation("invalid product id")
	}

	if err := ctx.Err(); err != nil {
		logger.Error("context error when deleting product")
		return fmt.Errorf("context error: %w", err)
	}

	if _, err := s.ownedProduct(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		logger.Error("failed to delete product", err)
		return fmt.Errorf("failed to delete product: %w", err)
	}

	logger.Info("product deleted success", "product_id", id)

	return nil
}

func (s *productService) ownStore(ctx context.Context, ownerID string) (domain.Store, error) {
	if ownerID == "" {
		return domain.Store{}, apperrors.Unauthorized("login required")
	}

	store, err := s.storeRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		if apperrors.Is(err, apperrors.CodeNotFound) {
			return domain.Store{}, apperrors.Forbidden("register a store before listing products")
		}
		logger.Error("failed to find store by owner", err)
		return domain.Store{}, err
	}

	return store, nil
}

func (s *productService) ownedProduct(ctx context.Context, ownerID, productID string) (domain.Product, error) {
	store, err := s.ownStore(ctx, ownerID)
	if err != nil {
		return domain.Product{}, err
	}

	existing, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		logger.Error("product not found", err)
		return domain.Product{}, err
	}

	if existing.StoreID != store.ID {
		return domain.Product{}, apperrors.Forbidden("product belongs to another store")
	}

	return existing, nil
}

func validateProduct(p *domain.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Unit = strings.TrimSpace(p.Unit)

	if p.Name == "" {
		return apperrors.Validation("product name is required")
	}

	if p.Unit == "" {
		return apperrors.Validation("unit is required")
	}

	if p.Price.IsNegative() {
		return apperrors.Validation("price cannot be negative")
	}

	if p.Quantity < 0 {
		return apperrors.Validation("quantity cannot be negative")
	}

	if (p.JaraBuyQuantity == nil) != (p.JaraGetQuantity == nil) {
		return apperrors.Validation("jara buy and get quantities go together")
	}

	if p.JaraBuyQuantity != nil && *p.JaraBuyQuantity <= 0 {
		return apperrors.Validation("jara buy quantity must be greater than 0")
	}

	if p.JaraGetQuantity != nil && *p.JaraGetQuantity < 0 {
		return apperrors.Validation("jara get quantity cannot be negative")
	}

	return nil
}
