package postgres

import (
	"context"
	"errors"
	"fmt"
	"myJara/domain"
	apperrors "myJara/pkg/errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

type ProductRepository struct {
	DB *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{
		DB: db,
	}
}

func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("context error: %w", err)
	}

	var product domain.Product
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Product{}, apperrors.NotFound("product", err)
		}
		return domain.Product{}, fmt.Errorf("failed to find product: %w", err)
	}

	return product, nil
}

// Search returns products joined with their store, newest first.
func (r *ProductRepository) Search(ctx context.Context, filter domain.SearchFilter) ([]domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	q := r.DB.WithContext(ctx).
		Table("products AS p").
		Select(`p.id, p.name, p.unit, p.image_url, p.price, p.jara_buy_quantity, p.jara_get_quantity,
			p.category_id, p.store_id, s.name AS store_name`).
		Joins("JOIN stores AS s ON s.id = p.store_id")

	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		q = q.Where(`LOWER(p.name) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(kw))+"%")
	}
	if filter.CategoryID > 0 {
		q = q.Where("p.category_id = ?", filter.CategoryID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var results []domain.SearchResult
	if err := q.Order("p.created_at DESC").Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	return results, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes the keyword match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	updateData := map[string]interface{}{
		"category_id":       product.CategoryID,
		"name":              product.Name,
		"description":       product.Description,
		"unit":              product.Unit,
		"image_url":         product.ImageURL,
		"price":             product.Price,
		"jara_buy_quantity": product.JaraBuyQuantity,
		"jara_get_quantity": product.JaraGetQuantity,
		"quantity":          product.Quantity,
		"updated_at":        time.Now().UTC(),
	}

	result := r.DB.WithContext(ctx).Model(&domain.Product{}).Where("id = ?", product.ID).Updates(updateData)
	if result.Error != nil {
		return fmt.Errorf("failed to update product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("product", nil)
	}

	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	result := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&domain.Product{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("product", nil)
	}

	return nil
}
