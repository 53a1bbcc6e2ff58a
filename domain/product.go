package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CREATE TABLE public.products (
//     id                 UUID PRIMARY KEY,
//     store_id           UUID NOT NULL REFERENCES stores(id),
//     category_id        BIGINT,
//     name               TEXT NOT NULL,
//     description        TEXT,
//     unit               TEXT NOT NULL,
//     image_url          TEXT,
//     price              NUMERIC(18,2) NOT NULL,
//     jara_buy_quantity  INT,
//     jara_get_quantity  INT,
//     quantity           INT DEFAULT 0,
//     created_at         TIMESTAMPTZ DEFAULT NOW(),
//     updated_at         TIMESTAMPTZ DEFAULT NOW()
// );

// Product is a store listing. A Jara offer is "buy JaraBuyQuantity, get JaraGetQuantity free".
type Product struct {
	ID              string          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	StoreID         string          `gorm:"column:store_id;type:uuid;index;not null" json:"store_id"`
	CategoryID      uint64          `gorm:"column:category_id;default:0" json:"category_id"`
	Name            string          `gorm:"column:name;type:text;not null" json:"name"`
	Description     string          `gorm:"column:description;type:text" json:"description,omitempty"`
	Unit            string          `gorm:"column:unit;type:text" json:"unit"`
	ImageURL        string          `gorm:"column:image_url" json:"image_url,omitempty"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(18,2);not null" json:"price"`
	JaraBuyQuantity *int            `gorm:"column:jara_buy_quantity" json:"jara_buy_quantity"`
	JaraGetQuantity *int            `gorm:"column:jara_get_quantity" json:"jara_get_quantity"`
	Quantity        int             `gorm:"column:quantity;default:0" json:"quantity"`
	CreatedAt       time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// SearchResult is one product row joined with its store, as returned by search.
type SearchResult struct {
	ID              string          `gorm:"column:id" json:"id"`
	Name            string          `gorm:"column:name" json:"name"`
	Unit            string          `gorm:"column:unit" json:"unit"`
	ImageURL        string          `gorm:"column:image_url" json:"image_url,omitempty"`
	Price           decimal.Decimal `gorm:"column:price" json:"price"`
	JaraBuyQuantity *int            `gorm:"column:jara_buy_quantity" json:"jara_buy_quantity"`
	JaraGetQuantity *int            `gorm:"column:jara_get_quantity" json:"jara_get_quantity"`
	CategoryID      uint64          `gorm:"column:category_id" json:"category_id"`
	StoreID         string          `gorm:"column:store_id" json:"store_id"`
	StoreName       string          `gorm:"column:store_name" json:"store_name"`
}

// SearchFilter narrows a product search before ranking.
type SearchFilter struct {
	Keyword    string
	CategoryID uint64
	Limit      int
}
