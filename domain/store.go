package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StoreKindWholesaler = "wholesaler"
	StoreKindBrand      = "brand"
	StoreKindRetailer   = "retailer"
)

// CREATE TABLE public.stores (
//     id                 UUID PRIMARY KEY,
//     owner_id           UUID UNIQUE NOT NULL REFERENCES users(id),
//     name               TEXT NOT NULL,
//     kind               TEXT NOT NULL,
//     logo_url           TEXT,
//     address            TEXT,
//     is_physical        BOOLEAN DEFAULT FALSE,
//     latitude           DOUBLE PRECISION,
//     longitude          DOUBLE PRECISION,
//     location_accuracy  DOUBLE PRECISION,
//     created_at         TIMESTAMPTZ DEFAULT NOW(),
//     updated_at         TIMESTAMPTZ DEFAULT NOW()
// );

type Store struct {
	ID               string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OwnerID          string    `gorm:"column:owner_id;type:uuid;uniqueIndex;not null" json:"owner_id"`
	Name             string    `gorm:"column:name;not null" json:"name"`
	Kind             string    `gorm:"column:kind;not null" json:"kind"`
	LogoURL          string    `gorm:"column:logo_url" json:"logo_url,omitempty"`
	Address          string    `gorm:"column:address" json:"address,omitempty"`
	IsPhysical       bool      `gorm:"column:is_physical;default:false" json:"is_physical"`
	Latitude         *float64  `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude        *float64  `gorm:"column:longitude" json:"longitude,omitempty"`
	LocationAccuracy *float64  `gorm:"column:location_accuracy" json:"location_accuracy,omitempty"`
	CreatedAt        time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Store) TableName() string {
	return "stores"
}

func (s *Store) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// GeoFix is a single GPS reading taken while registering a physical store.
type GeoFix struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	AccuracyMeters float64 `json:"accuracy_meters"`
}
