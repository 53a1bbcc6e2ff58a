package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleCustomer   = "customer"
	RoleRetailer   = "retailer"
	RoleWholesaler = "wholesaler"
	RoleAdmin      = "admin"
)

// User is the profile row kept next to the external auth identity.
type User struct {
	ID        string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	FullName  string    `gorm:"column:full_name;not null" json:"full_name"`
	Email     string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	AvatarURL string    `gorm:"column:avatar_url" json:"avatar_url,omitempty"`
	Role      string    `gorm:"column:role;default:customer" json:"role"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
