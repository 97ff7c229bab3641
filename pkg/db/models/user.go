package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
)

// User represents a registered account. Guests never get a row here;
// their carts live in redis until they register or check out.
type User struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Phone        string           `gorm:"column:phone;type:text;not null;uniqueIndex"`
	Email        *string          `gorm:"column:email;type:text;uniqueIndex"`
	PasswordHash string           `gorm:"column:password_hash;not null"`
	FullName     string           `gorm:"column:full_name;not null"`
	Role         enums.MemberRole `gorm:"column:role;type:text;not null;default:'customer'"`
	IsActive     bool             `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time       `gorm:"column:last_login_at"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
