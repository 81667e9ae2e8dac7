package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleAdmin       = "admin"
	RoleMerchant    = "merchant"
	RoleCustomer    = "customer"
	RoleBeneficiary = "beneficiary"
	RoleCollector   = "collector"
	RoleAssociation = "association"
)

// User represents a platform account (admin, merchant, beneficiary, collector, ...)
type User struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Username       string         `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password       string         `gorm:"size:255" json:"-"` // bcrypt hash
	Email          string         `gorm:"size:255" json:"email"`
	Nickname       string         `gorm:"size:100" json:"nickname"`
	Role           string         `gorm:"size:50;default:customer" json:"role"`
	IsVerified     bool           `gorm:"default:false" json:"is_verified"` // beneficiary verification
	IsActive       bool           `gorm:"default:true" json:"is_active"`
	FailedLogins   int            `gorm:"default:0" json:"-"`
	PasswordSetAt  *time.Time     `json:"-"`
	LastLogin      *time.Time     `json:"last_login"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }
