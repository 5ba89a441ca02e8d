package model

import (
	"time"

	"github.com/google/uuid"
)

// Built-in role names
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleSales      = "sales"
	RoleProduction = "production"
)

// Role represents a user role with associated permissions
type Role struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	IsSystem    bool         `gorm:"default:false" json:"is_system"` // built-in roles cannot be deleted
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Permission represents a single permission that can be assigned to roles
type Permission struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code  string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"` // e.g. "orders.approve"
	Name  string    `gorm:"type:varchar(255);not null" json:"name"`
	Group string    `gorm:"type:varchar(50);not null;index" json:"group"` // "orders", "visits", ...
}

// DefaultPermissions is the permission catalogue seeded at startup
var DefaultPermissions = []Permission{
	{Code: "orders.read", Name: "View orders", Group: "orders"},
	{Code: "orders.create", Name: "Create orders", Group: "orders"},
	{Code: "orders.update", Name: "Update and move orders", Group: "orders"},
	{Code: "orders.approve", Name: "Approve or reject orders", Group: "orders"},
	{Code: "visits.read", Name: "View visits", Group: "visits"},
	{Code: "visits.write", Name: "Record visits", Group: "visits"},
	{Code: "catalog.read", Name: "View product catalog", Group: "catalog"},
	{Code: "customers.read", Name: "View customers", Group: "customers"},
	{Code: "customers.write", Name: "Manage customers", Group: "customers"},
	{Code: "audit.read", Name: "View audit log", Group: "audit"},
	{Code: "dashboard.read", Name: "View dashboard", Group: "dashboard"},
	{Code: "users.manage", Name: "Manage staff accounts", Group: "users"},
}

// DefaultRolePermissions maps each built-in role to its permission codes.
// Admin is granted every permission at lookup time and is not listed.
var DefaultRolePermissions = map[string][]string{
	RoleManager: {
		"orders.read", "orders.create", "orders.update", "orders.approve",
		"visits.read", "visits.write", "catalog.read",
		"customers.read", "customers.write", "audit.read", "dashboard.read",
	},
	RoleSales: {
		"orders.read", "orders.create", "orders.update",
		"visits.read", "visits.write", "catalog.read",
		"customers.read", "customers.write",
	},
	RoleProduction: {
		"orders.read", "orders.update", "catalog.read",
	},
}
