package database

import (
	"context"
	"fmt"
	"time"

	"millorders/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewConnection opens the postgres pool and migrates every table the service owns
func NewConnection(dsn string, logger *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	logger.Info("Database schema migrated")

	return db, nil
}

// Migrate creates or updates the tables
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Role{},
		&model.Permission{},
		&model.User{},
		&model.RefreshToken{},
		&model.Godown{},
		&model.Product{},
		&model.Customer{},
		&model.CustomerAddress{},
		&model.TaxRule{},
		&model.Order{},
		&model.OrderItem{},
		&model.Visit{},
		&model.AuditLog{},
		&model.SavedFilter{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	return nil
}

// RoleSeeder is the part of the role repository Seed needs
type RoleSeeder interface {
	FindOrCreateRole(ctx context.Context, role *model.Role) error
	FindOrCreatePermission(ctx context.Context, perm *model.Permission) error
	GrantPermissions(ctx context.Context, roleID uuid.UUID, permIDs []uuid.UUID) error
}

// TaxRuleSeeder is the part of the tax rule repository Seed needs
type TaxRuleSeeder interface {
	CountByType(ctx context.Context, taxType string) (int64, error)
	Create(ctx context.Context, rule *model.TaxRule) error
}

var defaultGSTPercentage = decimal.NewFromInt(5)

// Seed installs the built-in roles, the permission catalogue and a default
// GST rule. Safe to run on every start.
func Seed(ctx context.Context, roles RoleSeeder, taxRules TaxRuleSeeder, logger *logrus.Logger) error {
	permIDs := make(map[string]uuid.UUID, len(model.DefaultPermissions))
	for _, p := range model.DefaultPermissions {
		perm := p
		if err := roles.FindOrCreatePermission(ctx, &perm); err != nil {
			return fmt.Errorf("failed to seed permission %s: %w", p.Code, err)
		}
		permIDs[perm.Code] = perm.ID
	}

	for _, name := range []string{model.RoleAdmin, model.RoleManager, model.RoleSales, model.RoleProduction} {
		role := model.Role{Name: name, Description: "Built-in " + name + " role", IsSystem: true}
		if err := roles.FindOrCreateRole(ctx, &role); err != nil {
			return fmt.Errorf("failed to seed role %s: %w", name, err)
		}

		codes := model.DefaultRolePermissions[name]
		if len(codes) == 0 {
			continue
		}
		ids := make([]uuid.UUID, 0, len(codes))
		for _, code := range codes {
			id, ok := permIDs[code]
			if !ok {
				return fmt.Errorf("role %s references unknown permission %s", name, code)
			}
			ids = append(ids, id)
		}
		if err := roles.GrantPermissions(ctx, role.ID, ids); err != nil {
			return fmt.Errorf("failed to grant permissions to %s: %w", name, err)
		}
	}

	count, err := taxRules.CountByType(ctx, model.TaxTypeGST)
	if err != nil {
		return fmt.Errorf("failed to count tax rules: %w", err)
	}
	if count == 0 {
		rule := model.TaxRule{
			TaxType:       model.TaxTypeGST,
			Percentage:    defaultGSTPercentage,
			EffectiveFrom: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
			Description:   "Default GST",
		}
		if err := taxRules.Create(ctx, &rule); err != nil {
			return fmt.Errorf("failed to seed default GST rule: %w", err)
		}
		logger.WithField("percentage", rule.Percentage.String()).Info("Seeded default GST rule")
	}

	logger.WithFields(logrus.Fields{
		"permissions": len(permIDs),
		"roles":       4,
	}).Info("Roles and permissions seeded")
	return nil
}
