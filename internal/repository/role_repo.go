package repository

import (
	"context"

	"millorders/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoleRepository resolves the permission codes behind a role name and
// installs the built-in catalogue
type RoleRepository interface {
	PermissionCodes(ctx context.Context, roleName string) ([]string, error)
	FindOrCreateRole(ctx context.Context, role *model.Role) error
	FindOrCreatePermission(ctx context.Context, perm *model.Permission) error
	GrantPermissions(ctx context.Context, roleID uuid.UUID, permIDs []uuid.UUID) error
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

// PermissionCodes returns gorm.ErrRecordNotFound for an unknown role and an
// empty slice for a role without grants
func (r *roleRepository) PermissionCodes(ctx context.Context, roleName string) ([]string, error) {
	db := GetDB(ctx, r.db)

	var role model.Role
	if err := db.Select("id").Where("name = ?", roleName).First(&role).Error; err != nil {
		return nil, err
	}

	codes := []string{}
	err := db.Model(&model.Permission{}).
		Joins("JOIN role_permissions rp ON rp.permission_id = permissions.id").
		Where("rp.role_id = ?", role.ID).
		Order("permissions.code asc").
		Pluck("permissions.code", &codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *roleRepository) FindOrCreateRole(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).
		Where("name = ?", role.Name).
		Attrs(model.Role{Description: role.Description, IsSystem: role.IsSystem}).
		FirstOrCreate(role).Error
}

func (r *roleRepository) FindOrCreatePermission(ctx context.Context, perm *model.Permission) error {
	return GetDB(ctx, r.db).
		Where("code = ?", perm.Code).
		Attrs(model.Permission{Name: perm.Name, Group: perm.Group}).
		FirstOrCreate(perm).Error
}

// GrantPermissions adds grants; ones the role already holds are left untouched
func (r *roleRepository) GrantPermissions(ctx context.Context, roleID uuid.UUID, permIDs []uuid.UUID) error {
	if len(permIDs) == 0 {
		return nil
	}

	rows := make([]map[string]interface{}, 0, len(permIDs))
	for _, id := range permIDs {
		rows = append(rows, map[string]interface{}{"role_id": roleID, "permission_id": id})
	}

	return GetDB(ctx, r.db).
		Table("role_permissions").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}
