package service

import (
	"context"
	"testing"
	"time"

	"millorders/internal/model"
	"millorders/internal/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionsForRole_CachesUntilTTL(t *testing.T) {
	repo := &fakeRoleRepo{codes: map[string][]string{
		model.RoleSales: {order.PermOrdersUpdate, "orders.read"},
	}}
	svc := NewPermissionService(repo, time.Minute).(*permissionService)
	now := fixedNow
	svc.now = func() time.Time { return now }

	perms, err := svc.PermissionsForRole(context.Background(), model.RoleSales)
	require.NoError(t, err)
	assert.True(t, perms.HasPermission(order.PermOrdersUpdate))
	assert.False(t, perms.HasPermission(order.PermOrdersApprove))

	_, err = svc.PermissionsForRole(context.Background(), model.RoleSales)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)

	now = now.Add(2 * time.Minute)
	_, err = svc.PermissionsForRole(context.Background(), model.RoleSales)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)

	svc.ClearCache(model.RoleSales)
	_, err = svc.PermissionsForRole(context.Background(), model.RoleSales)
	require.NoError(t, err)
	assert.Equal(t, 3, repo.calls)
}

func TestPermissionsForRole_AdminHasEverything(t *testing.T) {
	repo := &fakeRoleRepo{}
	svc := NewPermissionService(repo, time.Minute)

	perms, err := svc.PermissionsForRole(context.Background(), model.RoleAdmin)
	require.NoError(t, err)
	for _, p := range model.DefaultPermissions {
		assert.True(t, perms.HasPermission(p.Code), p.Code)
	}
	assert.Zero(t, repo.calls)
}

func TestPermissionsForRole_UnknownRole(t *testing.T) {
	svc := NewPermissionService(&fakeRoleRepo{}, time.Minute)
	_, err := svc.PermissionsForRole(context.Background(), "intern")
	assert.Error(t, err)
}
