package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"millorders/internal/model"
	"millorders/internal/order"
	"millorders/internal/repository"
)

// PermissionService resolves a role to its permission set, cached per role
type PermissionService interface {
	PermissionsForRole(ctx context.Context, role string) (order.PermissionSet, error)
	ClearCache(role string)
}

type permCacheEntry struct {
	perms     order.PermissionSet
	expiresAt time.Time
}

type permissionService struct {
	roleRepo repository.RoleRepository
	ttl      time.Duration
	cache    sync.Map // role name -> permCacheEntry
	now      func() time.Time
}

func NewPermissionService(roleRepo repository.RoleRepository, ttl time.Duration) PermissionService {
	return &permissionService{roleRepo: roleRepo, ttl: ttl, now: time.Now}
}

func allPermissions() order.PermissionSet {
	codes := make([]string, 0, len(model.DefaultPermissions))
	for _, p := range model.DefaultPermissions {
		codes = append(codes, p.Code)
	}
	return order.NewPermissionSet(codes...)
}

func (s *permissionService) PermissionsForRole(ctx context.Context, role string) (order.PermissionSet, error) {
	if role == model.RoleAdmin {
		return allPermissions(), nil
	}

	if entry, ok := s.cache.Load(role); ok {
		cached := entry.(permCacheEntry)
		if s.now().Before(cached.expiresAt) {
			return cached.perms, nil
		}
	}

	codes, err := s.roleRepo.PermissionCodes(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to load permissions for role %s: %w", role, err)
	}

	perms := order.NewPermissionSet(codes...)
	s.cache.Store(role, permCacheEntry{perms: perms, expiresAt: s.now().Add(s.ttl)})
	return perms, nil
}

// ClearCache drops one role, or every role when role is empty
func (s *permissionService) ClearCache(role string) {
	if role != "" {
		s.cache.Delete(role)
		return
	}
	s.cache.Range(func(key, _ interface{}) bool {
		s.cache.Delete(key)
		return true
	})
}
