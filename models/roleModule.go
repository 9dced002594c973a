package models

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/mmdatafocus/gate_entry/config"
	"github.com/mmdatafocus/gate_entry/utils"
)

// RolePermission grants a role the ";"-separated actions on one doctype.
type RolePermission struct {
	ID             int       `gorm:"primary_key" json:"id"`
	BusinessId     string    `gorm:"size:64;index;not null" json:"business_id"`
	RoleId         int       `gorm:"not null;uniqueIndex:idx_role_permission,priority:1" json:"role_id"`
	DocType        string    `gorm:"size:60;not null;uniqueIndex:idx_role_permission,priority:2" json:"doctype"`
	AllowedActions string    `gorm:"size:255;not null" json:"allowed_actions"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

/*
cache
	RolePermissions:$roleId -> doctype => actions
*/

func rolePermissionCacheKey(roleId int) string {
	return "RolePermissions:" + fmt.Sprint(roleId)
}

func clearRolePermissionCache(ctx context.Context, roleId int) error {
	return config.RemoveRedisKey(ctx, rolePermissionCacheKey(roleId))
}

// rolePermissions returns doctype => allowed actions for a role, cached in redis.
func rolePermissions(ctx context.Context, roleId int) (map[string][]string, error) {
	perms := map[string][]string{}
	key := rolePermissionCacheKey(roleId)
	exists, err := config.GetRedisObject(ctx, key, &perms)
	if err != nil {
		return nil, err
	}
	if exists {
		return perms, nil
	}

	var rows []*RolePermission
	if err := config.GetDB().WithContext(ctx).Where("role_id = ?", roleId).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		perms[row.DocType] = extractActions(row.AllowedActions)
	}
	if err := config.SetRedisObject(ctx, key, perms, time.Hour); err != nil {
		return nil, err
	}
	return perms, nil
}

// RolePermissionChecker resolves the caller's role from the session user. Admins and owners
// may do everything; custom roles only what their RolePermission rows grant.
type RolePermissionChecker struct{}

func (RolePermissionChecker) HasPermission(ctx context.Context, docType string, action string) (bool, error) {
	if admin, _ := utils.GetIsAdminFromContext(ctx); admin {
		return true, nil
	}
	username, ok := utils.GetUsernameFromContext(ctx)
	if !ok || username == "" {
		return false, nil
	}
	user, err := GetUserByUsername(ctx, username)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if user.Role == UserRoleAdmin || user.Role == UserRoleOwner {
		return true, nil
	}
	if user.RoleId == 0 {
		return false, nil
	}
	perms, err := rolePermissions(ctx, user.RoleId)
	if err != nil {
		return false, err
	}
	return slices.Contains(perms[docType], action), nil
}
