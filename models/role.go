package models

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mmdatafocus/gate_entry/config"
	"gorm.io/gorm"
)

type Role struct {
	ID          int               `gorm:"primary_key" json:"id"`
	BusinessId  string            `gorm:"size:64;index;not null" json:"business_id"`
	Name        string            `gorm:"index;size:100;not null" json:"name"`
	Permissions []*RolePermission `gorm:"foreignKey:RoleId" json:"permissions"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewRole struct {
	Name        string                `json:"name" validate:"required,max=100"`
	Permissions []*NewRolePermission `json:"permissions" validate:"dive"`
}

type NewRolePermission struct {
	DocType        string `json:"doctype" validate:"required"`
	AllowedActions string `json:"allowed_actions" validate:"required"`
}

// permissionDocTypes are the doctypes a role can be granted actions on.
var permissionDocTypes = []string{
	DocTypeGatePass,
	string(DocumentReferencePurchaseOrder),
	string(DocumentReferenceSubcontractingOrder),
	string(DocumentReferenceSalesInvoice),
	string(DocumentReferenceDeliveryNote),
	string(DocumentReferenceStockEntry),
	string(ReceiptTypePurchaseReceipt),
	string(ReceiptTypeSubcontractingReceipt),
}

var allActions = []string{ActionRead, ActionCreate, ActionWrite, ActionSubmit, ActionCancel, ActionDelete}

func extractActions(s string) []string {
	var actions []string
	for _, a := range strings.Split(strings.ToLower(s), ";") {
		if a = strings.TrimSpace(a); a != "" {
			actions = append(actions, a)
		}
	}
	return actions
}

func mapRolePermissions(businessId string, input []*NewRolePermission) ([]*RolePermission, error) {
	var perms []*RolePermission
	seen := map[string]bool{}
	for _, p := range input {
		if !slices.Contains(permissionDocTypes, p.DocType) {
			return nil, fmt.Errorf("unknown doctype %q", p.DocType)
		}
		if seen[p.DocType] {
			return nil, fmt.Errorf("duplicate doctype %q", p.DocType)
		}
		seen[p.DocType] = true
		actions := extractActions(p.AllowedActions)
		for _, action := range actions {
			if !slices.Contains(allActions, action) {
				return nil, errors.New("invalid action " + action)
			}
		}
		perms = append(perms, &RolePermission{
			BusinessId:     businessId,
			DocType:        p.DocType,
			AllowedActions: strings.Join(actions, ";"),
		})
	}
	return perms, nil
}

func CreateRole(ctx context.Context, input *NewRole) (*Role, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	perms, err := mapRolePermissions(businessId, input.Permissions)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&Role{}).
		Where("business_id = ? AND name = ?", businessId, input.Name).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &ValidationError{Message: "duplicate role name"}
	}

	role := Role{
		BusinessId:  businessId,
		Name:        input.Name,
		Permissions: perms,
	}
	if err := db.WithContext(ctx).Create(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// UpdateRole renames the role and replaces its permissions.
func UpdateRole(ctx context.Context, id int, input *NewRole) (*Role, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	perms, err := mapRolePermissions(businessId, input.Permissions)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	role, err := GetRole(ctx, id)
	if err != nil {
		return nil, err
	}

	err = config.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("business_id = ? AND role_id = ?", businessId, id).Delete(&RolePermission{}).Error; err != nil {
			return err
		}
		for _, p := range perms {
			p.RoleId = id
		}
		if len(perms) > 0 {
			if err := tx.Create(&perms).Error; err != nil {
				return err
			}
		}
		return tx.Model(role).Update("name", input.Name).Error
	})
	if err != nil {
		return nil, err
	}
	if err := clearRolePermissionCache(ctx, id); err != nil {
		return nil, err
	}
	role.Name = input.Name
	role.Permissions = perms
	return role, nil
}

// DeleteRole fails while a user still has the role.
func DeleteRole(ctx context.Context, id int) (*Role, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	role, err := GetRole(ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&User{}).
		Where("business_id = ? AND role_id = ?", businessId, id).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &ValidationError{Message: "role has been used"}
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("business_id = ? AND role_id = ?", businessId, id).Delete(&RolePermission{}).Error; err != nil {
			return err
		}
		return tx.Delete(role).Error
	})
	if err != nil {
		return nil, err
	}
	return role, clearRolePermissionCache(ctx, id)
}

func GetRole(ctx context.Context, id int) (*Role, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	var role Role
	err = config.GetDB().WithContext(ctx).Preload("Permissions").
		Where("business_id = ? AND id = ?", businessId, id).Take(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{DocType: "Role", Name: fmt.Sprint(id)}
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func ListRoles(ctx context.Context) ([]*Role, error) {
	businessId, err := businessIdFrom(ctx)
	if err != nil {
		return nil, err
	}
	var roles []*Role
	if err := config.GetDB().WithContext(ctx).Preload("Permissions").
		Where("business_id = ?", businessId).Order("name").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}
