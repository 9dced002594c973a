package models

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/gate_entry/config"
	"github.com/mmdatafocus/gate_entry/utils"
	"gorm.io/gorm"
)

type User struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"size:64;index" json:"business_id"`
	Username   string    `gorm:"size:100;not null;unique" json:"username"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	Email      *string   `gorm:"size:100;unique" json:"email"`
	Password   string    `gorm:"size:255;not null" json:"password,omitempty"`
	IsActive   *bool     `gorm:"not null" json:"is_active"`
	RoleId     int       `gorm:"not null;default:0" json:"role_id"`
	Role       UserRole  `gorm:"type:enum('A', 'O', 'C');default:C" json:"role"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

/*
caches:
	User:$username
	Token:$token -> username
	Tokens:$username -> set of tokens
*/

func userCacheKey(username string) string { return "User:" + username }

func (user User) RemoveInstanceRedis(ctx context.Context) error {
	return config.RemoveRedisKey(ctx, userCacheKey(user.Username))
}

type LoginInfo struct {
	Token       string           `json:"token"`
	Name        string           `json:"name"`
	Role        string           `json:"role"`
	BusinessId  string           `json:"business_id"`
	Permissions []AllowedDocType `json:"permissions"`
}

type AllowedDocType struct {
	DocType        string `json:"doctype"`
	AllowedActions string `json:"allowed_actions"`
}

func (result *User) PrepareGive() {
	result.Password = ""
}

// GetUserByUsername reads through the User: cache.
func GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	exists, err := config.GetRedisObject(ctx, userCacheKey(username), &user)
	if err != nil {
		return nil, err
	}
	if exists {
		return &user, nil
	}
	err = config.GetDB().WithContext(utils.SetSkipTenantScopeInContext(ctx, true)).
		Where("username = ?", username).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{DocType: "User", Name: username}
	}
	if err != nil {
		return nil, err
	}
	if err := config.SetRedisObject(ctx, userCacheKey(username), &user, time.Hour); err != nil {
		return nil, err
	}
	return &user, nil
}

// ResolveSession returns the user a session token belongs to.
func ResolveSession(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, utils.ErrorUnauthorized
	}
	username, ok, err := config.GetRedisValue(ctx, "Token:"+token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, utils.ErrorUnauthorized
	}
	user, err := GetUserByUsername(ctx, username)
	if IsNotFound(err) {
		return nil, utils.ErrorUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if user.IsActive == nil || !*user.IsActive {
		return nil, utils.ErrorUnauthorized
	}
	return user, nil
}

func Login(ctx context.Context, username string, password string) (*LoginInfo, error) {
	invalid := errors.New("invalid username or password")

	user, err := GetUserByUsername(ctx, username)
	if IsNotFound(err) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}

	ok, err := utils.PasswordMatches(user.Password, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalid
	}
	if user.IsActive == nil || !*user.IsActive {
		return nil, errors.New("user is disabled")
	}

	token := uuid.NewString()
	result := LoginInfo{
		Token:      token,
		Name:       user.Name,
		BusinessId: user.BusinessId,
	}
	switch {
	case user.Role == UserRoleAdmin:
		result.Role = "Admin"
	case user.Role == UserRoleOwner:
		result.Role = "Owner"
	case user.RoleId != 0:
		var role Role
		if err := config.GetDB().WithContext(utils.SetSkipTenantScopeInContext(ctx, true)).
			Preload("Permissions").Where("id = ?", user.RoleId).Take(&role).Error; err != nil {
			return nil, err
		}
		result.Role = role.Name
		for _, p := range role.Permissions {
			result.Permissions = append(result.Permissions, AllowedDocType{
				DocType:        p.DocType,
				AllowedActions: p.AllowedActions,
			})
		}
	}

	// add new token to the user's tokens set
	if err := config.AddRedisSet(ctx, "Tokens:"+user.Username, token); err != nil {
		return nil, err
	}
	if err := config.SetRedisValue(ctx, "Token:"+token, user.Username, utils.TokenLifespan()); err != nil {
		return nil, err
	}
	return &result, nil
}

// destroy current session
func Logout(ctx context.Context) (bool, error) {
	token, ok := utils.GetTokenFromContext(ctx)
	if !ok || token == "" {
		return false, errors.New("token is required")
	}
	if err := config.RemoveRedisKey(ctx, "Token:"+token); err != nil {
		return false, err
	}
	username, ok := utils.GetUsernameFromContext(ctx)
	if !ok || username == "" {
		return false, errors.New("user not found")
	}
	if err := config.RemoveRedisSetMember(ctx, "Tokens:"+username, token); err != nil {
		return false, err
	}
	return true, nil
}

func (user *User) DestroyAllSessions(ctx context.Context) error {
	allTokens, err := config.GetRedisSetMembers(ctx, "Tokens:"+user.Username)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(allTokens)+1)
	for _, token := range allTokens {
		keys = append(keys, "Token:"+token)
	}
	keys = append(keys, "Tokens:"+user.Username)
	return config.RemoveRedisKey(ctx, keys...)
}

func ChangePassword(ctx context.Context, oldPassword string, newPassword string) (*User, error) {
	username, ok := utils.GetUsernameFromContext(ctx)
	if !ok || username == "" {
		return nil, errors.New("username is required")
	}
	if len(newPassword) < 8 {
		return nil, &ValidationError{Message: "password must be at least 8 characters"}
	}

	user, err := GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	matches, err := utils.PasswordMatches(user.Password, oldPassword)
	if err != nil {
		return nil, err
	}
	if !matches {
		return nil, &ValidationError{Message: "old password is wrong"}
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return nil, err
	}
	if err := config.GetDB().WithContext(utils.SetSkipTenantScopeInContext(ctx, true)).
		Model(&User{}).Where("id = ?", user.ID).UpdateColumn("password", hashed).Error; err != nil {
		return nil, err
	}
	if err := user.RemoveInstanceRedis(ctx); err != nil {
		return nil, err
	}
	if err := user.DestroyAllSessions(ctx); err != nil {
		return nil, err
	}
	user.PrepareGive()
	return user, nil
}

type SeedUserInput struct {
	BusinessId string   `validate:"required"`
	Username   string   `validate:"required,max=100"`
	Name       string   `validate:"required,max=100"`
	Email      string   `validate:"omitempty,email"`
	Password   string   `validate:"required,min=8"`
	Role       UserRole `validate:"required,oneof=A O C"`
}

// UpsertUser creates the user or resets its password, name and role. Existing sessions
// are ended on update.
func UpsertUser(ctx context.Context, input *SeedUserInput) (*User, error) {
	if errs := utils.ValidateStruct(input); len(errs) > 0 {
		var parts []string
		for field, msg := range errs {
			parts = append(parts, field+": "+msg)
		}
		return nil, &ValidationError{Message: strings.Join(parts, "; ")}
	}
	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	ctx = utils.SetSkipTenantScopeInContext(ctx, true)
	db := config.GetDB().WithContext(ctx)
	username := html.EscapeString(strings.TrimSpace(input.Username))
	active := true

	var user User
	err = db.Where("username = ?", username).Take(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = User{
			BusinessId: input.BusinessId,
			Username:   username,
			Name:       input.Name,
			Email:      utils.NilIfEmpty(strings.ToLower(input.Email)),
			Password:   hashed,
			IsActive:   &active,
			Role:       input.Role,
		}
		if err := db.Create(&user).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if err := db.Model(&user).Updates(map[string]any{
			"business_id": input.BusinessId,
			"name":        input.Name,
			"password":    hashed,
			"role":        input.Role,
			"is_active":   true,
		}).Error; err != nil {
			return nil, err
		}
		if err := user.DestroyAllSessions(ctx); err != nil {
			return nil, err
		}
	}
	if err := user.RemoveInstanceRedis(ctx); err != nil {
		return nil, err
	}
	user.PrepareGive()
	return &user, nil
}
