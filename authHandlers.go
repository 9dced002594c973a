package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/gate_entry/config"
	"github.com/mmdatafocus/gate_entry/models"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if !bindJSON(c, &req) {
			return
		}
		info, err := models.Login(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			config.GetLogger().WithField("username", req.Username).Info("login rejected: " + err.Error())
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := models.Logout(c.Request.Context()); err != nil {
			writeError(c, "logoutHandler", err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

func changePasswordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req changePasswordRequest
		if !bindJSON(c, &req) {
			return
		}
		user, err := models.ChangePassword(c.Request.Context(), req.OldPassword, req.NewPassword)
		if err != nil {
			writeError(c, "changePasswordHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": user.Username})
	}
}

func roleIdParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role id"})
		return 0, false
	}
	return id, true
}

func listRolesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, err := models.ListRoles(c.Request.Context())
		if err != nil {
			writeError(c, "listRolesHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": roles})
	}
}

func getRoleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := roleIdParam(c)
		if !ok {
			return
		}
		role, err := models.GetRole(c.Request.Context(), id)
		if err != nil {
			writeError(c, "getRoleHandler", err)
			return
		}
		c.JSON(http.StatusOK, role)
	}
}

func createRoleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewRole
		if !bindJSON(c, &input) {
			return
		}
		role, err := models.CreateRole(c.Request.Context(), &input)
		if err != nil {
			writeError(c, "createRoleHandler", err)
			return
		}
		c.JSON(http.StatusCreated, role)
	}
}

func updateRoleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := roleIdParam(c)
		if !ok {
			return
		}
		var input models.NewRole
		if !bindJSON(c, &input) {
			return
		}
		role, err := models.UpdateRole(c.Request.Context(), id, &input)
		if err != nil {
			writeError(c, "updateRoleHandler", err)
			return
		}
		c.JSON(http.StatusOK, role)
	}
}

func deleteRoleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := roleIdParam(c)
		if !ok {
			return
		}
		role, err := models.DeleteRole(c.Request.Context(), id)
		if err != nil {
			writeError(c, "deleteRoleHandler", err)
			return
		}
		c.JSON(http.StatusOK, role)
	}
}
