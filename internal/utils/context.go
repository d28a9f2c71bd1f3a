package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/agriconnect-backend/internal/i18n"
)

// Keys under which middleware stores per-request values on the gin context.
const (
	ContextKeyLang   = "lang"
	ContextKeyUserID = "user_id"
	ContextKeyRole   = "role"
)

func GetLangFromContext(c *gin.Context) string {
	if lang := c.GetString(ContextKeyLang); lang != "" {
		return lang
	}
	return i18n.DefaultLanguage
}

func GetUserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	id, ok := c.Value(ContextKeyUserID).(uuid.UUID)
	return id, ok
}

func GetRoleFromContext(c *gin.Context) (string, bool) {
	role := c.GetString(ContextKeyRole)
	return role, role != ""
}
