package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/agriconnect-backend/internal/models"
	"github.com/javajoker/agriconnect-backend/internal/utils"
)

const redacted = "[REDACTED]"

// Body fields never written to the audit log, at any depth.
var redactedFields = map[string]bool{
	"password":      true,
	"token":         true,
	"refresh_token": true,
}

// Route parameters that identify the resource a request acts on.
var resourceParams = []string{"id", "farmerId"}

// AuditLogMiddleware records every state-changing request on a known route.
// Rows are written in the background once the handler has finished.
func AuditLogMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" || !isWrite(c.Request.Method) {
			c.Next()
			return
		}

		// multipart uploads are recorded without their body
		var body []byte
		if c.Request.Body != nil && c.ContentType() == gin.MIMEJSON {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		c.Next()

		entry := &models.AuditLog{
			Action:       c.Request.Method + " " + route,
			ResourceType: extractResourceType(route),
			ResourceID:   resourceID(c),
			Status:       c.Writer.Status(),
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
			NewValues:    redactBody(body),
		}
		if id, ok := utils.GetUserIDFromContext(c); ok {
			entry.UserID = &id
		}

		go func() {
			if err := db.Create(entry).Error; err != nil {
				logrus.WithError(err).WithField("action", entry.Action).Error("Failed to create audit log")
			}
		}()
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// extractResourceType names the collection a route pattern belongs to.
func extractResourceType(route string) string {
	parts := strings.Split(strings.Trim(route, "/"), "/")
	if len(parts) >= 2 && parts[0] == "api" {
		return parts[1]
	}
	if parts[0] != "" {
		return parts[0]
	}
	return "unknown"
}

func resourceID(c *gin.Context) *uuid.UUID {
	for _, name := range resourceParams {
		if id, err := uuid.Parse(c.Param(name)); err == nil {
			return &id
		}
	}
	return nil
}

func redactBody(body []byte) models.JSONB {
	if len(body) == 0 {
		return nil
	}
	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil
	}
	redactValue(data)
	return models.JSONB(data)
}

func redactValue(v interface{}) {
	switch v := v.(type) {
	case map[string]interface{}:
		for key, inner := range v {
			if redactedFields[key] {
				v[key] = redacted
				continue
			}
			redactValue(inner)
		}
	case []interface{}:
		for _, inner := range v {
			redactValue(inner)
		}
	}
}
