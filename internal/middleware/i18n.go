// internal/middleware/i18n.go
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/agriconnect-backend/internal/i18n"
	"github.com/javajoker/agriconnect-backend/internal/utils"
)

// I18nMiddleware stores the negotiated catalog language under "lang".
func I18nMiddleware(defaultLang string) gin.HandlerFunc {
	if defaultLang == "" {
		defaultLang = i18n.DefaultLanguage
	}
	return func(c *gin.Context) {
		lang, ok := i18n.Negotiate(c.GetHeader("Accept-Language"))
		if !ok {
			lang = defaultLang
		}
		c.Set(utils.ContextKeyLang, lang)
		c.Next()
	}
}
