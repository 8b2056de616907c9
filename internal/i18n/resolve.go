package i18n

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// ResolveLocale 解析请求语言：?locale 参数优先，其次 Accept-Language 头
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return LocaleEN
	}
	if locale := strings.TrimSpace(c.Query("locale")); locale != "" {
		return Normalize(locale)
	}
	if header := strings.TrimSpace(c.GetHeader("Accept-Language")); header != "" {
		first := header
		if idx := strings.IndexAny(header, ",;"); idx >= 0 {
			first = header[:idx]
		}
		return Normalize(first)
	}
	return LocaleEN
}
