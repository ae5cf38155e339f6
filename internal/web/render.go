package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hpungsan/murmur/internal/errors"
)

// renderError writes the JSON error body and aborts the chain.
// Internal error messages are logged, never sent.
func (h *Handlers) renderError(c *gin.Context, err error) {
	mErr, ok := errors.As(err)
	if !ok {
		mErr = errors.NewInternal(err)
	}

	message := mErr.Message
	if mErr.Code == errors.ErrInternal {
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
		message = "an internal error occurred"
	}

	errorObj := gin.H{
		"code":    string(mErr.Code),
		"message": message,
		"status":  mErr.Status,
	}
	if mErr.Code != errors.ErrInternal && mErr.Details != nil {
		errorObj["details"] = mErr.Details
	}

	c.AbortWithStatusJSON(mErr.Status, gin.H{
		"success": false,
		"error":   errorObj,
	})
}

// renderOK writes a success body; fields are merged next to "success".
func renderOK(c *gin.Context, status int, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(status, body)
}

func (h *Handlers) setSessionCookie(c *gin.Context, value string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
