package web

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hpungsan/murmur/internal/auth"
	"github.com/hpungsan/murmur/internal/config"
	"github.com/hpungsan/murmur/internal/db"
	"github.com/hpungsan/murmur/internal/errors"
	"github.com/hpungsan/murmur/internal/ops"
)

// Handlers contains HTTP route handlers for the JSON API.
type Handlers struct {
	db     *sql.DB
	cfg    *config.Config
	auth   *auth.Authenticator
	gen    ops.Generator
	logger *zap.Logger
}

// adminHandler is a route that runs only for an authenticated admin.
type adminHandler func(c *gin.Context, ac auth.AuthContext)

// admin resolves the session cookie into an AuthContext and rejects
// anonymous callers with 401.
func (h *Handlers) admin(fn adminHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, _ := c.Cookie(SessionCookie)

		var ac auth.AuthContext
		if h.auth != nil {
			var err error
			ac, err = h.auth.Resolve(c.Request.Context(), sessionID)
			if err != nil {
				h.renderError(c, err)
				return
			}
		}
		if !ac.Authenticated() {
			h.renderError(c, errors.NewUnauthorized("Authentication required"))
			return
		}

		c.Request = c.Request.WithContext(auth.WithContext(c.Request.Context(), ac))
		fn(c, ac)
	}
}

type submitRequest struct {
	Text string `json:"text"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// HandleSubmit handles POST /api/feedback. No authentication required.
func (h *Handlers) HandleSubmit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.renderError(c, bindError(err))
		return
	}

	out, err := ops.Submit(c.Request.Context(), h.db, h.cfg, ops.SubmitInput{Text: req.Text})
	if err != nil {
		h.renderError(c, err)
		return
	}

	renderOK(c, http.StatusCreated, gin.H{"id": out.ID, "message": out.Message})
}

// HandleList handles GET /api/feedback.
func (h *Handlers) HandleList(c *gin.Context, _ auth.AuthContext) {
	out, err := ops.List(c.Request.Context(), h.db)
	if err != nil {
		h.renderError(c, err)
		return
	}

	renderOK(c, http.StatusOK, gin.H{"data": out.Items, "count": out.Count})
}

// HandleGet handles GET /api/feedback/:id.
func (h *Handlers) HandleGet(c *gin.Context, _ auth.AuthContext) {
	id, err := ops.ParseID(c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	rec, err := ops.Fetch(c.Request.Context(), h.db, ops.FetchInput{ID: id})
	if err != nil {
		h.renderError(c, err)
		return
	}

	renderOK(c, http.StatusOK, gin.H{"data": rec})
}

// HandleSetStatus handles PUT /api/feedback/:id.
func (h *Handlers) HandleSetStatus(c *gin.Context, ac auth.AuthContext) {
	id, err := ops.ParseID(c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.renderError(c, bindError(err))
		return
	}

	out, err := ops.SetStatus(c.Request.Context(), h.db, ops.SetStatusInput{ID: id, Status: req.Status})
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.logger.Info("feedback status updated",
		zap.Int64("id", out.ID),
		zap.String("status", string(out.Status)),
		zap.String("session", ac.SessionID))
	renderOK(c, http.StatusOK, gin.H{"message": out.Message})
}

// HandleInsights handles GET /api/insights.
func (h *Handlers) HandleInsights(c *gin.Context, _ auth.AuthContext) {
	out, err := ops.Insights(c.Request.Context(), h.db, h.gen)
	if err != nil {
		h.renderError(c, err)
		return
	}

	h.logger.Debug("insights generated",
		zap.String("source", out.Source),
		zap.Int("attempts", len(out.Attempts)),
		zap.Int("clusters", len(out.Clusters)))
	renderOK(c, http.StatusOK, gin.H{"data": out.Result})
}

// HandleLogin handles POST /api/login.
func (h *Handlers) HandleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.renderError(c, bindError(err))
		return
	}
	if h.auth == nil {
		h.renderError(c, errors.NewInternal(stderrors.New("authentication is not configured")))
		return
	}

	sess, err := h.auth.Login(c.Request.Context(), req.Password)
	if err != nil {
		if errors.Is(err, errors.ErrUnauthorized) {
			h.logger.Warn("admin login failed", zap.String("client_ip", c.ClientIP()))
		}
		h.renderError(c, err)
		return
	}

	h.setSessionCookie(c, sess.ID, int(h.auth.TTL().Seconds()))
	renderOK(c, http.StatusOK, gin.H{"message": "Login successful"})
}

// HandleLogout handles POST /api/logout. Always succeeds for the caller.
func (h *Handlers) HandleLogout(c *gin.Context) {
	if sessionID, err := c.Cookie(SessionCookie); err == nil && h.auth != nil {
		if err := h.auth.Logout(c.Request.Context(), sessionID); err != nil {
			h.renderError(c, err)
			return
		}
	}

	h.setSessionCookie(c, "", -1)
	renderOK(c, http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(c *gin.Context) {
	n, err := db.CountFeedback(c.Request.Context(), h.db)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "feedback": n})
}

// bindError turns a request binding failure into a 400.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return errors.NewInvalidRequest(fmt.Sprintf("%s is %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return errors.NewInvalidRequest("Invalid JSON body")
}
