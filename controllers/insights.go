package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"aura/insight"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// outerDeadline bounds a full generation request end to end, including the
// provider retry budget.
const outerDeadline = 60 * time.Second

var insightService *insight.Service

// SetInsightService wires the orchestrator used by the insights endpoint.
func SetInsightService(s *insight.Service) {
	insightService = s
}

type InsightsRequest struct {
	UserID              string `json:"user_id" form:"user_id"`
	Force               bool   `json:"force" form:"force"`
	Mode                string `json:"mode" form:"mode"` // "", "peek", "purge", "ping"
	CacheOnly           bool   `json:"cache_only" form:"cache_only"`
	IncludeExtraContext bool   `json:"include_extra_context" form:"include_extra_context"`
	WindowDays          int    `json:"window_days" form:"window_days"`
}

// POST /api/insights (validated)
// One endpoint, four operations selected by mode/cache_only; see the request
// struct. user_id falls back to the bearer user.
func GenerateInsights(c *gin.Context) {
	if insightService == nil {
		RespondError(c, "insight service not configured", http.StatusInternalServerError)
		return
	}

	var req InsightsRequest
	if c.Request.ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			RespondError(c, err.Error(), http.StatusBadRequest)
			return
		}
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		if user, ok := GetUserLogged(c); ok {
			userID = user.ID
		}
	}
	if userID == "" {
		RespondError(c, "user_id is required", http.StatusBadRequest)
		return
	}
	if _, err := uuid.Parse(userID); err != nil {
		RespondError(c, "user_id must be a UUID", http.StatusBadRequest)
		return
	}

	switch strings.ToLower(strings.TrimSpace(req.Mode)) {
	case "ping":
		RespondSuccess(c, gin.H{"ok": true})
		return

	case "purge":
		if err := insightService.Purge(userID); err != nil {
			RespondError(c, err.Error(), http.StatusInternalServerError)
			return
		}
		RespondSuccess(c, gin.H{"ok": true})
		return

	case "peek":
		res, err := insightService.Peek(c.Request.Context(), userID, req.WindowDays)
		if err != nil {
			RespondError(c, err.Error(), http.StatusInternalServerError)
			return
		}
		RespondSuccess(c, res)
		return

	case "", "full":
		// fallthrough to generation below

	default:
		RespondError(c, "unknown mode: "+req.Mode, http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), outerDeadline)
	defer cancel()

	res, err := insightService.Generate(ctx, insight.Request{
		UserID:              userID,
		Force:               req.Force,
		CacheOnly:           req.CacheOnly,
		IncludeExtraContext: req.IncludeExtraContext,
		WindowDays:          req.WindowDays,
	})
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	if req.CacheOnly && !res.Ready {
		c.JSON(http.StatusAccepted, gin.H{
			"cached":        false,
			"signature":     res.Signature,
			"stale_by_time": res.StaleByTime,
		})
		return
	}

	RespondSuccess(c, res)
}
