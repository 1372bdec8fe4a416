package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/twine/internal/lifecycle"
	"github.com/mesh-intelligence/twine/internal/migrate"
	"github.com/mesh-intelligence/twine/internal/suggest"
	"github.com/mesh-intelligence/twine/pkg/types"
)

func handleListLinks(m *lifecycle.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		includeDeleted := c.Query("include_deleted") == "true"
		links, err := m.List(c.Request.Context(), c.Param("id"), includeDeleted)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"links": links})
	}
}

func handleCreateLink(m *lifecycle.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req lifecycle.CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, types.NewViolation(types.CodeValidationError, "invalid request body: %v", err))
			return
		}
		link, err := m.Create(c.Request.Context(), c.Param("id"), actorFrom(c), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, link)
	}
}

func handleCreateBatch(m *lifecycle.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Links []lifecycle.CreateRequest `json:"links"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			writeError(c, types.NewViolation(types.CodeValidationError, "invalid request body: %v", err))
			return
		}
		result, err := m.CreateBatch(c.Request.Context(), c.Param("id"), actorFrom(c), body.Links)
		if err != nil {
			writeError(c, err)
			return
		}
		// Partial failure is still a created batch; callers inspect failed[].
		c.JSON(http.StatusCreated, result)
	}
}

func handleGetLink(m *lifecycle.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		link, err := m.Get(c.Request.Context(), c.Param("linkId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, link)
	}
}

func handleUpdateLink(m *lifecycle.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req lifecycle.UpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, types.NewViolation(types.CodeValidationError, "invalid request body: %v", err))
			return
		}
		link, err := m.Update(c.Request.Context(), c.Param("linkId"), actorFrom(c), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, link)
	}
}

func handleDeleteLink(m *lifecycle.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		link, err := m.SoftDelete(c.Request.Context(), c.Param("linkId"), actorFrom(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, link)
	}
}

func handleRestoreLink(m *lifecycle.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		link, err := m.Restore(c.Request.Context(), c.Param("linkId"), actorFrom(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, link)
	}
}

func handleReorder(m *lifecycle.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Items []lifecycle.ReorderItem `json:"items"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			writeError(c, types.NewViolation(types.CodeValidationError, "invalid request body: %v", err))
			return
		}
		links, err := m.Reorder(c.Request.Context(), c.Param("id"), actorFrom(c), body.Items)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"links": links})
	}
}

func handleMigrate(e *migrate.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			TargetPositionID string `json:"target_position_id"`
			Atomic           bool   `json:"atomic"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			writeError(c, types.NewViolation(types.CodeValidationError, "invalid request body: %v", err))
			return
		}
		actor := actorFrom(c)
		result, err := e.Migrate(c.Request.Context(), c.Param("id"), body.TargetPositionID, actor.ID, body.Atomic)
		if err != nil {
			// An atomic abort still carries the per-link reasons.
			if result != nil && types.ReasonCode(err) == types.CodeMigrationFailed {
				c.JSON(http.StatusConflict, gin.H{
					"error": gin.H{
						"code":     types.CodeMigrationFailed,
						"message":  err.Error(),
						"failures": result.Failures,
					},
				})
				return
			}
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func handleReverseLookup(m *lifecycle.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref := types.EntityRef{Type: c.Param("type"), ID: c.Param("entityId")}
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "0"))

		q := types.ContainerQuery{
			Page:              page,
			PageSize:          pageSize,
			LinkType:          c.Query("link_type"),
			MaxClassification: actorFrom(c).Clearance,
		}
		result, err := m.Containers(c.Request.Context(), ref, q)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func handleAuditTrail(m *lifecycle.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
		trail, err := m.AuditTrail(c.Request.Context(), c.Param("id"), limit)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"audit": trail})
	}
}

func handleGenerateSuggestions(s *suggest.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		set, err := s.Generate(c.Request.Context(), c.Param("id"), actorFrom(c))
		if err != nil {
			if types.ReasonCode(err) == types.CodeSuggestionsUnavailable {
				v, _ := types.AsViolation(err)
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"error": gin.H{
						"code":     types.CodeSuggestionsUnavailable,
						"message":  v.Message,
						"fallback": "manual_search",
					},
				})
				return
			}
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, set)
	}
}

func handleAcceptSuggestion(s *suggest.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req suggest.AcceptRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, types.NewViolation(types.CodeValidationError, "invalid request body: %v", err))
			return
		}
		link, err := s.Accept(c.Request.Context(), c.Param("id"), actorFrom(c), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, link)
	}
}
