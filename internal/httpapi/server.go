// Package httpapi exposes the linking engines over HTTP. Handlers are thin:
// they parse the request, call the corresponding engine, and translate
// errors to status codes through the reason-code table. Authentication is
// upstream; the actor arrives in trusted headers.
package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mesh-intelligence/twine/internal/lifecycle"
	"github.com/mesh-intelligence/twine/internal/migrate"
	"github.com/mesh-intelligence/twine/internal/suggest"
	"github.com/mesh-intelligence/twine/pkg/types"
)

// Actor headers set by the authenticating proxy.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderClearance = "X-Clearance-Level"
	HeaderOrgID     = "X-Organization-ID"
)

// Deps carries the engines the router serves.
type Deps struct {
	Manager   *lifecycle.Manager
	Migrator  *migrate.Engine
	Suggester *suggest.Service
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	api := r.Group("/api")
	{
		tickets := api.Group("/tickets/:id")
		tickets.GET("/links", handleListLinks(deps.Manager))
		tickets.POST("/links", handleCreateLink(deps.Manager))
		tickets.POST("/links/batch", handleCreateBatch(deps.Manager))
		tickets.POST("/links/reorder", handleReorder(deps.Manager))
		tickets.POST("/migrate", handleMigrate(deps.Migrator))
		tickets.GET("/audit", handleAuditTrail(deps.Manager))
		tickets.POST("/suggestions", handleGenerateSuggestions(deps.Suggester))
		tickets.POST("/suggestions/accept", handleAcceptSuggestion(deps.Suggester))

		links := api.Group("/links/:linkId")
		links.GET("", handleGetLink(deps.Manager))
		links.PATCH("", handleUpdateLink(deps.Manager))
		links.DELETE("", handleDeleteLink(deps.Manager))
		links.POST("/restore", handleRestoreLink(deps.Manager))

		api.GET("/entities/:type/:entityId/tickets", handleReverseLookup(deps.Manager))
	}
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		slog.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status())
	}
}

// actorFrom reads the acting user out of the trusted headers.
func actorFrom(c *gin.Context) types.Actor {
	clearance, _ := strconv.Atoi(c.GetHeader(HeaderClearance))
	return types.Actor{
		ID:             c.GetHeader(HeaderActorID),
		Clearance:      clearance,
		OrganizationID: c.GetHeader(HeaderOrgID),
	}
}

// statusFor maps contract reason codes to HTTP statuses. Unknown codes
// (including the empty code for internal failures) map to 500.
func statusFor(code string) int {
	switch code {
	case types.CodeValidationError, types.CodeInvalidLinkType,
		types.CodeEntityArchived, types.CodeDuplicatePrimaryLink,
		types.CodeDuplicateAssignedLink, types.CodeInvalidLinkIDs:
		return http.StatusBadRequest
	case types.CodeInsufficientClearance, types.CodeOrganizationMismatch:
		return http.StatusForbidden
	case types.CodeEntityNotFound, types.CodeLinkNotFound, types.CodePositionNotFound:
		return http.StatusNotFound
	case types.CodeVersionConflict, types.CodeLinkAlreadyDeleted,
		types.CodeLinkNotDeleted, types.CodeMigrationFailed:
		return http.StatusConflict
	case types.CodeRateLimited:
		return http.StatusTooManyRequests
	case types.CodeSuggestionsUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError renders err as the standard error body.
func writeError(c *gin.Context, err error) {
	code := types.ReasonCode(err)
	status := statusFor(code)
	body := gin.H{"code": code, "message": err.Error()}
	if v, ok := types.AsViolation(err); ok {
		body["message"] = v.Message
		if v.Field != "" {
			body["field"] = v.Field
		}
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "path", c.Request.URL.Path, "error", err)
		body = gin.H{"code": "INTERNAL_ERROR", "message": "internal error"}
	}
	c.JSON(status, gin.H{"error": body})
}
