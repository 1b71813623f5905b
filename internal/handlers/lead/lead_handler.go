// internal/handlers/lead/lead_handler.go
package lead

import (
	"net/http"
	"strconv"
	"time"

	"crm-service/internal/domain/lead"
	"crm-service/internal/middleware"
	"crm-service/internal/pkg/response"
	service "crm-service/internal/service/lead"

	"github.com/gin-gonic/gin"
)

type LeadHandler struct {
	leadService *service.Service
}

func NewLeadHandler(leadService *service.Service) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
	}
}

// ListLeads retrieves leads with filtering, sorting, and pagination.
func (h *LeadHandler) ListLeads(c *gin.Context) {
	q := lead.ListQuery{
		Page:      intQuery(c, "page", 1),
		Limit:     intQuery(c, "limit", 10),
		Status:    c.Query("status"),
		Source:    c.Query("source"),
		Search:    c.Query("search"),
		SortBy:    firstQuery(c, "sort_by", "sortBy"),
		SortOrder: firstQuery(c, "sort_order", "sortOrder"),
	}

	if t, ok := dateQuery(c, "start_date", "startDate"); ok {
		q.StartDate = &t
	}
	if t, ok := dateQuery(c, "end_date", "endDate"); ok {
		q.EndDate = &t
	}

	result, err := h.leadService.List(c.Request.Context(), q)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "leads retrieved", result)
}

// GetLead retrieves a single lead with notes and references resolved.
func (h *LeadHandler) GetLead(c *gin.Context) {
	result, err := h.leadService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "lead retrieved", result)
}

// GetStats returns the whole-collection aggregate view.
func (h *LeadHandler) GetStats(c *gin.Context) {
	stats, err := h.leadService.Stats(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "stats retrieved", stats)
}

// CreateLead creates a lead attributed to the authenticated user.
func (h *LeadHandler) CreateLead(c *gin.Context) {
	var req lead.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	actorID := middleware.MustGetUserID(c)

	result, err := h.leadService.Create(c.Request.Context(), &req, actorID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "lead created successfully", result)
}

// CreatePublicLead accepts the unauthenticated contact form.
func (h *LeadHandler) CreatePublicLead(c *gin.Context) {
	var req lead.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	result, err := h.leadService.CreatePublic(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "thank you for your inquiry, we will contact you soon", gin.H{
		"lead_id": result.ID,
	})
}

// UpdateLead merge-updates a lead.
func (h *LeadHandler) UpdateLead(c *gin.Context) {
	var req lead.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	result, err := h.leadService.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "lead updated successfully", result)
}

// UpdateStatus moves a lead through the pipeline.
func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	var req lead.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	result, err := h.leadService.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "lead status updated", result)
}

// DeleteLead removes a lead and its notes.
func (h *LeadHandler) DeleteLead(c *gin.Context) {
	if err := h.leadService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "lead deleted successfully", nil)
}

// AddNote attaches a note to a lead, authored by the authenticated user.
func (h *LeadHandler) AddNote(c *gin.Context) {
	var req lead.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	actorID := middleware.MustGetUserID(c)

	result, err := h.leadService.AddNote(c.Request.Context(), c.Param("id"), req.Content, actorID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "note added", result)
}

// DeleteNote removes a note from a lead.
func (h *LeadHandler) DeleteNote(c *gin.Context) {
	err := h.leadService.DeleteNote(c.Request.Context(), c.Param("id"), c.Param("noteId"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "note deleted successfully", nil)
}

// --- query helpers ---

func intQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

// firstQuery returns the first non-empty value among the given keys; the
// legacy client sends camelCase parameter names.
func firstQuery(c *gin.Context, keys ...string) string {
	for _, key := range keys {
		if v := c.Query(key); v != "" {
			return v
		}
	}
	return ""
}

func dateQuery(c *gin.Context, keys ...string) (time.Time, bool) {
	v := firstQuery(c, keys...)
	if v == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, true
	}
	return time.Time{}, false
}
