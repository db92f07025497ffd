package license

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/licensing/errors"
	"github.com/kbukum/licensing/logger"
	"github.com/kbukum/licensing/server"
	"github.com/kbukum/licensing/validation"
)

// maxIDLength bounds path identifiers to the width of the id columns.
const maxIDLength = 36

// Handler exposes Service over HTTP.
type Handler struct {
	svc *Service
	log *logger.Logger
}

// NewHandler returns a Handler for svc.
func NewHandler(svc *Service, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{svc: svc, log: log.WithComponent("license-handler")}
}

// Register mounts the license routes on r.
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/v1/organization/:organizationId/license")
	g.GET("/", h.List)
	g.GET("/:licenseId", h.Get)
	g.GET("/:licenseId/:clientType", h.Get)
	g.POST("", h.Create)
	g.PUT("", h.Update)
	g.DELETE("/:licenseId", h.Delete)
}

// List returns every license of the organization.
func (h *Handler) List(c *gin.Context) {
	if !validPath(c) {
		return
	}
	server.RespondOK(c, h.svc.ListByOrganization(c.Request.Context(), c.Param("organizationId")))
}

// Get looks up one license. The optional clientType segment picks the
// organization client.
func (h *Handler) Get(c *gin.Context) {
	if !validPath(c) {
		return
	}
	l, err := h.svc.Lookup(c.Request.Context(), c.Param("licenseId"), c.Param("organizationId"), c.Param("clientType"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, l)
}

// Create stores a new license.
func (h *Handler) Create(c *gin.Context) {
	if !validPath(c) {
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	l, err := h.svc.Create(c.Request.Context(), c.Param("organizationId"), req)
	if err != nil {
		h.logFailure(c, "create", err)
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, l)
}

// Update replaces an existing license.
func (h *Handler) Update(c *gin.Context) {
	if !validPath(c) {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", err.Error()))
		return
	}
	l, err := h.svc.Update(c.Request.Context(), c.Param("organizationId"), req)
	if err != nil {
		h.logFailure(c, "update", err)
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, l)
}

// Delete removes a license and answers with the localized confirmation.
func (h *Handler) Delete(c *gin.Context) {
	if !validPath(c) {
		return
	}
	msg, err := h.svc.Delete(c.Request.Context(), c.Param("organizationId"), c.Param("licenseId"))
	if err != nil {
		h.logFailure(c, "delete", err)
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, gin.H{"message": msg})
}

func (h *Handler) logFailure(c *gin.Context, op string, err error) {
	if apperrors.StatusCode(err) < 500 {
		return
	}
	h.log.WithContext(c.Request.Context()).WithError(err).Error("license request failed", logger.Fields(
		logger.FieldOperation, op,
		logger.FieldOrganizationID, c.Param("organizationId"),
	))
}

// validPath checks the id path parameters and answers 400 when one is
// malformed.
func validPath(c *gin.Context) bool {
	v := validation.New()
	for _, name := range []string{"organizationId", "licenseId"} {
		if value, ok := c.Params.Get(name); ok {
			v.Required(name, value).MaxLength(name, value, maxIDLength)
		}
	}
	if err := v.Validate(); err != nil {
		server.RespondWithError(c, err)
		return false
	}
	return true
}
