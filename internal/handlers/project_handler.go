package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hasakeplay/cms-backend/internal/middleware"
	"github.com/hasakeplay/cms-backend/internal/models"
	"github.com/hasakeplay/cms-backend/internal/services/project"
	"github.com/hasakeplay/cms-backend/utils"
)

type ProjectHandler struct {
	Service project.Service
}

func NewProjectHandler(svc project.Service) *ProjectHandler {
	return &ProjectHandler{Service: svc}
}

func (h *ProjectHandler) list(c *gin.Context, includeUnpublished bool, defSort string) {
	page, err := h.Service.List(c.Request.Context(), project.Query{
		Q:                  c.Query("q"),
		Client:             c.Query("client"),
		Year:               queryInt(c, "year"),
		IncludeUnpublished: includeUnpublished,
		Sort:               c.DefaultQuery("sort", defSort),
		Page:               pageParams(c, project.DefaultLimit),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListPublic handles GET /projects.
func (h *ProjectHandler) ListPublic(c *gin.Context) { h.list(c, false, "") }

// ListAdmin handles GET /projects/list.
func (h *ProjectHandler) ListAdmin(c *gin.Context) { h.list(c, true, "-createdAt") }

// GetBySlug handles GET /projects/by-slug/:slug, published only.
func (h *ProjectHandler) GetBySlug(c *gin.Context) {
	doc, err := h.Service.GetPublishedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// GetOne handles GET /projects/:id, which also accepts a slug.
func (h *ProjectHandler) GetOne(c *gin.Context) {
	doc, err := h.Service.GetByIDOrSlug(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *ProjectHandler) Create(c *gin.Context) {
	var in models.ProjectInput
	if !bindJSON(c, &in) {
		return
	}
	doc, err := h.Service.Create(c.Request.Context(), middleware.Principal(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *ProjectHandler) Update(c *gin.Context) {
	var patch models.ProjectPatch
	if !bindJSON(c, &patch) {
		return
	}
	doc, err := h.Service.Update(c.Request.Context(), middleware.Principal(c), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Deleted"))
}

// CheckSlug handles GET /projects/slug/check?slug=&excludeId=.
func (h *ProjectHandler) CheckSlug(c *gin.Context) {
	res, err := h.Service.CheckSlug(c.Request.Context(), strings.TrimSpace(c.Query("slug")), c.Query("excludeId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// PreviewSlug handles GET /projects/slugify?input=&project=&excludeId=.
func (h *ProjectHandler) PreviewSlug(c *gin.Context) {
	res, err := h.Service.PreviewSlug(c.Request.Context(), project.PreviewInput{
		Input:     strings.TrimSpace(c.Query("input")),
		Project:   c.Query("project"),
		ExcludeID: c.Query("excludeId"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ProjectHandler) RegenerateSlug(c *gin.Context) {
	doc, err := h.Service.RegenerateSlug(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// BackfillSlugs handles POST /projects/slugs/backfill. Only dryRun=false
// writes.
func (h *ProjectHandler) BackfillSlugs(c *gin.Context) {
	dryRun := !strings.EqualFold(c.Query("dryRun"), "false")
	res, err := h.Service.BackfillSlugs(c.Request.Context(), dryRun)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
