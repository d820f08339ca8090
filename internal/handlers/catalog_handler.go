package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hasakeplay/cms-backend/internal/core/domain"
	"github.com/hasakeplay/cms-backend/internal/middleware"
	"github.com/hasakeplay/cms-backend/internal/models"
	"github.com/hasakeplay/cms-backend/internal/services/catalog"
	"github.com/hasakeplay/cms-backend/utils"
)

const (
	maxUploadSize = 15 << 20 // 15MB per file
	pdfMIME       = "application/pdf"
)

var (
	errMissingFile = domain.Validation("Missing file")
	errOnlyPDF     = domain.Validation("Only PDF is allowed")
)

type CatalogHandler struct {
	Service catalog.Service
}

func NewCatalogHandler(svc catalog.Service) *CatalogHandler {
	return &CatalogHandler{Service: svc}
}

func (h *CatalogHandler) list(c *gin.Context, includeUnpublished bool, defSort string) {
	page, err := h.Service.List(c.Request.Context(), catalog.Query{
		Q:                  c.Query("q"),
		Year:               queryInt(c, "year"),
		IncludeUnpublished: includeUnpublished,
		Sort:               c.DefaultQuery("sort", defSort),
		Page:               pageParams(c, catalog.DefaultLimit),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListPublic handles GET /catalogs.
func (h *CatalogHandler) ListPublic(c *gin.Context) { h.list(c, false, "") }

// ListAdmin handles GET /catalogs/list, drafts included.
func (h *CatalogHandler) ListAdmin(c *gin.Context) { h.list(c, true, "-createdAt") }

func (h *CatalogHandler) GetBySlug(c *gin.Context) {
	doc, err := h.Service.GetPublished(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Open redirects to the stored PDF.
func (h *CatalogHandler) Open(c *gin.Context) {
	url, err := h.Service.OpenURL(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

func (h *CatalogHandler) Create(c *gin.Context) {
	var in models.CatalogInput
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

func (h *CatalogHandler) Update(c *gin.Context) {
	var patch models.CatalogPatch
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

// Upload handles POST /catalogs/upload: stores a PDF and returns its
// descriptor for a later create.
func (h *CatalogHandler) Upload(c *gin.Context) {
	f, err := openUpload(c, "file")
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()
	if f.ContentType != pdfMIME {
		respondError(c, errOnlyPDF)
		return
	}

	pdf, err := h.Service.UploadPDF(c.Request.Context(), f, f.Filename)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"url":         pdf.URL,
		"provider":    pdf.Provider,
		"publicId":    pdf.PublicID,
		"bytes":       pdf.Bytes,
		"access_mode": "public",
		"contentType": pdf.ContentType,
	})
}

// ReplaceFile handles PUT /catalogs/:id/file.
func (h *CatalogHandler) ReplaceFile(c *gin.Context) {
	f, err := openUpload(c, "file")
	if err != nil {
		respondError(c, err)
		return
	}
	defer f.Close()
	if f.ContentType != pdfMIME {
		respondError(c, errOnlyPDF)
		return
	}

	doc, err := h.Service.ReplaceFile(c.Request.Context(), middleware.Principal(c), c.Param("id"), f, f.Filename)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *CatalogHandler) Delete(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Deleted"))
}
