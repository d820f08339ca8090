package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hasakeplay/cms-backend/internal/middleware"
	"github.com/hasakeplay/cms-backend/internal/models"
	"github.com/hasakeplay/cms-backend/internal/services/news"
	"github.com/hasakeplay/cms-backend/utils"
)

type NewsHandler struct {
	Service news.Service
}

func NewNewsHandler(svc news.Service) *NewsHandler {
	return &NewsHandler{Service: svc}
}

func (h *NewsHandler) list(c *gin.Context, includeUnpublished bool, defSort string) {
	page, err := h.Service.List(c.Request.Context(), news.Query{
		Q:                  c.Query("q"),
		IncludeUnpublished: includeUnpublished,
		Sort:               c.DefaultQuery("sort", defSort),
		Page:               pageParams(c, news.DefaultLimit),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if wantsLocalized(c) {
		locale := requestLocale(c)
		page = models.MapPage(page, func(n models.News) models.News { return n.Localized(locale) })
	}
	c.JSON(http.StatusOK, page)
}

// ListPublic handles GET /news.
func (h *NewsHandler) ListPublic(c *gin.Context) { h.list(c, false, "") }

// ListAdmin handles GET /news/list.
func (h *NewsHandler) ListAdmin(c *gin.Context) { h.list(c, true, "-createdAt") }

func (h *NewsHandler) GetBySlug(c *gin.Context) {
	doc, err := h.Service.GetPublished(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	if wantsLocalized(c) {
		localized := doc.Localized(requestLocale(c))
		doc = &localized
	}
	c.JSON(http.StatusOK, doc)
}

func (h *NewsHandler) Create(c *gin.Context) {
	var in models.NewsInput
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

func (h *NewsHandler) Update(c *gin.Context) {
	var patch models.NewsPatch
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

func (h *NewsHandler) Delete(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Deleted"))
}
