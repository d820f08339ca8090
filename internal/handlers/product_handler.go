package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hasakeplay/cms-backend/internal/middleware"
	"github.com/hasakeplay/cms-backend/internal/models"
	"github.com/hasakeplay/cms-backend/internal/services/product"
	"github.com/hasakeplay/cms-backend/pkg/localize"
	"github.com/hasakeplay/cms-backend/utils"
)

type ProductHandler struct {
	Service product.Service
}

func NewProductHandler(svc product.Service) *ProductHandler {
	return &ProductHandler{Service: svc}
}

func localizeNodes(p models.Page[models.ProductNode], locale localize.Locale) models.Page[models.ProductNode] {
	return models.MapPage(p, func(n models.ProductNode) models.ProductNode { return n.Localized(locale) })
}

func nodeType(c *gin.Context) models.NodeType {
	t := models.NodeType(c.Query("type"))
	if !t.Valid() {
		return ""
	}
	return t
}

func (h *ProductHandler) treeQuery(c *gin.Context) product.TreeQuery {
	return product.TreeQuery{
		Type:        nodeType(c),
		IsPublished: queryBool(c, "isPublished"),
		Sort:        c.DefaultQuery("sort", "order"),
		Page:        pageParams(c, product.DefaultTreeLimit),
	}
}

// ListRoot handles GET /products/root.
func (h *ProductHandler) ListRoot(c *gin.Context) {
	page, err := h.Service.ListRoot(c.Request.Context(), h.treeQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if wantsLocalizedTree(c) {
		page = localizeNodes(page, requestLocale(c))
	}
	c.JSON(http.StatusOK, page)
}

// ListChildren handles GET /products/children?path=|parentId=.
func (h *ProductHandler) ListChildren(c *gin.Context) {
	page, err := h.Service.ListChildren(c.Request.Context(), product.ChildrenQuery{
		Path:      c.Query("path"),
		ParentID:  c.Query("parentId"),
		TreeQuery: h.treeQuery(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if wantsLocalizedTree(c) {
		page = localizeNodes(page, requestLocale(c))
	}
	c.JSON(http.StatusOK, page)
}

// GetNode handles GET /products/node?path=.
func (h *ProductHandler) GetNode(c *gin.Context) {
	view, err := h.Service.NodeWithChildren(c.Request.Context(), c.Query("path"), c.DefaultQuery("sort", "order"))
	if err != nil {
		respondError(c, err)
		return
	}
	if wantsLocalizedTree(c) {
		locale := requestLocale(c)
		view.Node = view.Node.Localized(locale)
		for i := range view.Children {
			view.Children[i] = view.Children[i].Localized(locale)
		}
	}
	c.JSON(http.StatusOK, view)
}

// Search handles GET /products/search?q=.
func (h *ProductHandler) Search(c *gin.Context) {
	page, err := h.Service.Search(c.Request.Context(), c.Query("q"), pageParams(c, product.DefaultTreeLimit))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// List handles GET /products, the published listing.
func (h *ProductHandler) List(c *gin.Context) {
	page, err := h.Service.List(c.Request.Context(), product.ListQuery{
		Type: nodeType(c),
		Q:    c.Query("q"),
		Sort: c.DefaultQuery("sort", "-createdAt"),
		Page: pageParams(c, product.DefaultListLimit),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if wantsLocalized(c) {
		page = localizeNodes(page, requestLocale(c))
	}
	c.JSON(http.StatusOK, page)
}

// GetBySlug handles GET /products/:slug.
func (h *ProductHandler) GetBySlug(c *gin.Context) {
	node, err := h.Service.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	if wantsLocalized(c) {
		localized := node.Localized(requestLocale(c))
		node = &localized
	}
	c.JSON(http.StatusOK, node)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var in models.ProductNodeInput
	if !bindJSON(c, &in) {
		return
	}
	node, err := h.Service.Create(c.Request.Context(), middleware.Principal(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, node)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var patch models.ProductNodePatch
	if !bindJSON(c, &patch) {
		return
	}
	node, err := h.Service.Update(c.Request.Context(), middleware.Principal(c), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

// DeleteProduct handles DELETE /products/:id[?cascade=true].
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	cascade := queryBool(c, "cascade")
	n, err := h.Service.Delete(c.Request.Context(), c.Param("id"), cascade != nil && *cascade)
	if err != nil {
		respondError(c, err)
		return
	}
	res := utils.SuccessResponse("Deleted successfully")
	res["deleted"] = n
	c.JSON(http.StatusOK, res)
}

// RepairProduct handles POST /products/:id/repair.
func (h *ProductHandler) RepairProduct(c *gin.Context) {
	n, err := h.Service.Repair(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	res := utils.SuccessResponse("Subtree repaired")
	res["repaired"] = n
	c.JSON(http.StatusOK, res)
}
