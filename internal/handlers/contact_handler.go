package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hasakeplay/cms-backend/internal/models"
	"github.com/hasakeplay/cms-backend/internal/services/contact"
	"github.com/hasakeplay/cms-backend/utils"
)

type ContactHandler struct {
	Service contact.Service
}

func NewContactHandler(svc contact.Service) *ContactHandler {
	return &ContactHandler{Service: svc}
}

// Submit handles the public POST /contacts.
func (h *ContactHandler) Submit(c *gin.Context) {
	var in models.ContactInput
	if !bindJSON(c, &in) {
		return
	}
	res, err := h.Service.Submit(c.Request.Context(), in)
	if res.Spam {
		c.JSON(http.StatusAccepted, utils.SuccessResponse("Accepted"))
		return
	}
	if err != nil {
		// with strict delivery a failed e-mail still leaves the record stored
		respondError(c, err)
		return
	}
	body := utils.SuccessResponse("Submitted")
	body["id"] = res.ID
	c.JSON(http.StatusCreated, body)
}

func (h *ContactHandler) List(c *gin.Context) {
	page, err := h.Service.List(c.Request.Context(), contact.Query{
		Q:        c.Query("q"),
		DateFrom: queryDate(c, "dateFrom"),
		DateTo:   queryDate(c, "dateTo"),
		Page:     pageParams(c, contact.DefaultLimit),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *ContactHandler) GetOne(c *gin.Context) {
	doc, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}
