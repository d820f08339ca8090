package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hasakeplay/cms-backend/internal/core/domain"
	"github.com/hasakeplay/cms-backend/pkg/localize"
	"github.com/hasakeplay/cms-backend/pkg/pagination"
	"github.com/hasakeplay/cms-backend/utils"
	"github.com/sirupsen/logrus"
)

const maxPageLimit = 100

// respondError maps a service error to its status and the shared error body.
// Internal causes are logged, never returned.
func respondError(c *gin.Context, err error) {
	de := domain.AsError(err)
	status := de.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"path":       c.Request.URL.Path,
			"request_id": c.GetString("requestId"),
		}).Error(de.Message)
		_ = c.Error(err)
	}
	c.JSON(status, utils.CodedErrorResponse(string(de.Kind), de.Message))
}

// bindJSON decodes the body and answers 400 on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		msg := "Invalid json body"
		if errors.Is(err, io.EOF) {
			msg = "Missing JSON body"
		}
		c.JSON(http.StatusBadRequest, utils.CodedErrorResponse(string(domain.KindValidation), msg))
		return false
	}
	return true
}

func pageParams(c *gin.Context, defLimit int) pagination.Params {
	return pagination.FromQuery(c.Query("page"), c.Query("limit"), defLimit, maxPageLimit)
}

// queryInt returns nil for a missing or non-numeric value.
func queryInt(c *gin.Context, key string) *int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

// queryBool returns nil unless the value is "true" or "false".
func queryBool(c *gin.Context, key string) *bool {
	switch strings.ToLower(c.Query(key)) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	}
	return nil
}

// queryDate accepts RFC 3339 timestamps and plain dates.
func queryDate(c *gin.Context, key string) *time.Time {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

func requestLocale(c *gin.Context) localize.Locale {
	return localize.FromRequest(c.Query("locale"), c.GetHeader("Accept-Language"))
}

// wantsLocalized reports whether a read should flatten locale maps. raw=1
// always returns stored documents.
func wantsLocalized(c *gin.Context) bool {
	c.Header("Vary", "Accept-Language")
	return !localize.Raw(c.Query("raw"))
}

// wantsLocalizedTree is the stricter rule of the tree reads: they flatten
// only when the caller names a locale or sends Accept-Language.
func wantsLocalizedTree(c *gin.Context) bool {
	if !wantsLocalized(c) {
		return false
	}
	return c.Query("locale") != "" || strings.TrimSpace(c.GetHeader("Accept-Language")) != ""
}
