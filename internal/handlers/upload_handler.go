package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hasakeplay/cms-backend/internal/core/domain"
	"github.com/hasakeplay/cms-backend/internal/metrics"
	"github.com/hasakeplay/cms-backend/utils"
	"github.com/sirupsen/logrus"
)

const (
	uploadRoot    = "hasake"
	maxMultiFiles = 50
)

var (
	errUnsupportedType = domain.Validation("Unsupported file type. Only images, mp4, and pdf are allowed")
	errFileTooLarge    = domain.Validation("File too large (max 15MB)")
	errNoFile          = domain.Validation("No file uploaded")
)

var allowedTypes = map[string]string{
	"image/jpeg":      utils.ResourceImage,
	"image/png":       utils.ResourceImage,
	"image/webp":      utils.ResourceImage,
	"image/gif":       utils.ResourceImage,
	"video/mp4":       utils.ResourceVideo,
	"application/pdf": utils.ResourceRaw,
}

// uploadedFile is a multipart file whose type was sniffed from its content.
type uploadedFile struct {
	multipart.File
	Filename    string
	Size        int64
	ContentType string
}

// sniff opens fh and detects its type from the first 512 bytes; the
// declared Content-Type is never trusted.
func sniff(fh *multipart.FileHeader) (*uploadedFile, error) {
	if fh.Size > maxUploadSize {
		return nil, errFileTooLarge
	}
	file, err := fh.Open()
	if err != nil {
		return nil, domain.Internal("Failed to read file for validation", err)
	}
	buffer := make([]byte, 512)
	n, err := io.ReadFull(file, buffer)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		file.Close()
		return nil, domain.Internal("Failed to read file for validation", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, domain.Internal("Failed to read file for validation", err)
	}
	contentType := http.DetectContentType(buffer[:n])
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return &uploadedFile{File: file, Filename: fh.Filename, Size: fh.Size, ContentType: contentType}, nil
}

// openUpload reads the single file under field, capped at maxUploadSize.
func openUpload(c *gin.Context, field string) (*uploadedFile, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize+(1<<20))
	fh, err := c.FormFile(field)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, errFileTooLarge
		}
		return nil, errMissingFile
	}
	return sniff(fh)
}

type UploadHandler struct {
	Media utils.MediaStore
}

func NewUploadHandler(media utils.MediaStore) *UploadHandler {
	return &UploadHandler{Media: media}
}

type uploadResult struct {
	URL          string `json:"url"`
	PublicID     string `json:"publicId"`
	Bytes        int64  `json:"bytes"`
	ResourceType string `json:"resource_type"`
	Format       string `json:"format"`
	ContentType  string `json:"contentType"`
	ViewURL      string `json:"view_url"`
	DownloadURL  string `json:"download_url"`
}

func uploadFolder(c *gin.Context) string {
	hint := c.PostForm("folder")
	if hint == "" {
		hint = c.Query("folder")
	}
	return uploadRoot + "/" + utils.SanitizeFolder(hint)
}

func (h *UploadHandler) store(c *gin.Context, f *uploadedFile, folder string) (*uploadResult, error) {
	resourceType, ok := allowedTypes[f.ContentType]
	if !ok {
		return nil, errUnsupportedType
	}

	ext := filepath.Ext(f.Filename)
	publicID := utils.SanitizeName(strings.TrimSuffix(f.Filename, ext))
	if publicID == "" {
		// names made only of unsafe characters
		publicID = uuid.NewString()
	}
	opts := utils.UploadOptions{
		Folder:       folder,
		PublicID:     publicID,
		ResourceType: resourceType,
	}
	if resourceType == utils.ResourceRaw {
		opts.Format = "pdf"
	}

	asset, err := h.Media.Upload(c.Request.Context(), f, opts)
	if err != nil {
		metrics.MediaUploadsTotal.WithLabelValues(resourceType, "error").Inc()
		return nil, domain.Internal("Cloudinary upload failed", err)
	}
	metrics.MediaUploadsTotal.WithLabelValues(resourceType, "ok").Inc()

	name := asset.PublicID[strings.LastIndex(asset.PublicID, "/")+1:]
	if name == "" {
		name = "file"
	}
	if asset.Format != "" {
		name += "." + asset.Format
	}
	logrus.WithFields(logrus.Fields{"publicId": asset.PublicID, "bytes": asset.Bytes}).Info("Media uploaded")
	return &uploadResult{
		URL:          asset.URL,
		PublicID:     asset.PublicID,
		Bytes:        asset.Bytes,
		ResourceType: asset.ResourceType,
		Format:       asset.Format,
		ContentType:  f.ContentType,
		ViewURL:      utils.InlineURL(asset.URL),
		DownloadURL:  utils.AttachmentURL(asset.URL, name),
	}, nil
}

// Single handles POST /upload/single with the file under "file".
func (h *UploadHandler) Single(c *gin.Context) {
	f, err := openUpload(c, "file")
	if err != nil {
		if errors.Is(err, errMissingFile) {
			err = errNoFile
		}
		respondError(c, err)
		return
	}
	defer f.Close()

	res, err := h.store(c, f, uploadFolder(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Multi handles POST /upload/multi with up to 50 files under "files".
func (h *UploadHandler) Multi(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxMultiFiles*maxUploadSize)
	form, err := c.MultipartForm()
	if err != nil {
		respondError(c, errNoFile)
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		respondError(c, errNoFile)
		return
	}
	if len(headers) > maxMultiFiles {
		respondError(c, domain.Validation("Too many files (max 50)"))
		return
	}

	// validate everything before the first upload
	files := make([]*uploadedFile, 0, len(headers))
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()
	for _, fh := range headers {
		f, err := sniff(fh)
		if err != nil {
			respondError(c, err)
			return
		}
		files = append(files, f)
		if _, ok := allowedTypes[f.ContentType]; !ok {
			respondError(c, errUnsupportedType)
			return
		}
	}

	folder := uploadFolder(c)
	items := make([]*uploadResult, 0, len(files))
	for _, f := range files {
		res, err := h.store(c, f, folder)
		if err != nil {
			respondError(c, err)
			return
		}
		items = append(items, res)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
