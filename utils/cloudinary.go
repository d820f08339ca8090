package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Cloudinary resource types.
const (
	ResourceImage = "image"
	ResourceVideo = "video"
	ResourceRaw   = "raw"
)

const uploadTimeout = 60 * time.Second

var ErrMediaNotConfigured = errors.New("Cloudinary is not configured")

type UploadOptions struct {
	Folder           string
	PublicID         string
	ResourceType     string
	Format           string
	FilenameOverride string
	Overwrite        bool
}

// UploadedAsset is what the store reports back about a stored file.
type UploadedAsset struct {
	URL          string `json:"url"`
	PublicID     string `json:"publicId"`
	ResourceType string `json:"resource_type"`
	Format       string `json:"format"`
	Bytes        int64  `json:"bytes"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
}

// MediaStore stores binary assets and issues public URLs for them.
type MediaStore interface {
	Upload(ctx context.Context, file io.Reader, opts UploadOptions) (*UploadedAsset, error)
	Destroy(ctx context.Context, publicID, resourceType string) error
	Configured() bool
}

type CloudinaryStore struct {
	cld *cloudinary.Cloudinary
}

// NewMediaStore returns a Cloudinary-backed store, or a store that rejects
// every call when credentials are missing.
func NewMediaStore(cloudName, apiKey, apiSecret string) (MediaStore, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return unconfiguredStore{}, nil
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld}, nil
}

// Upload streams file to Cloudinary.
func (s *CloudinaryStore) Upload(ctx context.Context, file io.Reader, opts UploadOptions) (*UploadedAsset, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	overwrite := opts.Overwrite
	uniqueFilename := false
	params := uploader.UploadParams{
		PublicID:         opts.PublicID,
		Folder:           opts.Folder,
		ResourceType:     opts.ResourceType,
		Format:           opts.Format,
		FilenameOverride: opts.FilenameOverride,
		Overwrite:        &overwrite,
		UniqueFilename:   &uniqueFilename,
	}
	if opts.PublicID == "" {
		useFilename := opts.FilenameOverride != ""
		params.UseFilename = &useFilename
	}

	res, err := s.cld.Upload.Upload(ctx, file, params)
	if err != nil {
		return nil, err
	}
	if res.Error.Message != "" {
		return nil, errors.New(res.Error.Message)
	}
	return &UploadedAsset{
		URL:          res.SecureURL,
		PublicID:     res.PublicID,
		ResourceType: res.ResourceType,
		Format:       res.Format,
		Bytes:        int64(res.Bytes),
		Width:        res.Width,
		Height:       res.Height,
	}, nil
}

func (s *CloudinaryStore) Destroy(ctx context.Context, publicID, resourceType string) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
	})
	if err != nil {
		return err
	}
	if res.Error.Message != "" {
		return errors.New(res.Error.Message)
	}
	return nil
}

func (s *CloudinaryStore) Configured() bool { return true }

type unconfiguredStore struct{}

func (unconfiguredStore) Upload(context.Context, io.Reader, UploadOptions) (*UploadedAsset, error) {
	return nil, ErrMediaNotConfigured
}

func (unconfiguredStore) Destroy(context.Context, string, string) error {
	return ErrMediaNotConfigured
}

func (unconfiguredStore) Configured() bool { return false }

var (
	unsafeName   = regexp.MustCompile(`[^a-z0-9-_]`)
	whitespace   = regexp.MustCompile(`\s+`)
	unsafeFolder = regexp.MustCompile(`(?i)[^a-z0-9/_-]`)
)

// SanitizeName turns an original file name (without extension) into a
// public id segment.
func SanitizeName(name string) string {
	name = whitespace.ReplaceAllString(strings.ToLower(name), "-")
	return unsafeName.ReplaceAllString(name, "")
}

// SanitizeFolder strips traversal and unsafe characters from a client folder
// hint, defaulting to "uploads".
func SanitizeFolder(folder string) string {
	folder = strings.Trim(folder, "/")
	folder = strings.ReplaceAll(folder, "..", "")
	folder = unsafeFolder.ReplaceAllString(folder, "-")
	if folder == "" {
		return "uploads"
	}
	return folder
}

// InlineURL inserts the fl_inline flag after the "upload" path segment so
// browsers render the asset instead of downloading it.
func InlineURL(raw string) string {
	return withFlag(raw, "fl_inline", true)
}

// AttachmentURL inserts fl_attachment:<filename> so the asset downloads
// under filename.
func AttachmentURL(raw, filename string) string {
	return withFlag(raw, "fl_attachment:"+filename, false)
}

func withFlag(raw, flag string, once bool) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	var parts []string
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	for i, p := range parts {
		if p != "upload" {
			continue
		}
		if once && i+1 < len(parts) && parts[i+1] == flag {
			return raw
		}
		parts = append(parts[:i+1], append([]string{flag}, parts[i+1:]...)...)
		u.Path = "/" + strings.Join(parts, "/")
		u.RawPath = ""
		return u.String()
	}
	return raw
}
