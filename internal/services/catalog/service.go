package catalog

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/hasakeplay/cms-backend/internal/adapters/repository"
	"github.com/hasakeplay/cms-backend/internal/core/domain"
	"github.com/hasakeplay/cms-backend/internal/models"
	"github.com/hasakeplay/cms-backend/internal/services/uniqueslug"
	"github.com/hasakeplay/cms-backend/pkg/pagination"
	"github.com/hasakeplay/cms-backend/pkg/slug"
	"github.com/hasakeplay/cms-backend/utils"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultFolder = "hasake/catalogs"
	DefaultLimit  = 50
	pdfType       = "application/pdf"
	fallbackSlug  = "catalog"
)

var (
	errNotFound  = domain.NotFound("Catalog")
	ErrSlugTaken = domain.Conflict("Slug is already taken, please retry")
)

type Query struct {
	Q                  string
	Year               *int
	IncludeUnpublished bool
	Sort               string
	Page               pagination.Params
}

type Service interface {
	Create(ctx context.Context, by domain.Principal, in models.CatalogInput) (*models.Catalog, error)
	Update(ctx context.Context, by domain.Principal, id string, patch models.CatalogPatch) (*models.Catalog, error)
	Delete(ctx context.Context, id string) error
	UploadPDF(ctx context.Context, file io.Reader, filename string) (*models.CatalogPDF, error)
	ReplaceFile(ctx context.Context, by domain.Principal, id string, file io.Reader, filename string) (*models.Catalog, error)
	GetPublished(ctx context.Context, slug string) (*models.Catalog, error)
	OpenURL(ctx context.Context, slug string) (string, error)
	List(ctx context.Context, q Query) (models.Page[models.Catalog], error)
}

type service struct {
	repo   repository.CatalogRepository
	media  utils.MediaStore
	folder string
}

func NewService(repo repository.CatalogRepository, media utils.MediaStore, folder string) Service {
	if folder == "" {
		folder = DefaultFolder
	}
	return &service{repo: repo, media: media, folder: folder}
}

func (s *service) lister(exclude *primitive.ObjectID) uniqueslug.Lister {
	return func(ctx context.Context, pattern string) ([]string, error) {
		return s.repo.SlugsMatching(ctx, pattern, exclude)
	}
}

func saveErr(err error, action string) error {
	if errors.Is(err, uniqueslug.ErrExhausted) {
		return ErrSlugTaken
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}
	return domain.Internal(action, err)
}

func normalizePDF(pdf models.CatalogPDF) models.CatalogPDF {
	if pdf.Provider == "" {
		pdf.Provider = models.ProviderExternal
	}
	return pdf
}

func (s *service) Create(ctx context.Context, by domain.Principal, in models.CatalogInput) (*models.Catalog, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || in.PDF == nil {
		return nil, domain.Validation("title and pdf are required")
	}
	if err := models.Validate(in); err != nil {
		return nil, err
	}

	c := &models.Catalog{
		Title:       in.Title,
		Year:        in.Year,
		Description: strings.TrimSpace(in.Description),
		PDF:         normalizePDF(*in.PDF),
		IsPublished: true,
		UpdatedBy:   by.Email,
	}
	if in.IsPublished != nil {
		c.IsPublished = *in.IsPublished
	}

	source := in.Slug
	if strings.TrimSpace(source) == "" {
		source = in.Title
	}
	base := slug.OrDefault(slug.Make(source), fallbackSlug)

	err := uniqueslug.Save(ctx, base, s.lister(nil), func(sl string) error {
		c.Slug = sl
		return s.repo.Insert(ctx, c)
	})
	if err != nil {
		return nil, saveErr(err, "Create failed")
	}
	logrus.WithFields(logrus.Fields{"id": c.ID.Hex(), "slug": c.Slug}).Info("Catalog created")
	return c, nil
}

func (s *service) load(ctx context.Context, id string) (*models.Catalog, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	c, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return nil, domain.Internal("Failed to load catalog", err)
	}
	if c == nil {
		return nil, errNotFound
	}
	return c, nil
}

func (s *service) Update(ctx context.Context, by domain.Principal, id string, patch models.CatalogPatch) (*models.Catalog, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, domain.ErrNoFieldsToUpdate
	}

	if patch.Title.Set {
		title := strings.TrimSpace(patch.Title.Value)
		if title == "" {
			return nil, domain.Validation("title is required")
		}
		c.Title = title
	}
	if patch.Description.Set {
		c.Description = strings.TrimSpace(patch.Description.Value)
	}
	if patch.Year.Set {
		if patch.Year.Null {
			c.Year = nil
		} else {
			y := patch.Year.Value
			c.Year = &y
		}
	}
	if patch.IsPublished.Set {
		c.IsPublished = patch.IsPublished.Value
	}
	if patch.PDF.Set && !patch.PDF.Null {
		c.PDF = normalizePDF(patch.PDF.Value)
	}
	c.UpdatedBy = by.Email

	if err := models.Validate(toInput(c)); err != nil {
		return nil, err
	}

	var base string
	if patch.Slug.Set && strings.TrimSpace(patch.Slug.Value) != "" {
		base = slug.OrDefault(slug.Make(patch.Slug.Value), fallbackSlug)
	}
	err = uniqueslug.Save(ctx, base, s.lister(&c.ID), func(sl string) error {
		if sl != "" {
			c.Slug = sl
		}
		return s.repo.Replace(ctx, c)
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return nil, ErrSlugTaken
		}
		return nil, saveErr(err, "Update failed")
	}
	return c, nil
}

// toInput re-validates a patched document with the create rules.
func toInput(c *models.Catalog) models.CatalogInput {
	pdf := c.PDF
	return models.CatalogInput{
		Title:       c.Title,
		Slug:        c.Slug,
		Year:        c.Year,
		Description: c.Description,
		PDF:         &pdf,
	}
}

// destroyHosted removes a Cloudinary-hosted file; failures are only logged.
func (s *service) destroyHosted(ctx context.Context, pdf models.CatalogPDF) {
	if !pdf.Hosted() || !s.media.Configured() {
		return
	}
	if err := s.media.Destroy(ctx, pdf.PublicID, utils.ResourceRaw); err != nil {
		logrus.WithError(err).WithField("publicId", pdf.PublicID).Warn("Failed to destroy catalog file")
	}
}

func (s *service) Delete(ctx context.Context, id string) error {
	c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	s.destroyHosted(ctx, c.PDF)
	if _, err := s.repo.Delete(ctx, c.ID); err != nil {
		return domain.Internal("Delete failed", err)
	}
	return nil
}

func (s *service) UploadPDF(ctx context.Context, file io.Reader, filename string) (*models.CatalogPDF, error) {
	asset, err := s.media.Upload(ctx, file, utils.UploadOptions{
		Folder:           s.folder,
		ResourceType:     utils.ResourceRaw,
		FilenameOverride: filename,
		Overwrite:        true,
	})
	if err != nil {
		if errors.Is(err, utils.ErrMediaNotConfigured) {
			return nil, domain.Internal(err.Error(), err)
		}
		return nil, domain.Internal("Upload failed", err)
	}
	return &models.CatalogPDF{
		URL:         asset.URL,
		Provider:    models.ProviderCloudinary,
		PublicID:    asset.PublicID,
		Bytes:       asset.Bytes,
		ContentType: pdfType,
	}, nil
}

func (s *service) ReplaceFile(ctx context.Context, by domain.Principal, id string, file io.Reader, filename string) (*models.Catalog, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	pdf, err := s.UploadPDF(ctx, file, filename)
	if err != nil {
		return nil, err
	}

	previous := c.PDF
	c.PDF = *pdf
	c.UpdatedBy = by.Email
	if err := s.repo.Replace(ctx, c); err != nil {
		return nil, domain.Internal("Replace failed", err)
	}
	if previous.PublicID != pdf.PublicID {
		s.destroyHosted(ctx, previous)
	}
	return c, nil
}

func (s *service) GetPublished(ctx context.Context, slugValue string) (*models.Catalog, error) {
	c, err := s.repo.FindBySlug(ctx, slugValue)
	if err != nil {
		return nil, domain.Internal("Failed to load catalog", err)
	}
	if c == nil || !c.IsPublished {
		return nil, errNotFound
	}
	return c, nil
}

func (s *service) OpenURL(ctx context.Context, slugValue string) (string, error) {
	c, err := s.GetPublished(ctx, slugValue)
	if err != nil {
		return "", err
	}
	return c.PDF.URL, nil
}

func (s *service) List(ctx context.Context, q Query) (models.Page[models.Catalog], error) {
	page, err := s.repo.List(ctx, repository.CatalogListQuery{
		Q:                  strings.TrimSpace(q.Q),
		Year:               q.Year,
		IncludeUnpublished: q.IncludeUnpublished,
		Sort:               q.Sort,
		Page:               q.Page.WithDefaults(DefaultLimit),
	})
	if err != nil {
		return page, domain.Internal("Failed to list catalogs", err)
	}
	return page, nil
}
