package news

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hasakeplay/cms-backend/internal/adapters/repository"
	"github.com/hasakeplay/cms-backend/internal/core/domain"
	"github.com/hasakeplay/cms-backend/internal/models"
	"github.com/hasakeplay/cms-backend/internal/services/uniqueslug"
	"github.com/hasakeplay/cms-backend/pkg/localize"
	"github.com/hasakeplay/cms-backend/pkg/pagination"
	"github.com/hasakeplay/cms-backend/pkg/slug"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultLimit = 20
	fallbackSlug = "post"
)

var (
	errNotFound  = domain.NotFound("News")
	ErrSlugTaken = domain.Conflict("Slug is already taken, please retry")
)

type Query struct {
	Q                  string
	IncludeUnpublished bool
	Sort               string
	Page               pagination.Params
}

type Service interface {
	Create(ctx context.Context, by domain.Principal, in models.NewsInput) (*models.News, error)
	Update(ctx context.Context, by domain.Principal, id string, patch models.NewsPatch) (*models.News, error)
	Delete(ctx context.Context, id string) error
	GetPublished(ctx context.Context, slug string) (*models.News, error)
	List(ctx context.Context, q Query) (models.Page[models.News], error)
}

type service struct {
	repo repository.NewsRepository
	now  func() time.Time
}

func NewService(repo repository.NewsRepository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) lister(exclude *primitive.ObjectID) uniqueslug.Lister {
	return func(ctx context.Context, pattern string) ([]string, error) {
		return s.repo.SlugsMatching(ctx, pattern, exclude)
	}
}

func saveErr(err error, action string) error {
	if errors.Is(err, uniqueslug.ErrExhausted) || errors.Is(err, repository.ErrDuplicateSlug) {
		return ErrSlugTaken
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}
	return domain.Internal(action, err)
}

// mergeVI writes plain into the vi entry of t without dropping other locales.
func mergeVI(t localize.Text, plain string) localize.Text {
	if plain == "" {
		return t
	}
	out := localize.Text{}
	for k, v := range t {
		out[k] = v
	}
	out[string(localize.VI)] = plain
	return out
}

func (s *service) Create(ctx context.Context, by domain.Principal, in models.NewsInput) (*models.News, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if in.Title == "" || in.Content == "" {
		return nil, domain.Validation("title and content are required")
	}
	if err := models.Validate(in); err != nil {
		return nil, err
	}

	n := &models.News{
		Title:       in.Title,
		TitleI18n:   localize.Lift(in.TitleI18n, in.Title),
		Excerpt:     strings.TrimSpace(in.Excerpt),
		Content:     in.Content,
		ContentI18n: localize.Lift(in.ContentI18n, in.Content),
		Cover:       strings.TrimSpace(in.Cover),
		Images:      in.Images,
		Author:      strings.TrimSpace(in.Author),
		IsPublished: true,
		PublishedAt: s.now(),
		UpdatedBy:   by.Email,
	}
	n.ExcerptI18n = localize.Lift(in.ExcerptI18n, n.Excerpt)
	if n.Images == nil {
		n.Images = []models.Image{}
	}
	if in.IsPublished != nil {
		n.IsPublished = *in.IsPublished
	}
	if in.PublishedAt != nil && !in.PublishedAt.IsZero() {
		n.PublishedAt = *in.PublishedAt
	}

	source := in.Slug
	if strings.TrimSpace(source) == "" {
		source = in.Title
	}
	base := slug.OrDefault(slug.Make(source), fallbackSlug)
	err := uniqueslug.Save(ctx, base, s.lister(nil), func(sl string) error {
		n.Slug = sl
		return s.repo.Insert(ctx, n)
	})
	if err != nil {
		return nil, saveErr(err, "Create failed")
	}
	logrus.WithFields(logrus.Fields{"id": n.ID.Hex(), "slug": n.Slug}).Info("News created")
	return n, nil
}

func (s *service) load(ctx context.Context, id string) (*models.News, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	n, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return nil, domain.Internal("Failed to load news", err)
	}
	if n == nil {
		return nil, errNotFound
	}
	return n, nil
}

func (s *service) Update(ctx context.Context, by domain.Principal, id string, patch models.NewsPatch) (*models.News, error) {
	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, domain.ErrNoFieldsToUpdate
	}

	// 1. Locale maps first, so a plain value sent alongside wins for vi
	if patch.TitleI18n.Set {
		n.TitleI18n = patch.TitleI18n.Value
	}
	if patch.ExcerptI18n.Set {
		n.ExcerptI18n = patch.ExcerptI18n.Value
	}
	if patch.ContentI18n.Set {
		n.ContentI18n = patch.ContentI18n.Value
	}

	// 2. Plain fields
	if patch.Title.Set {
		n.Title = strings.TrimSpace(patch.Title.Value)
		if !patch.TitleI18n.Set {
			n.TitleI18n = mergeVI(n.TitleI18n, n.Title)
		}
	}
	if patch.Excerpt.Set {
		n.Excerpt = strings.TrimSpace(patch.Excerpt.Value)
		if !patch.ExcerptI18n.Set {
			n.ExcerptI18n = mergeVI(n.ExcerptI18n, n.Excerpt)
		}
	}
	if patch.Content.Set {
		n.Content = strings.TrimSpace(patch.Content.Value)
		if !patch.ContentI18n.Set {
			n.ContentI18n = mergeVI(n.ContentI18n, n.Content)
		}
	}
	if patch.Cover.Set {
		n.Cover = strings.TrimSpace(patch.Cover.Value)
	}
	if patch.Images.Set {
		n.Images = patch.Images.Value
		if n.Images == nil {
			n.Images = []models.Image{}
		}
	}
	if patch.Author.Set {
		n.Author = strings.TrimSpace(patch.Author.Value)
	}
	if patch.IsPublished.Set {
		n.IsPublished = patch.IsPublished.Value
	}
	if patch.PublishedAt.Set {
		if patch.PublishedAt.Null || patch.PublishedAt.Value.IsZero() {
			n.PublishedAt = s.now()
		} else {
			n.PublishedAt = patch.PublishedAt.Value
		}
	}
	n.UpdatedBy = by.Email

	if err := models.Validate(toInput(n)); err != nil {
		return nil, err
	}

	// 3. Slug: explicit value wins, otherwise a title change regenerates it
	var base string
	switch {
	case patch.Slug.Set && strings.TrimSpace(patch.Slug.Value) != "":
		base = slug.OrDefault(slug.Make(patch.Slug.Value), fallbackSlug)
	case !patch.Slug.Set && patch.Title.Set:
		base = slug.OrDefault(slug.Make(n.Title), fallbackSlug)
	}
	err = uniqueslug.Save(ctx, base, s.lister(&n.ID), func(sl string) error {
		if sl != "" {
			n.Slug = sl
		}
		return s.repo.Replace(ctx, n)
	})
	if err != nil {
		return nil, saveErr(err, "Update failed")
	}
	return n, nil
}

func toInput(n *models.News) models.NewsInput {
	return models.NewsInput{
		Title:   n.Title,
		Slug:    n.Slug,
		Excerpt: n.Excerpt,
		Content: n.Content,
		Images:  n.Images,
		Author:  n.Author,
	}
}

func (s *service) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrInvalidID
	}
	ok, err := s.repo.Delete(ctx, oid)
	if err != nil {
		return domain.Internal("Delete failed", err)
	}
	if !ok {
		return errNotFound
	}
	return nil
}

func (s *service) GetPublished(ctx context.Context, slugValue string) (*models.News, error) {
	n, err := s.repo.FindBySlug(ctx, slugValue)
	if err != nil {
		return nil, domain.Internal("Failed to load news", err)
	}
	if n == nil || !n.IsPublished {
		return nil, errNotFound
	}
	return n, nil
}

func (s *service) List(ctx context.Context, q Query) (models.Page[models.News], error) {
	page, err := s.repo.List(ctx, repository.NewsListQuery{
		Q:                  strings.TrimSpace(q.Q),
		IncludeUnpublished: q.IncludeUnpublished,
		Sort:               q.Sort,
		Page:               q.Page.WithDefaults(DefaultLimit),
	})
	if err != nil {
		return page, domain.Internal("Failed to list news", err)
	}
	return page, nil
}
