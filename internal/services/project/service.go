package project

import (
	"context"
	"errors"
	"strings"

	"github.com/hasakeplay/cms-backend/internal/adapters/repository"
	"github.com/hasakeplay/cms-backend/internal/core/domain"
	"github.com/hasakeplay/cms-backend/internal/models"
	"github.com/hasakeplay/cms-backend/internal/services/uniqueslug"
	"github.com/hasakeplay/cms-backend/pkg/pagination"
	"github.com/hasakeplay/cms-backend/pkg/slug"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultLimit = 20
	fallbackSlug = "project"
)

var (
	errNotFound         = domain.NotFound("Project")
	ErrSlugTaken        = domain.Conflict("Slug is already taken, please retry")
	ErrDuplicateProject = domain.Conflict("A project with the same name, client and year already exists")
	ErrMissingSlug      = domain.Validation("Missing slug")
	errInvalidExclude   = domain.Validation("Invalid excludeId")
)

type Query struct {
	Q                  string
	Client             string
	Year               *int
	IncludeUnpublished bool
	Sort               string
	Page               pagination.Params
}

// PreviewInput is what an editor has typed so far.
type PreviewInput struct {
	Input     string
	Project   string
	ExcludeID string
}

type Service interface {
	Create(ctx context.Context, by domain.Principal, in models.ProjectInput) (*models.Project, error)
	Update(ctx context.Context, by domain.Principal, id string, patch models.ProjectPatch) (*models.Project, error)
	Delete(ctx context.Context, id string) error
	GetByIDOrSlug(ctx context.Context, idOrSlug string) (*models.Project, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*models.Project, error)
	List(ctx context.Context, q Query) (models.Page[models.Project], error)
	CheckSlug(ctx context.Context, slug, excludeID string) (*models.SlugAvailability, error)
	PreviewSlug(ctx context.Context, in PreviewInput) (*models.SlugPreview, error)
	RegenerateSlug(ctx context.Context, id string) (*models.Project, error)
	BackfillSlugs(ctx context.Context, dryRun bool) (*models.SlugBackfillReport, error)
}

type service struct {
	repo repository.ProjectRepository
}

func NewService(repo repository.ProjectRepository) Service {
	return &service{repo: repo}
}

func (s *service) lister(exclude *primitive.ObjectID) uniqueslug.Lister {
	return func(ctx context.Context, pattern string) ([]string, error) {
		return s.repo.SlugsMatching(ctx, pattern, exclude)
	}
}

func baseSlug(source string) string {
	return slug.OrDefault(slug.Make(source), fallbackSlug)
}

func saveErr(err error, action string) error {
	switch {
	case errors.Is(err, uniqueslug.ErrExhausted), errors.Is(err, repository.ErrDuplicateSlug):
		return ErrSlugTaken
	case errors.Is(err, repository.ErrDuplicate):
		return ErrDuplicateProject
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return de
	}
	return domain.Internal(action, err)
}

func parseExclude(id string) (*primitive.ObjectID, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errInvalidExclude
	}
	return &oid, nil
}

func (s *service) Create(ctx context.Context, by domain.Principal, in models.ProjectInput) (*models.Project, error) {
	in.Project = strings.TrimSpace(in.Project)
	in.Scope = strings.TrimSpace(in.Scope)
	in.Client = strings.TrimSpace(in.Client)
	if in.Project == "" || in.Scope == "" || in.Client == "" || in.Year == nil {
		return nil, domain.Validation("project, scope, client, year are required")
	}
	if err := models.Validate(in); err != nil {
		return nil, err
	}

	p := &models.Project{
		Project:     in.Project,
		Scope:       in.Scope,
		Client:      in.Client,
		Year:        *in.Year,
		Images:      in.Images,
		IsPublished: true,
		UpdatedBy:   by.Email,
	}
	if p.Images == nil {
		p.Images = []models.Image{}
	}
	if in.IsPublished != nil {
		p.IsPublished = *in.IsPublished
	}

	source := in.Slug
	if strings.TrimSpace(source) == "" {
		source = in.Project
	}
	err := uniqueslug.Save(ctx, baseSlug(source), s.lister(nil), func(sl string) error {
		p.Slug = sl
		return s.repo.Insert(ctx, p)
	})
	if err != nil {
		return nil, saveErr(err, "Create failed")
	}
	logrus.WithFields(logrus.Fields{"id": p.ID.Hex(), "slug": p.Slug}).Info("Project created")
	return p, nil
}

func (s *service) load(ctx context.Context, id string) (*models.Project, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	p, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return nil, domain.Internal("Failed to load project", err)
	}
	if p == nil {
		return nil, errNotFound
	}
	return p, nil
}

func (s *service) Update(ctx context.Context, by domain.Principal, id string, patch models.ProjectPatch) (*models.Project, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, domain.ErrNoFieldsToUpdate
	}

	if patch.Project.Set {
		p.Project = strings.TrimSpace(patch.Project.Value)
	}
	if patch.Scope.Set {
		p.Scope = strings.TrimSpace(patch.Scope.Value)
	}
	if patch.Client.Set {
		p.Client = strings.TrimSpace(patch.Client.Value)
	}
	if patch.Year.Set {
		if patch.Year.Null {
			return nil, domain.Validation("year is required")
		}
		p.Year = patch.Year.Value
	}
	if patch.Images.Set {
		p.Images = patch.Images.Value
		if p.Images == nil {
			p.Images = []models.Image{}
		}
	}
	if patch.IsPublished.Set {
		p.IsPublished = patch.IsPublished.Value
	}
	p.UpdatedBy = by.Email

	year := p.Year
	if err := models.Validate(models.ProjectInput{
		Project: p.Project,
		Scope:   p.Scope,
		Client:  p.Client,
		Year:    &year,
		Images:  p.Images,
	}); err != nil {
		return nil, err
	}

	// 1. An explicit slug is normalised and made unique
	// 2. Otherwise a new project name regenerates it
	// 3. An empty slug, or a document that never had one, is rebuilt from the name
	var base string
	switch {
	case patch.Slug.Set && strings.TrimSpace(patch.Slug.Value) != "":
		base = baseSlug(patch.Slug.Value)
	case patch.Project.Set, patch.Slug.Set, p.Slug == "":
		base = baseSlug(p.Project)
	}
	err = uniqueslug.Save(ctx, base, s.lister(&p.ID), func(sl string) error {
		if sl != "" {
			p.Slug = sl
		}
		return s.repo.Replace(ctx, p)
	})
	if err != nil {
		return nil, saveErr(err, "Update failed")
	}
	return p, nil
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

func (s *service) GetByIDOrSlug(ctx context.Context, idOrSlug string) (*models.Project, error) {
	if oid, err := primitive.ObjectIDFromHex(idOrSlug); err == nil {
		p, err := s.repo.FindByID(ctx, oid)
		if err != nil {
			return nil, domain.Internal("Failed to load project", err)
		}
		if p != nil {
			return p, nil
		}
	}
	p, err := s.repo.FindBySlug(ctx, idOrSlug, false)
	if err != nil {
		return nil, domain.Internal("Failed to load project", err)
	}
	if p == nil {
		return nil, errNotFound
	}
	return p, nil
}

func (s *service) GetPublishedBySlug(ctx context.Context, slugValue string) (*models.Project, error) {
	slugValue = strings.TrimSpace(slugValue)
	if slugValue == "" {
		return nil, ErrMissingSlug
	}
	p, err := s.repo.FindBySlug(ctx, slugValue, true)
	if err != nil {
		return nil, domain.Internal("Failed to load project", err)
	}
	if p == nil {
		return nil, errNotFound
	}
	return p, nil
}

func (s *service) List(ctx context.Context, q Query) (models.Page[models.Project], error) {
	page, err := s.repo.List(ctx, repository.ProjectListQuery{
		Q:                  strings.TrimSpace(q.Q),
		Client:             strings.TrimSpace(q.Client),
		Year:               q.Year,
		IncludeUnpublished: q.IncludeUnpublished,
		Sort:               q.Sort,
		Page:               q.Page.WithDefaults(DefaultLimit),
	})
	if err != nil {
		return page, domain.Internal("Failed to list projects", err)
	}
	return page, nil
}

func (s *service) CheckSlug(ctx context.Context, raw, excludeID string) (*models.SlugAvailability, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrMissingSlug
	}
	exclude, err := parseExclude(excludeID)
	if err != nil {
		return nil, err
	}
	base := baseSlug(raw)
	unique, err := uniqueslug.Resolve(ctx, base, s.lister(exclude))
	if err != nil {
		return nil, domain.Internal("Failed to check slug", err)
	}
	return &models.SlugAvailability{Available: unique == base, Suggestion: unique}, nil
}

func (s *service) PreviewSlug(ctx context.Context, in PreviewInput) (*models.SlugPreview, error) {
	exclude, err := parseExclude(in.ExcludeID)
	if err != nil {
		return nil, err
	}
	source := strings.TrimSpace(in.Input)
	if source == "" {
		source = strings.TrimSpace(in.Project)
	}
	if source == "" {
		source = fallbackSlug
	}
	base := baseSlug(source)
	unique, err := uniqueslug.Resolve(ctx, base, s.lister(exclude))
	if err != nil {
		return nil, domain.Internal("Failed to preview slug", err)
	}

	preview := &models.SlugPreview{Base: source, Slug: base, Unique: unique, Available: base == unique}
	if exclude != nil {
		hex := exclude.Hex()
		preview.ExcludeID = &hex
	}
	return preview, nil
}

func (s *service) RegenerateSlug(ctx context.Context, id string) (*models.Project, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	err = uniqueslug.Save(ctx, baseSlug(p.Project), s.lister(&p.ID), func(sl string) error {
		p.Slug = sl
		return s.repo.Replace(ctx, p)
	})
	if err != nil {
		return nil, saveErr(err, "Regenerate failed")
	}
	return p, nil
}

// BackfillSlugs assigns slugs to projects that have none. With dryRun the
// planned changes are reported and nothing is written.
func (s *service) BackfillSlugs(ctx context.Context, dryRun bool) (*models.SlugBackfillReport, error) {
	candidates, err := s.repo.FindWithoutSlug(ctx)
	if err != nil {
		return nil, domain.Internal("Failed to load projects", err)
	}

	report := &models.SlugBackfillReport{DryRun: dryRun, TotalCandidates: len(candidates), Items: []models.SlugChange{}}
	for i := range candidates {
		p := &candidates[i]
		base := baseSlug(p.Project)

		if dryRun {
			to, err := uniqueslug.Resolve(ctx, base, s.lister(&p.ID))
			if err != nil {
				return nil, domain.Internal("Failed to resolve slug", err)
			}
			report.Items = append(report.Items, models.SlugChange{ID: p.ID.Hex(), To: to})
			continue
		}

		err := uniqueslug.Save(ctx, base, s.lister(&p.ID), func(sl string) error {
			p.Slug = sl
			return s.repo.Replace(ctx, p)
		})
		if err != nil {
			return nil, saveErr(err, "Backfill failed")
		}
		report.Items = append(report.Items, models.SlugChange{ID: p.ID.Hex(), To: p.Slug})
		report.Updated++
	}

	logrus.WithFields(logrus.Fields{
		"dryRun":     dryRun,
		"candidates": report.TotalCandidates,
		"updated":    report.Updated,
	}).Info("Project slug backfill finished")
	return report, nil
}
