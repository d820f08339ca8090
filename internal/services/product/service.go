package product

import (
	"context"
	"errors"
	"strings"

	"github.com/hasakeplay/cms-backend/internal/adapters/repository"
	"github.com/hasakeplay/cms-backend/internal/core/domain"
	"github.com/hasakeplay/cms-backend/internal/metrics"
	"github.com/hasakeplay/cms-backend/internal/models"
	"github.com/hasakeplay/cms-backend/pkg/localize"
	"github.com/hasakeplay/cms-backend/pkg/pagination"
	"github.com/hasakeplay/cms-backend/pkg/slug"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxWriteAttempts bounds how often a write is retried after losing a slug
// race on a unique index.
const MaxWriteAttempts = 5

const fallbackSlug = "node"

// Page sizes used when a query leaves the limit unset.
const (
	DefaultTreeLimit = 20
	DefaultListLimit = 12
)

var (
	ErrCycle       = domain.Validation("Cannot move a node under itself or its descendants")
	ErrHasChildren = domain.Conflict("Node has children; delete them first or pass cascade=true")
	ErrSlugTaken   = domain.Conflict("Slug is already taken, please retry")
	ErrMissingPath = domain.Validation("Missing 'path' query")
	errNotFound    = domain.NotFound("Node")
)

type TreeQuery struct {
	Type        models.NodeType
	IsPublished *bool
	Sort        string
	Page        pagination.Params
}

// ChildrenQuery selects a parent by path or by id; path wins when both are set.
type ChildrenQuery struct {
	Path     string
	ParentID string
	TreeQuery
}

type ListQuery struct {
	Type models.NodeType
	Q    string
	Sort string
	Page pagination.Params
}

type Service interface {
	Create(ctx context.Context, by domain.Principal, in models.ProductNodeInput) (*models.ProductNode, error)
	Update(ctx context.Context, by domain.Principal, id string, patch models.ProductNodePatch) (*models.ProductNode, error)
	Delete(ctx context.Context, id string, cascade bool) (int64, error)
	Repair(ctx context.Context, id string) (int, error)
	GetBySlug(ctx context.Context, slug string) (*models.ProductNode, error)
	ListRoot(ctx context.Context, q TreeQuery) (models.Page[models.ProductNode], error)
	ListChildren(ctx context.Context, q ChildrenQuery) (models.Page[models.ProductNode], error)
	NodeWithChildren(ctx context.Context, path, sort string) (*models.NodeView, error)
	Search(ctx context.Context, q string, p pagination.Params) (models.Page[models.ProductNode], error)
	List(ctx context.Context, q ListQuery) (models.Page[models.ProductNode], error)
	BackfillLocales(ctx context.Context, mode BackfillMode, dryRun bool) (BackfillReport, error)
}

type service struct {
	repo repository.ProductNodeRepository
}

func NewService(repo repository.ProductNodeRepository) Service {
	return &service{repo: repo}
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, domain.ErrInvalidID
	}
	return oid, nil
}

func (s *service) loadParent(ctx context.Context, raw string) (*models.ProductNode, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		return nil, domain.ErrParentNotFound
	}
	parent, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return nil, domain.Internal("Failed to load parent", err)
	}
	if parent == nil {
		return nil, domain.ErrParentNotFound
	}
	return parent, nil
}

// resolveSlug picks the first free variant of base among the children of
// parent, ignoring the node being updated.
func (s *service) resolveSlug(ctx context.Context, parent *models.ProductNode, base string, exclude *primitive.ObjectID) (string, error) {
	var parentID *primitive.ObjectID
	if parent != nil {
		parentID = &parent.ID
	}
	taken, err := s.repo.SiblingSlugs(ctx, parentID, slug.Pattern(base), exclude)
	if err != nil {
		return "", domain.Internal("Failed to resolve slug", err)
	}
	return slug.Next(base, taken), nil
}

// applyLineage derives ancestors and path from parent and the node's final slug.
func applyLineage(node *models.ProductNode, parent *models.ProductNode) {
	if parent == nil {
		node.Parent = nil
		node.Ancestors = []models.AncestorRef{}
		node.Path = node.Slug
		return
	}
	pid := parent.ID
	node.Parent = &pid
	node.Ancestors = make([]models.AncestorRef, 0, len(parent.Ancestors)+1)
	node.Ancestors = append(node.Ancestors, parent.Ancestors...)
	node.Ancestors = append(node.Ancestors, parent.Summary())
	node.Path = parent.Path + "/" + node.Slug
}

// seedVietnamese keeps title_i18n.vi populated from the plain title.
func seedVietnamese(t localize.Text, title string) localize.Text {
	if title == "" || t[string(localize.VI)] != "" {
		return t
	}
	out := localize.Text{}
	for k, v := range t {
		out[k] = v
	}
	out[string(localize.VI)] = title
	return out
}

// save resolves the slug, derives the lineage and writes the node, retrying
// while a concurrent writer keeps winning the unique index.
func (s *service) save(ctx context.Context, node *models.ProductNode, parent *models.ProductNode, base string, insert bool) error {
	var exclude *primitive.ObjectID
	if !insert {
		exclude = &node.ID
	}
	for attempt := 1; attempt <= MaxWriteAttempts; attempt++ {
		if base != "" {
			resolved, err := s.resolveSlug(ctx, parent, base, exclude)
			if err != nil {
				return err
			}
			node.Slug = resolved
		}
		applyLineage(node, parent)

		var err error
		if insert {
			err = s.repo.Insert(ctx, node)
		} else {
			err = s.repo.Replace(ctx, node)
		}
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateSlug) {
			return domain.Internal("Failed to save product", err)
		}
		metrics.SlugRetriesTotal.Inc()
		logrus.WithFields(logrus.Fields{
			"slug":    node.Slug,
			"attempt": attempt,
		}).Warn("Slug collision, resolving again")
		if base == "" {
			base = node.Slug
		}
	}
	return ErrSlugTaken
}

func (s *service) Create(ctx context.Context, by domain.Principal, in models.ProductNodeInput) (*models.ProductNode, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := models.Validate(in); err != nil {
		return nil, err
	}

	var parent *models.ProductNode
	if in.Parent != nil && strings.TrimSpace(*in.Parent) != "" {
		p, err := s.loadParent(ctx, *in.Parent)
		if err != nil {
			return nil, err
		}
		parent = p
	}

	node := &models.ProductNode{
		Title:           in.Title,
		TitleI18n:       seedVietnamese(localize.Lift(in.TitleI18n, in.Title), in.Title),
		TaglineI18n:     localize.Lift(in.TaglineI18n, in.Tagline),
		DescriptionI18n: localize.Lift(in.DescriptionI18n, in.Description),
		SlugI18n:        in.SlugI18n,
		Type:            in.Type,
		Tagline:         in.Tagline,
		Description:     in.Description,
		Thumbnail:       in.Thumbnail,
		Images:          in.Images,
		Specs:           in.Specs,
		Order:           in.Order,
		IsPublished:     true,
		UpdatedBy:       by.Email,
	}
	if node.Images == nil {
		node.Images = []models.Image{}
	}
	if in.IsPublished != nil {
		node.IsPublished = *in.IsPublished
	}

	source := in.Slug
	if strings.TrimSpace(source) == "" {
		source = in.Title
	}
	base := slug.OrDefault(slug.Make(source), fallbackSlug)

	if err := s.save(ctx, node, parent, base, true); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"id": node.ID.Hex(), "path": node.Path}).Info("Product node created")
	return node, nil
}

func (s *service) Update(ctx context.Context, by domain.Principal, id string, patch models.ProductNodePatch) (*models.ProductNode, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, domain.ErrNoFieldsToUpdate
	}
	node, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return nil, domain.Internal("Failed to load product", err)
	}
	if node == nil {
		return nil, errNotFound
	}
	before := *node

	// 1. Destination parent
	var parent *models.ProductNode
	switch {
	case patch.Parent.Set && (patch.Parent.Null || strings.TrimSpace(patch.Parent.Value) == ""):
		parent = nil
	case patch.Parent.Set:
		if parent, err = s.loadParent(ctx, patch.Parent.Value); err != nil {
			return nil, err
		}
		if parent.ID == node.ID || parent.HasAncestor(node.ID) {
			return nil, ErrCycle
		}
	case !node.IsRoot():
		if parent, err = s.loadParent(ctx, node.Parent.Hex()); err != nil {
			return nil, err
		}
	}

	// 2. Plain fields
	if err := applyPatch(node, patch); err != nil {
		return nil, err
	}
	node.UpdatedBy = by.Email

	// 3. Slug: explicit slug, then title change, then reparenting
	var base string
	switch {
	case patch.Slug.Set && strings.TrimSpace(patch.Slug.Value) != "":
		base = slug.OrDefault(slug.Make(patch.Slug.Value), fallbackSlug)
	case patch.Title.Set:
		base = slug.OrDefault(slug.Make(node.Title), fallbackSlug)
	case patch.Parent.Set:
		base = slug.OrDefault(slug.Make(before.Slug), fallbackSlug)
	}

	if err := s.save(ctx, node, parent, base, false); err != nil {
		return nil, err
	}

	// 4. Descendants carry this node's slug, title and lineage
	if node.Slug != before.Slug || node.Title != before.Title || node.Path != before.Path {
		repaired, err := s.repairFrom(ctx, node)
		if err != nil {
			return nil, err
		}
		if repaired > 0 {
			logrus.WithFields(logrus.Fields{"id": node.ID.Hex(), "descendants": repaired}).Info("Subtree repaired")
		}
	}
	return node, nil
}

func applyPatch(node *models.ProductNode, p models.ProductNodePatch) error {
	if p.Title.Set {
		title := strings.TrimSpace(p.Title.Value)
		if title == "" {
			return domain.Validation("title is required")
		}
		if len([]rune(title)) > 200 {
			return domain.Validation("title cannot exceed 200 characters")
		}
		node.Title = title
		if !p.TitleI18n.Set {
			node.TitleI18n = mergeLocale(node.TitleI18n, title)
		}
	}
	if p.Type.Set {
		if !p.Type.Value.Valid() {
			return domain.Validation("type must be one of: category group item")
		}
		node.Type = p.Type.Value
	}
	if p.TitleI18n.Set {
		node.TitleI18n = p.TitleI18n.Value
	}
	if p.TaglineI18n.Set {
		node.TaglineI18n = p.TaglineI18n.Value
	}
	if p.DescriptionI18n.Set {
		node.DescriptionI18n = p.DescriptionI18n.Value
	}
	if p.SlugI18n.Set {
		node.SlugI18n = p.SlugI18n.Value
	}
	if p.Tagline.Set {
		node.Tagline = p.Tagline.Value
		if !p.TaglineI18n.Set && p.Tagline.Value != "" {
			node.TaglineI18n = mergeLocale(node.TaglineI18n, p.Tagline.Value)
		}
	}
	if p.Description.Set {
		node.Description = p.Description.Value
		if !p.DescriptionI18n.Set && p.Description.Value != "" {
			node.DescriptionI18n = mergeLocale(node.DescriptionI18n, p.Description.Value)
		}
	}
	if p.Thumbnail.Set {
		node.Thumbnail = p.Thumbnail.Value
	}
	if p.Images.Set {
		node.Images = p.Images.Value
		if node.Images == nil {
			node.Images = []models.Image{}
		}
	}
	if p.Specs.Set {
		if p.Specs.Null {
			node.Specs = nil
		} else {
			specs := p.Specs.Value
			node.Specs = &specs
		}
	}
	if p.Order.Set {
		node.Order = p.Order.Value
	}
	if p.IsPublished.Set {
		node.IsPublished = p.IsPublished.Value
	}
	node.TitleI18n = seedVietnamese(node.TitleI18n, node.Title)
	return nil
}

// mergeLocale writes plain into the default locale, keeping other locales.
func mergeLocale(t localize.Text, plain string) localize.Text {
	out := localize.Text{}
	for k, v := range t {
		out[k] = v
	}
	out[string(localize.Default)] = plain
	return out
}

func (s *service) Delete(ctx context.Context, id string, cascade bool) (int64, error) {
	oid, err := parseID(id)
	if err != nil {
		return 0, err
	}
	node, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return 0, domain.Internal("Failed to load product", err)
	}
	if node == nil {
		return 0, errNotFound
	}

	children, err := s.repo.CountChildren(ctx, oid)
	if err != nil {
		return 0, domain.Internal("Failed to count children", err)
	}
	if children > 0 && !cascade {
		return 0, ErrHasChildren
	}
	if children > 0 {
		deleted, err := s.repo.DeleteSubtree(ctx, oid)
		if err != nil {
			return 0, domain.Internal("Failed to delete product", err)
		}
		logrus.WithFields(logrus.Fields{"id": id, "deleted": deleted}).Info("Product subtree deleted")
		return deleted, nil
	}

	ok, err := s.repo.Delete(ctx, oid)
	if err != nil {
		return 0, domain.Internal("Failed to delete product", err)
	}
	if !ok {
		return 0, errNotFound
	}
	return 1, nil
}

func (s *service) GetBySlug(ctx context.Context, slugValue string) (*models.ProductNode, error) {
	node, err := s.repo.FindBySlug(ctx, slugValue)
	if err != nil {
		return nil, domain.Internal("Failed to load product", err)
	}
	if node == nil {
		return nil, domain.NotFound("Product")
	}
	return node, nil
}

func (s *service) ListRoot(ctx context.Context, q TreeQuery) (models.Page[models.ProductNode], error) {
	q.Page = q.Page.WithDefaults(DefaultTreeLimit)
	page, err := s.repo.List(ctx, repository.NodeListQuery{
		Scope:       repository.ScopeRoot,
		Type:        q.Type,
		IsPublished: q.IsPublished,
		Sort:        q.Sort,
		Page:        q.Page,
	})
	if err != nil {
		return page, domain.Internal("Failed to list products", err)
	}
	return page, nil
}

func (s *service) ListChildren(ctx context.Context, q ChildrenQuery) (models.Page[models.ProductNode], error) {
	q.Page = q.Page.WithDefaults(DefaultTreeLimit)
	empty := models.Page[models.ProductNode]{Items: []models.ProductNode{}, Page: q.Page.Page, Limit: q.Page.Limit}

	var parentID primitive.ObjectID
	switch {
	case q.Path != "":
		parent, err := s.repo.FindByPath(ctx, q.Path)
		if err != nil {
			return empty, domain.Internal("Failed to load parent", err)
		}
		if parent == nil {
			return empty, nil
		}
		parentID = parent.ID
	case q.ParentID != "":
		oid, err := primitive.ObjectIDFromHex(q.ParentID)
		if err != nil {
			return empty, domain.Validation("Invalid parentId")
		}
		parentID = oid
	default:
		return empty, nil
	}

	page, err := s.repo.List(ctx, repository.NodeListQuery{
		Scope:       repository.ScopeChildren,
		ParentID:    parentID,
		Type:        q.Type,
		IsPublished: q.IsPublished,
		Sort:        q.Sort,
		Page:        q.Page,
	})
	if err != nil {
		return empty, domain.Internal("Failed to list products", err)
	}
	return page, nil
}

func (s *service) NodeWithChildren(ctx context.Context, path, sort string) (*models.NodeView, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrMissingPath
	}
	node, err := s.repo.FindByPath(ctx, path)
	if err != nil {
		return nil, domain.Internal("Failed to load node", err)
	}
	if node == nil {
		return nil, errNotFound
	}
	if sort != "-order" {
		sort = "order"
	}
	children, err := s.repo.Children(ctx, node.ID, sort)
	if err != nil {
		return nil, domain.Internal("Failed to load children", err)
	}

	crumbs := make([]models.Breadcrumb, 0, len(node.Ancestors)+1)
	for _, a := range node.Ancestors {
		crumbs = append(crumbs, models.Breadcrumb{Title: a.Title, Slug: a.Slug})
	}
	crumbs = append(crumbs, models.Breadcrumb{Title: node.Title, Slug: node.Slug})

	return &models.NodeView{Node: *node, Children: children, Breadcrumbs: crumbs}, nil
}

func (s *service) Search(ctx context.Context, q string, p pagination.Params) (models.Page[models.ProductNode], error) {
	q = strings.TrimSpace(q)
	p = p.WithDefaults(DefaultTreeLimit)
	if q == "" {
		return models.Page[models.ProductNode]{Items: []models.ProductNode{}, Page: p.Page, Limit: p.Limit}, nil
	}
	page, err := s.repo.Search(ctx, q, p)
	if err != nil {
		return page, domain.Internal("Failed to search products", err)
	}
	return page, nil
}

func (s *service) List(ctx context.Context, q ListQuery) (models.Page[models.ProductNode], error) {
	published := true
	q.Page = q.Page.WithDefaults(DefaultListLimit)
	if !q.Type.Valid() {
		q.Type = ""
	}
	page, err := s.repo.List(ctx, repository.NodeListQuery{
		Scope:       repository.ScopeAll,
		Type:        q.Type,
		IsPublished: &published,
		Q:           strings.TrimSpace(q.Q),
		Sort:        q.Sort,
		Page:        q.Page,
	})
	if err != nil {
		return page, domain.Internal("Failed to list products", err)
	}
	pages := q.Page.TotalPages(page.Total)
	page.TotalPages = &pages
	return page, nil
}
