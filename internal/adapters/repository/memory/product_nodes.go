package memory

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hasakeplay/cms-backend/internal/adapters/repository"
	"github.com/hasakeplay/cms-backend/internal/models"
	"github.com/hasakeplay/cms-backend/pkg/pagination"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductNodes is an in-memory repository.ProductNodeRepository.
type ProductNodes struct {
	t *table[models.ProductNode]

	// BeforeWrite, when set, runs before each Insert or Replace is checked
	// against the unique constraints. Tests use it to simulate a concurrent
	// writer.
	BeforeWrite func(node *models.ProductNode)
}

var _ repository.ProductNodeRepository = (*ProductNodes)(nil)

func NewProductNodes() *ProductNodes {
	return &ProductNodes{t: newTable[models.ProductNode]()}
}

func sameParent(a, b *primitive.ObjectID) bool {
	if a == nil || a.IsZero() {
		return b == nil || b.IsZero()
	}
	return b != nil && *a == *b
}

func (s *ProductNodes) checkUnique(node *models.ProductNode) error {
	for id, other := range s.t.docs {
		if id == node.ID {
			continue
		}
		if sameParent(other.Parent, node.Parent) && other.Slug == node.Slug {
			return fmt.Errorf("%w: %s", repository.ErrDuplicateSlug, repository.IndexNodeParentSlug)
		}
		if other.Path == node.Path {
			return fmt.Errorf("%w: %s", repository.ErrDuplicateSlug, repository.IndexNodePath)
		}
	}
	return nil
}

func (s *ProductNodes) write(node *models.ProductNode) error {
	if s.BeforeWrite != nil {
		s.BeforeWrite(node)
	}
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	if err := s.checkUnique(node); err != nil {
		return err
	}
	s.t.put(node.ID, *node)
	return nil
}

func (s *ProductNodes) Insert(_ context.Context, node *models.ProductNode) error {
	now := time.Now()
	node.CreatedAt = now
	node.UpdatedAt = now
	if node.ID.IsZero() {
		node.ID = primitive.NewObjectID()
	}
	return s.write(node)
}

func (s *ProductNodes) Replace(_ context.Context, node *models.ProductNode) error {
	node.UpdatedAt = time.Now()
	return s.write(node)
}

func (s *ProductNodes) FindByID(_ context.Context, id primitive.ObjectID) (*models.ProductNode, error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()
	n, _ := s.t.get(id)
	return n, nil
}

func (s *ProductNodes) find(match func(models.ProductNode) bool) *models.ProductNode {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()
	var best *models.ProductNode
	for _, n := range s.t.all() {
		if !match(n) {
			continue
		}
		if best == nil || n.Path < best.Path {
			c := n
			best = &c
		}
	}
	return best
}

func (s *ProductNodes) FindBySlug(_ context.Context, slug string) (*models.ProductNode, error) {
	return s.find(func(n models.ProductNode) bool { return n.Slug == slug }), nil
}

func (s *ProductNodes) FindByPath(_ context.Context, path string) (*models.ProductNode, error) {
	return s.find(func(n models.ProductNode) bool { return n.Path == path }), nil
}

func (s *ProductNodes) SiblingSlugs(_ context.Context, parent *primitive.ObjectID, pattern string, excludeID *primitive.ObjectID) ([]string, error) {
	re, err := regexp.Compile(`(?i)` + pattern)
	if err != nil {
		return nil, err
	}
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()

	var slugs []string
	for _, n := range s.t.all() {
		if !sameParent(n.Parent, parent) {
			continue
		}
		if excludeID != nil && n.ID == *excludeID {
			continue
		}
		if re.MatchString(n.Slug) {
			slugs = append(slugs, n.Slug)
		}
	}
	return slugs, nil
}

var nodeSortFields = map[string]bool{"order": true, "title": true, "createdAt": true}

func compareNodes(a, b models.ProductNode, field string) int {
	switch field {
	case "order":
		return cmpInt(a.Order, b.Order)
	case "title":
		return cmpString(a.Title, b.Title)
	case "createdAt":
		return cmpTime(a.CreatedAt, b.CreatedAt)
	}
	return 0
}

func (s *ProductNodes) Children(_ context.Context, parentID primitive.ObjectID, sort string) ([]models.ProductNode, error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()

	children := []models.ProductNode{}
	for _, n := range s.t.all() {
		if n.Parent != nil && *n.Parent == parentID {
			children = append(children, n)
		}
	}
	sortBy(children, parseSort(sort, nodeSortFields, []sortKey{{field: "order"}}), compareNodes)
	return children, nil
}

func (s *ProductNodes) CountChildren(ctx context.Context, parentID primitive.ObjectID) (int64, error) {
	children, err := s.Children(ctx, parentID, "")
	return int64(len(children)), err
}

func (s *ProductNodes) UpdateLineage(_ context.Context, id primitive.ObjectID, ancestors []models.AncestorRef, path string) error {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()

	n, ok := s.t.get(id)
	if !ok {
		return nil
	}
	n.Ancestors = ancestors
	n.Path = path
	n.UpdatedAt = time.Now()
	if err := s.checkUnique(n); err != nil {
		return err
	}
	s.t.put(id, *n)
	return nil
}

func (s *ProductNodes) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	return s.t.remove(id), nil
}

func (s *ProductNodes) DeleteSubtree(_ context.Context, id primitive.ObjectID) (int64, error) {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()

	var deleted int64
	for _, n := range s.t.all() {
		if n.ID == id || n.HasAncestor(id) {
			if s.t.remove(n.ID) {
				deleted++
			}
		}
	}
	return deleted, nil
}

func (s *ProductNodes) List(_ context.Context, q repository.NodeListQuery) (models.Page[models.ProductNode], error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()

	keys := parseSort(q.Sort, nodeSortFields, []sortKey{{field: "order"}})
	var items []models.ProductNode
	for _, n := range s.t.all() {
		switch q.Scope {
		case repository.ScopeRoot:
			if !n.IsRoot() {
				continue
			}
		case repository.ScopeChildren:
			if n.Parent == nil || *n.Parent != q.ParentID {
				continue
			}
		}
		if q.Type != "" && n.Type != q.Type {
			continue
		}
		if q.IsPublished != nil && n.IsPublished != *q.IsPublished {
			continue
		}
		if q.Q != "" && !containsFold(n.Title, q.Q) && !containsFold(n.Slug, q.Q) &&
			!containsFold(n.TitleI18n["vi"], q.Q) && !containsFold(n.TitleI18n["en"], q.Q) {
			continue
		}
		items = append(items, n)
	}
	if q.Scope == repository.ScopeAll {
		keys = parseSort(q.Sort, nodeSortFields, []sortKey{{field: "createdAt", desc: true}})
	}
	sortBy(items, keys, compareNodes)
	return paginate(items, q.Page), nil
}

func (s *ProductNodes) Search(_ context.Context, text string, p pagination.Params) (models.Page[models.ProductNode], error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()

	terms := strings.Fields(strings.ToLower(text))
	var items []models.ProductNode
	for _, n := range s.t.all() {
		haystack := strings.ToLower(strings.Join([]string{
			n.Title, n.Description, n.Tagline,
			n.TitleI18n["vi"], n.TitleI18n["en"],
			n.DescriptionI18n["vi"], n.DescriptionI18n["en"],
			n.TaglineI18n["vi"], n.TaglineI18n["en"],
		}, " "))
		score := 0
		for _, term := range terms {
			score += strings.Count(haystack, term)
		}
		if score > 0 {
			n.Score = float64(score)
			items = append(items, n)
		}
	}
	sortBy(items, []sortKey{{field: "score", desc: true}}, func(a, b models.ProductNode, _ string) int {
		switch {
		case a.Score < b.Score:
			return -1
		case a.Score > b.Score:
			return 1
		}
		return 0
	})
	return paginate(items, p), nil
}

func (s *ProductNodes) Each(ctx context.Context, fn func(*models.ProductNode) error) error {
	s.t.mu.RLock()
	nodes := s.t.all()
	s.t.mu.RUnlock()

	for i := range nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(&nodes[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProductNodes) PatchLocales(_ context.Context, id primitive.ObjectID, patch repository.LocalePatch) error {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()

	n, ok := s.t.get(id)
	if !ok {
		return nil
	}
	fields := map[string]*map[string]string{
		"title_i18n":       (*map[string]string)(&n.TitleI18n),
		"tagline_i18n":     (*map[string]string)(&n.TaglineI18n),
		"description_i18n": (*map[string]string)(&n.DescriptionI18n),
		"slug_i18n":        (*map[string]string)(&n.SlugI18n),
	}
	for path, v := range patch.Set {
		field, locale, _ := strings.Cut(path, ".")
		m, ok := fields[field]
		if !ok {
			continue
		}
		if *m == nil {
			*m = map[string]string{}
		}
		(*m)[locale] = v
	}
	for _, path := range patch.Unset {
		field, locale, _ := strings.Cut(path, ".")
		if m, ok := fields[field]; ok && *m != nil {
			delete(*m, locale)
		}
	}
	s.t.put(id, *n)
	return nil
}
