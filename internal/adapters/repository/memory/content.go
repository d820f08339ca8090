package memory

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hasakeplay/cms-backend/internal/adapters/repository"
	"github.com/hasakeplay/cms-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func slugsIn(slugs map[primitive.ObjectID]string, pattern string, excludeID *primitive.ObjectID) ([]string, error) {
	re, err := regexp.Compile(`(?i)` + pattern)
	if err != nil {
		return nil, err
	}
	var out []string
	for id, s := range slugs {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if s != "" && re.MatchString(s) {
			out = append(out, s)
		}
	}
	return out, nil
}

func stamp(id *primitive.ObjectID, created, updated *time.Time) {
	now := time.Now()
	*created = now
	*updated = now
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
}

// Catalogs is an in-memory repository.CatalogRepository.
type Catalogs struct {
	t *table[models.Catalog]
}

var _ repository.CatalogRepository = (*Catalogs)(nil)

func NewCatalogs() *Catalogs {
	return &Catalogs{t: newTable[models.Catalog]()}
}

func (s *Catalogs) write(c *models.Catalog) error {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	for id, other := range s.t.docs {
		if id != c.ID && other.Slug == c.Slug {
			return fmt.Errorf("%w: %s", repository.ErrDuplicateSlug, repository.IndexCatalogSlug)
		}
	}
	s.t.put(c.ID, *c)
	return nil
}

func (s *Catalogs) Insert(_ context.Context, c *models.Catalog) error {
	stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return s.write(c)
}

func (s *Catalogs) Replace(_ context.Context, c *models.Catalog) error {
	c.UpdatedAt = time.Now()
	return s.write(c)
}

func (s *Catalogs) FindByID(_ context.Context, id primitive.ObjectID) (*models.Catalog, error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()
	c, _ := s.t.get(id)
	return c, nil
}

func (s *Catalogs) FindBySlug(_ context.Context, slug string) (*models.Catalog, error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()
	for _, c := range s.t.all() {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Catalogs) SlugsMatching(_ context.Context, pattern string, excludeID *primitive.ObjectID) ([]string, error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()
	slugs := map[primitive.ObjectID]string{}
	for id, c := range s.t.docs {
		slugs[id] = c.Slug
	}
	return slugsIn(slugs, pattern, excludeID)
}

func (s *Catalogs) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	return s.t.remove(id), nil
}

var catalogSortFields = map[string]bool{"year": true, "createdAt": true, "updatedAt": true, "title": true}

func yearOf(y *int) int {
	if y == nil {
		return 0
	}
	return *y
}

func (s *Catalogs) List(_ context.Context, q repository.CatalogListQuery) (models.Page[models.Catalog], error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()

	var items []models.Catalog
	for _, c := range s.t.all() {
		if !q.IncludeUnpublished && !c.IsPublished {
			continue
		}
		if q.Year != nil && yearOf(c.Year) != *q.Year {
			continue
		}
		if q.Q != "" && !containsFold(c.Title, q.Q) && !containsFold(c.Description, q.Q) {
			continue
		}
		items = append(items, c)
	}
	keys := parseSort(q.Sort, catalogSortFields, []sortKey{{field: "year", desc: true}, {field: "createdAt", desc: true}})
	sortBy(items, keys, func(a, b models.Catalog, field string) int {
		switch field {
		case "year":
			return cmpInt(yearOf(a.Year), yearOf(b.Year))
		case "createdAt":
			return cmpTime(a.CreatedAt, b.CreatedAt)
		case "updatedAt":
			return cmpTime(a.UpdatedAt, b.UpdatedAt)
		case "title":
			return cmpString(a.Title, b.Title)
		}
		return 0
	})
	return paginate(items, q.Page), nil
}

// News is an in-memory repository.NewsRepository.
type News struct {
	t *table[models.News]
}

var _ repository.NewsRepository = (*News)(nil)

func NewNews() *News {
	return &News{t: newTable[models.News]()}
}

func (s *News) write(n *models.News) error {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	for id, other := range s.t.docs {
		if id != n.ID && other.Slug == n.Slug {
			return fmt.Errorf("%w: %s", repository.ErrDuplicateSlug, repository.IndexNewsSlug)
		}
	}
	s.t.put(n.ID, *n)
	return nil
}

func (s *News) Insert(_ context.Context, n *models.News) error {
	stamp(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	return s.write(n)
}

func (s *News) Replace(_ context.Context, n *models.News) error {
	n.UpdatedAt = time.Now()
	return s.write(n)
}

func (s *News) FindByID(_ context.Context, id primitive.ObjectID) (*models.News, error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()
	n, _ := s.t.get(id)
	return n, nil
}

func (s *News) FindBySlug(_ context.Context, slug string) (*models.News, error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()
	for _, n := range s.t.all() {
		if n.Slug == slug {
			return &n, nil
		}
	}
	return nil, nil
}

func (s *News) SlugsMatching(_ context.Context, pattern string, excludeID *primitive.ObjectID) ([]string, error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()
	slugs := map[primitive.ObjectID]string{}
	for id, n := range s.t.docs {
		slugs[id] = n.Slug
	}
	return slugsIn(slugs, pattern, excludeID)
}

func (s *News) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	return s.t.remove(id), nil
}

var newsSortFields = map[string]bool{"publishedAt": true, "createdAt": true, "updatedAt": true, "title": true}

func (s *News) List(_ context.Context, q repository.NewsListQuery) (models.Page[models.News], error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()

	var items []models.News
	for _, n := range s.t.all() {
		if !q.IncludeUnpublished && !n.IsPublished {
			continue
		}
		if q.Q != "" && !containsFold(n.Title, q.Q) && !containsFold(n.Excerpt, q.Q) && !containsFold(n.Content, q.Q) {
			continue
		}
		items = append(items, n)
	}
	keys := parseSort(q.Sort, newsSortFields, []sortKey{{field: "publishedAt", desc: true}, {field: "createdAt", desc: true}})
	sortBy(items, keys, func(a, b models.News, field string) int {
		switch field {
		case "publishedAt":
			return cmpTime(a.PublishedAt, b.PublishedAt)
		case "createdAt":
			return cmpTime(a.CreatedAt, b.CreatedAt)
		case "updatedAt":
			return cmpTime(a.UpdatedAt, b.UpdatedAt)
		case "title":
			return cmpString(a.Title, b.Title)
		}
		return 0
	})
	return paginate(items, q.Page), nil
}

// Projects is an in-memory repository.ProjectRepository. Slug and identity
// comparisons are case-insensitive like the Mongo collation.
type Projects struct {
	t *table[models.Project]
}

var _ repository.ProjectRepository = (*Projects)(nil)

func NewProjects() *Projects {
	return &Projects{t: newTable[models.Project]()}
}

func (s *Projects) write(p *models.Project) error {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	for id, other := range s.t.docs {
		if id == p.ID {
			continue
		}
		if p.Slug != "" && strings.EqualFold(other.Slug, p.Slug) {
			return fmt.Errorf("%w: %s", repository.ErrDuplicateSlug, repository.IndexProjectSlug)
		}
		if strings.EqualFold(other.Project, p.Project) && strings.EqualFold(other.Client, p.Client) && other.Year == p.Year {
			return fmt.Errorf("%w: %s", repository.ErrDuplicate, repository.IndexProjectIdentity)
		}
	}
	s.t.put(p.ID, *p)
	return nil
}

func (s *Projects) Insert(_ context.Context, p *models.Project) error {
	stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return s.write(p)
}

func (s *Projects) Replace(_ context.Context, p *models.Project) error {
	p.UpdatedAt = time.Now()
	return s.write(p)
}

func (s *Projects) FindByID(_ context.Context, id primitive.ObjectID) (*models.Project, error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()
	p, _ := s.t.get(id)
	return p, nil
}

func (s *Projects) FindBySlug(_ context.Context, slug string, publishedOnly bool) (*models.Project, error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()
	for _, p := range s.t.all() {
		if p.Slug != "" && strings.EqualFold(p.Slug, slug) && (!publishedOnly || p.IsPublished) {
			return &p, nil
		}
	}
	return nil, nil
}

func (s *Projects) SlugsMatching(_ context.Context, pattern string, excludeID *primitive.ObjectID) ([]string, error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()
	slugs := map[primitive.ObjectID]string{}
	for id, p := range s.t.docs {
		slugs[id] = p.Slug
	}
	return slugsIn(slugs, pattern, excludeID)
}

func (s *Projects) FindWithoutSlug(_ context.Context) ([]models.Project, error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()
	out := []models.Project{}
	for _, p := range s.t.all() {
		if p.Slug == "" {
			out = append(out, p)
		}
	}
	sortBy(out, []sortKey{{field: "createdAt"}}, func(a, b models.Project, _ string) int {
		return cmpTime(a.CreatedAt, b.CreatedAt)
	})
	return out, nil
}

func (s *Projects) Delete(_ context.Context, id primitive.ObjectID) (bool, error) {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	return s.t.remove(id), nil
}

var projectSortFields = map[string]bool{"year": true, "createdAt": true, "updatedAt": true, "project": true}

func (s *Projects) List(_ context.Context, q repository.ProjectListQuery) (models.Page[models.Project], error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()

	var items []models.Project
	for _, p := range s.t.all() {
		if !q.IncludeUnpublished && !p.IsPublished {
			continue
		}
		if q.Client != "" && !containsFold(p.Client, q.Client) {
			continue
		}
		if q.Year != nil && p.Year != *q.Year {
			continue
		}
		if q.Q != "" && !containsFold(p.Project, q.Q) && !containsFold(p.Scope, q.Q) && !containsFold(p.Client, q.Q) {
			continue
		}
		items = append(items, p)
	}
	keys := parseSort(q.Sort, projectSortFields, []sortKey{{field: "year", desc: true}, {field: "createdAt", desc: true}})
	sortBy(items, keys, func(a, b models.Project, field string) int {
		switch field {
		case "year":
			return cmpInt(a.Year, b.Year)
		case "createdAt":
			return cmpTime(a.CreatedAt, b.CreatedAt)
		case "updatedAt":
			return cmpTime(a.UpdatedAt, b.UpdatedAt)
		case "project":
			return cmpString(strings.ToLower(a.Project), strings.ToLower(b.Project))
		}
		return 0
	})
	return paginate(items, q.Page), nil
}

// Contacts is an in-memory repository.ContactRepository.
type Contacts struct {
	t *table[models.Contact]
}

var _ repository.ContactRepository = (*Contacts)(nil)

func NewContacts() *Contacts {
	return &Contacts{t: newTable[models.Contact]()}
}

func (s *Contacts) Insert(_ context.Context, c *models.Contact) error {
	stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	s.t.put(c.ID, *c)
	return nil
}

func (s *Contacts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Contact, error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()
	c, _ := s.t.get(id)
	return c, nil
}

func (s *Contacts) List(_ context.Context, q repository.ContactListQuery) (models.Page[models.Contact], error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()

	var items []models.Contact
	for _, c := range s.t.all() {
		if q.Q != "" {
			hit := false
			for _, f := range []string{c.FullName, c.Email, c.Organisation, c.Phone, c.Message, c.City, c.Country, c.Address} {
				if containsFold(f, q.Q) {
					hit = true
					break
				}
			}
			if !hit {
				continue
			}
		}
		if q.DateFrom != nil && c.CreatedAt.Before(*q.DateFrom) {
			continue
		}
		if q.DateTo != nil && c.CreatedAt.After(*q.DateTo) {
			continue
		}
		items = append(items, c)
	}
	sortBy(items, []sortKey{{field: "createdAt", desc: true}}, func(a, b models.Contact, _ string) int {
		return cmpTime(a.CreatedAt, b.CreatedAt)
	})
	return paginate(items, q.Page), nil
}
