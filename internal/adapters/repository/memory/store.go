// Package memory provides in-process implementations of the repository
// interfaces. They mirror the unique constraints of the Mongo indexes and are
// used by service and handler tests.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hasakeplay/cms-backend/internal/models"
	"github.com/hasakeplay/cms-backend/pkg/pagination"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// table keeps bson round-tripped copies so callers never share memory with
// stored documents.
type table[T any] struct {
	mu    sync.RWMutex
	docs  map[primitive.ObjectID]T
	order []primitive.ObjectID
}

func newTable[T any]() *table[T] {
	return &table[T]{docs: map[primitive.ObjectID]T{}}
}

func clone[T any](v T) T {
	raw, err := bson.Marshal(v)
	if err != nil {
		panic(err)
	}
	var out T
	if err := bson.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return out
}

func (t *table[T]) put(id primitive.ObjectID, v T) {
	if _, ok := t.docs[id]; !ok {
		t.order = append(t.order, id)
	}
	t.docs[id] = clone(v)
}

func (t *table[T]) get(id primitive.ObjectID) (*T, bool) {
	v, ok := t.docs[id]
	if !ok {
		return nil, false
	}
	c := clone(v)
	return &c, true
}

func (t *table[T]) remove(id primitive.ObjectID) bool {
	if _, ok := t.docs[id]; !ok {
		return false
	}
	delete(t.docs, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// all returns copies in insertion order.
func (t *table[T]) all() []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, clone(t.docs[id]))
	}
	return out
}

func paginate[T any](items []T, p pagination.Params) models.Page[T] {
	page := models.Page[T]{Total: int64(len(items)), Page: p.Page, Limit: p.Limit, Items: []T{}}
	start := int(p.Skip())
	if start >= len(items) {
		return page
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	page.Items = items[start:end]
	return page
}

// sortKey orders documents by one field, "-" prefix for descending.
type sortKey struct {
	field string
	desc  bool
}

func parseSort(s string, allowed map[string]bool, def []sortKey) []sortKey {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	desc := strings.HasPrefix(s, "-")
	field := strings.TrimPrefix(s, "-")
	if !allowed[field] {
		return def
	}
	return []sortKey{{field: field, desc: desc}}
}

// sortBy stably sorts items using cmp to compare a single field.
func sortBy[T any](items []T, keys []sortKey, cmp func(a, b T, field string) int) {
	sort.SliceStable(items, func(i, j int) bool {
		for _, k := range keys {
			c := cmp(items[i], items[j], k.field)
			if c == 0 {
				continue
			}
			if k.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func cmpString(a, b string) int {
	return strings.Compare(a, b)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpTime(a, b time.Time) int {
	return a.Compare(b)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
