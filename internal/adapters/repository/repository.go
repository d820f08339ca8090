package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/hasakeplay/cms-backend/internal/models"
	"github.com/hasakeplay/cms-backend/pkg/pagination"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

const (
	ProductNodesCollection = "productnodes"
	CatalogsCollection     = "catalogs"
	NewsCollection         = "news"
	ProjectsCollection     = "projects"
	ContactsCollection     = "contacts"
)

var (
	// ErrDuplicateSlug means a write lost a race on a slug-bearing unique index.
	ErrDuplicateSlug = errors.New("duplicate slug")
	// ErrDuplicate means a write violated some other unique index.
	ErrDuplicate = errors.New("duplicate key")
)

// caseInsensitive is the collation shared by project slug lookups and the
// project unique indexes.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

// translateWriteErr classifies duplicate-key failures by the index that
// rejected the write.
func translateWriteErr(err error, slugIndexes ...string) error {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return err
	}
	msg := err.Error()
	for _, idx := range slugIndexes {
		if strings.Contains(msg, idx) {
			return fmt.Errorf("%w: %v", ErrDuplicateSlug, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrDuplicate, err)
}

// sortFrom turns "field" / "-field" into a sort document. Fields outside
// allowed fall back to def.
func sortFrom(s string, allowed []string, def bson.D) bson.D {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	dir := 1
	field := s
	if strings.HasPrefix(s, "-") {
		dir = -1
		field = s[1:]
	}
	if !slices.Contains(allowed, field) {
		return def
	}
	return bson.D{{Key: field, Value: dir}}
}

// containsAny builds an $or of case-insensitive substring matches of q over
// fields. q is matched literally.
func containsAny(q string, fields ...string) bson.A {
	rx := bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
	or := make(bson.A, 0, len(fields))
	for _, f := range fields {
		or = append(or, bson.M{f: rx})
	}
	return or
}

type pageQuery struct {
	Filter     bson.M
	Sort       any
	Projection any
	Collation  *options.Collation
}

// findPage runs the page query and the total count concurrently.
func findPage[T any](ctx context.Context, coll *mongo.Collection, q pageQuery, p pagination.Params) (models.Page[T], error) {
	page := models.Page[T]{Page: p.Page, Limit: p.Limit, Items: []T{}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		opts := options.Find().
			SetSkip(p.Skip()).
			SetLimit(int64(p.Limit)).
			SetSort(q.Sort)
		if q.Projection != nil {
			opts.SetProjection(q.Projection)
		}
		if q.Collation != nil {
			opts.SetCollation(q.Collation)
		}
		cursor, err := coll.Find(gctx, q.Filter, opts)
		if err != nil {
			return err
		}
		defer cursor.Close(gctx)

		items := make([]T, 0, p.Limit)
		if err := cursor.All(gctx, &items); err != nil {
			return err
		}
		page.Items = items
		return nil
	})
	g.Go(func() error {
		opts := options.Count()
		if q.Collation != nil {
			opts.SetCollation(q.Collation)
		}
		total, err := coll.CountDocuments(gctx, q.Filter, opts)
		if err != nil {
			return err
		}
		page.Total = total
		return nil
	})

	if err := g.Wait(); err != nil {
		return models.Page[T]{}, err
	}
	return page, nil
}

// slugsMatching returns the slugs in filter's scope that match pattern.
func slugsMatching(ctx context.Context, coll *mongo.Collection, filter bson.M, pattern string) ([]string, error) {
	filter["slug"] = bson.M{"$regex": pattern, "$options": "i"}
	opts := options.Find().SetProjection(bson.M{"slug": 1})

	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		Slug string `bson:"slug"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(docs))
	for _, d := range docs {
		slugs = append(slugs, d.Slug)
	}
	return slugs, nil
}

// findOne decodes the first match into T, returning nil when nothing matches.
func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOneOptions) (*T, error) {
	var doc T
	err := coll.FindOne(ctx, filter, opts...).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}
