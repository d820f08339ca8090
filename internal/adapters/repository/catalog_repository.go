package repository

import (
	"context"
	"time"

	"github.com/hasakeplay/cms-backend/internal/models"
	"github.com/hasakeplay/cms-backend/pkg/pagination"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const IndexCatalogSlug = "uniq_catalog_slug"

type CatalogListQuery struct {
	Q                  string
	Year               *int
	IncludeUnpublished bool
	Sort               string
	Page               pagination.Params
}

type CatalogRepository interface {
	Insert(ctx context.Context, c *models.Catalog) error
	Replace(ctx context.Context, c *models.Catalog) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Catalog, error)
	FindBySlug(ctx context.Context, slug string) (*models.Catalog, error)
	SlugsMatching(ctx context.Context, pattern string, excludeID *primitive.ObjectID) ([]string, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	List(ctx context.Context, q CatalogListQuery) (models.Page[models.Catalog], error)
}

var catalogSortFields = []string{"year", "createdAt", "updatedAt", "title"}

type MongoCatalogRepository struct {
	collection *mongo.Collection
}

func NewCatalogRepository(db *mongo.Database) CatalogRepository {
	return &MongoCatalogRepository{collection: db.Collection(CatalogsCollection)}
}

func (r *MongoCatalogRepository) Insert(ctx context.Context, c *models.Catalog) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, c)
	return translateWriteErr(err, IndexCatalogSlug)
}

func (r *MongoCatalogRepository) Replace(ctx context.Context, c *models.Catalog) error {
	c.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	return translateWriteErr(err, IndexCatalogSlug)
}

func (r *MongoCatalogRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Catalog, error) {
	return findOne[models.Catalog](ctx, r.collection, bson.M{"_id": id})
}

func (r *MongoCatalogRepository) FindBySlug(ctx context.Context, slug string) (*models.Catalog, error) {
	return findOne[models.Catalog](ctx, r.collection, bson.M{"slug": slug})
}

func (r *MongoCatalogRepository) SlugsMatching(ctx context.Context, pattern string, excludeID *primitive.ObjectID) ([]string, error) {
	filter := bson.M{}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}
	return slugsMatching(ctx, r.collection, filter, pattern)
}

func (r *MongoCatalogRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoCatalogRepository) List(ctx context.Context, q CatalogListQuery) (models.Page[models.Catalog], error) {
	filter := bson.M{}
	if !q.IncludeUnpublished {
		filter["isPublished"] = true
	}
	if q.Q != "" {
		filter["$text"] = bson.M{"$search": q.Q}
	}
	if q.Year != nil {
		filter["year"] = *q.Year
	}

	sort := sortFrom(q.Sort, catalogSortFields, bson.D{
		{Key: "year", Value: -1},
		{Key: "createdAt", Value: -1},
	})
	return findPage[models.Catalog](ctx, r.collection, pageQuery{Filter: filter, Sort: sort}, q.Page)
}
