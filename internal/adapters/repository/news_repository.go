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

const IndexNewsSlug = "uniq_news_slug"

type NewsListQuery struct {
	Q                  string
	IncludeUnpublished bool
	Sort               string
	Page               pagination.Params
}

type NewsRepository interface {
	Insert(ctx context.Context, n *models.News) error
	Replace(ctx context.Context, n *models.News) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.News, error)
	FindBySlug(ctx context.Context, slug string) (*models.News, error)
	SlugsMatching(ctx context.Context, pattern string, excludeID *primitive.ObjectID) ([]string, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	List(ctx context.Context, q NewsListQuery) (models.Page[models.News], error)
}

var newsSortFields = []string{"publishedAt", "createdAt", "updatedAt", "title"}

type MongoNewsRepository struct {
	collection *mongo.Collection
}

func NewNewsRepository(db *mongo.Database) NewsRepository {
	return &MongoNewsRepository{collection: db.Collection(NewsCollection)}
}

func (r *MongoNewsRepository) Insert(ctx context.Context, n *models.News) error {
	now := time.Now()
	n.CreatedAt = now
	n.UpdatedAt = now
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, n)
	return translateWriteErr(err, IndexNewsSlug)
}

func (r *MongoNewsRepository) Replace(ctx context.Context, n *models.News) error {
	n.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": n.ID}, n)
	return translateWriteErr(err, IndexNewsSlug)
}

func (r *MongoNewsRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.News, error) {
	return findOne[models.News](ctx, r.collection, bson.M{"_id": id})
}

func (r *MongoNewsRepository) FindBySlug(ctx context.Context, slug string) (*models.News, error) {
	return findOne[models.News](ctx, r.collection, bson.M{"slug": slug})
}

func (r *MongoNewsRepository) SlugsMatching(ctx context.Context, pattern string, excludeID *primitive.ObjectID) ([]string, error) {
	filter := bson.M{}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}
	return slugsMatching(ctx, r.collection, filter, pattern)
}

func (r *MongoNewsRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoNewsRepository) List(ctx context.Context, q NewsListQuery) (models.Page[models.News], error) {
	filter := bson.M{}
	if !q.IncludeUnpublished {
		filter["isPublished"] = true
	}
	if q.Q != "" {
		filter["$text"] = bson.M{"$search": q.Q}
	}

	sort := sortFrom(q.Sort, newsSortFields, bson.D{
		{Key: "publishedAt", Value: -1},
		{Key: "createdAt", Value: -1},
	})
	return findPage[models.News](ctx, r.collection, pageQuery{Filter: filter, Sort: sort}, q.Page)
}
