package repository

import (
	"context"
	"regexp"
	"time"

	"github.com/hasakeplay/cms-backend/internal/models"
	"github.com/hasakeplay/cms-backend/pkg/pagination"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	IndexProjectSlug     = "uniq_project_slug"
	IndexProjectIdentity = "uniq_project_client_year"
)

type ProjectListQuery struct {
	Q                  string
	Client             string
	Year               *int
	IncludeUnpublished bool
	Sort               string
	Page               pagination.Params
}

type ProjectRepository interface {
	Insert(ctx context.Context, p *models.Project) error
	Replace(ctx context.Context, p *models.Project) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	// FindBySlug matches case-insensitively; publishedOnly hides drafts.
	FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Project, error)
	SlugsMatching(ctx context.Context, pattern string, excludeID *primitive.ObjectID) ([]string, error)
	FindWithoutSlug(ctx context.Context) ([]models.Project, error)
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	List(ctx context.Context, q ProjectListQuery) (models.Page[models.Project], error)
}

var projectSortFields = []string{"year", "createdAt", "updatedAt", "project"}

type MongoProjectRepository struct {
	collection *mongo.Collection
}

func NewProjectRepository(db *mongo.Database) ProjectRepository {
	return &MongoProjectRepository{collection: db.Collection(ProjectsCollection)}
}

func (r *MongoProjectRepository) Insert(ctx context.Context, p *models.Project) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, p)
	return translateWriteErr(err, IndexProjectSlug)
}

func (r *MongoProjectRepository) Replace(ctx context.Context, p *models.Project) error {
	p.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	return translateWriteErr(err, IndexProjectSlug)
}

func (r *MongoProjectRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	return findOne[models.Project](ctx, r.collection, bson.M{"_id": id})
}

func (r *MongoProjectRepository) FindBySlug(ctx context.Context, slug string, publishedOnly bool) (*models.Project, error) {
	filter := bson.M{"slug": slug}
	if publishedOnly {
		filter["isPublished"] = true
	}
	return findOne[models.Project](ctx, r.collection, filter, options.FindOne().SetCollation(caseInsensitive))
}

func (r *MongoProjectRepository) SlugsMatching(ctx context.Context, pattern string, excludeID *primitive.ObjectID) ([]string, error) {
	filter := bson.M{}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}
	return slugsMatching(ctx, r.collection, filter, pattern)
}

func (r *MongoProjectRepository) FindWithoutSlug(ctx context.Context) ([]models.Project, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"slug": bson.M{"$exists": false}},
		bson.M{"slug": nil},
		bson.M{"slug": ""},
	}}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	projects := []models.Project{}
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *MongoProjectRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoProjectRepository) List(ctx context.Context, q ProjectListQuery) (models.Page[models.Project], error) {
	filter := bson.M{}
	if !q.IncludeUnpublished {
		filter["isPublished"] = true
	}
	if q.Client != "" {
		filter["client"] = bson.M{"$regex": regexp.QuoteMeta(q.Client), "$options": "i"}
	}
	if q.Year != nil {
		filter["year"] = *q.Year
	}

	pq := pageQuery{
		Filter: filter,
		Sort: sortFrom(q.Sort, projectSortFields, bson.D{
			{Key: "year", Value: -1},
			{Key: "createdAt", Value: -1},
		}),
		Collation: caseInsensitive,
	}
	// text indexes only support the simple collation
	if q.Q != "" {
		filter["$text"] = bson.M{"$search": q.Q}
		pq.Collation = nil
	}
	return findPage[models.Project](ctx, r.collection, pq, q.Page)
}
