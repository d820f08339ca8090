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

type ContactListQuery struct {
	Q        string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     pagination.Params
}

type ContactRepository interface {
	Insert(ctx context.Context, c *models.Contact) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Contact, error)
	List(ctx context.Context, q ContactListQuery) (models.Page[models.Contact], error)
}

type MongoContactRepository struct {
	collection *mongo.Collection
}

func NewContactRepository(db *mongo.Database) ContactRepository {
	return &MongoContactRepository{collection: db.Collection(ContactsCollection)}
}

func (r *MongoContactRepository) Insert(ctx context.Context, c *models.Contact) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, c)
	return err
}

func (r *MongoContactRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Contact, error) {
	return findOne[models.Contact](ctx, r.collection, bson.M{"_id": id})
}

func (r *MongoContactRepository) List(ctx context.Context, q ContactListQuery) (models.Page[models.Contact], error) {
	filter := bson.M{}
	if q.Q != "" {
		filter["$or"] = containsAny(q.Q,
			"fullName", "email", "organisation", "phone",
			"message", "city", "country", "address")
	}
	if q.DateFrom != nil || q.DateTo != nil {
		created := bson.M{}
		if q.DateFrom != nil {
			created["$gte"] = *q.DateFrom
		}
		if q.DateTo != nil {
			created["$lte"] = *q.DateTo
		}
		filter["createdAt"] = created
	}

	sort := bson.D{{Key: "createdAt", Value: -1}}
	return findPage[models.Contact](ctx, r.collection, pageQuery{Filter: filter, Sort: sort}, q.Page)
}
