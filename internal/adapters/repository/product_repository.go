package repository

import (
	"context"
	"time"

	"github.com/hasakeplay/cms-backend/internal/models"
	"github.com/hasakeplay/cms-backend/pkg/pagination"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	IndexNodeParentSlug = "uniq_parent_slug"
	IndexNodePath       = "uniq_path"
)

// NodeScope selects which part of the tree a listing covers.
type NodeScope int

const (
	ScopeAll NodeScope = iota
	ScopeRoot
	ScopeChildren
)

type NodeListQuery struct {
	Scope       NodeScope
	ParentID    primitive.ObjectID
	Type        models.NodeType
	IsPublished *bool
	Q           string
	Sort        string
	Page        pagination.Params
}

// LocalePatch sets and unsets dotted locale paths such as "title_i18n.en".
type LocalePatch struct {
	Set   map[string]string
	Unset []string
}

func (p LocalePatch) Empty() bool {
	return len(p.Set) == 0 && len(p.Unset) == 0
}

type ProductNodeRepository interface {
	Insert(ctx context.Context, node *models.ProductNode) error
	Replace(ctx context.Context, node *models.ProductNode) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.ProductNode, error)
	FindBySlug(ctx context.Context, slug string) (*models.ProductNode, error)
	FindByPath(ctx context.Context, path string) (*models.ProductNode, error)
	// SiblingSlugs lists slugs under parent (nil for roots) matching pattern,
	// ignoring excludeID when set.
	SiblingSlugs(ctx context.Context, parent *primitive.ObjectID, pattern string, excludeID *primitive.ObjectID) ([]string, error)
	Children(ctx context.Context, parentID primitive.ObjectID, sort string) ([]models.ProductNode, error)
	CountChildren(ctx context.Context, parentID primitive.ObjectID) (int64, error)
	UpdateLineage(ctx context.Context, id primitive.ObjectID, ancestors []models.AncestorRef, path string) error
	Delete(ctx context.Context, id primitive.ObjectID) (bool, error)
	DeleteSubtree(ctx context.Context, id primitive.ObjectID) (int64, error)
	List(ctx context.Context, q NodeListQuery) (models.Page[models.ProductNode], error)
	Search(ctx context.Context, text string, p pagination.Params) (models.Page[models.ProductNode], error)
	Each(ctx context.Context, fn func(*models.ProductNode) error) error
	PatchLocales(ctx context.Context, id primitive.ObjectID, patch LocalePatch) error
}

var (
	treeSortFields   = []string{"order", "title", "createdAt"}
	publicSortFields = []string{"order", "title", "createdAt"}
)

type MongoProductNodeRepository struct {
	collection *mongo.Collection
}

func NewProductNodeRepository(db *mongo.Database) ProductNodeRepository {
	return &MongoProductNodeRepository{collection: db.Collection(ProductNodesCollection)}
}

func (r *MongoProductNodeRepository) Insert(ctx context.Context, node *models.ProductNode) error {
	now := time.Now()
	node.CreatedAt = now
	node.UpdatedAt = now
	if node.ID.IsZero() {
		node.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, node)
	return translateWriteErr(err, IndexNodeParentSlug, IndexNodePath)
}

func (r *MongoProductNodeRepository) Replace(ctx context.Context, node *models.ProductNode) error {
	node.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": node.ID}, node)
	return translateWriteErr(err, IndexNodeParentSlug, IndexNodePath)
}

func (r *MongoProductNodeRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.ProductNode, error) {
	return findOne[models.ProductNode](ctx, r.collection, bson.M{"_id": id})
}

func (r *MongoProductNodeRepository) FindBySlug(ctx context.Context, slug string) (*models.ProductNode, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "path", Value: 1}})
	return findOne[models.ProductNode](ctx, r.collection, bson.M{"slug": slug}, opts)
}

func (r *MongoProductNodeRepository) FindByPath(ctx context.Context, path string) (*models.ProductNode, error) {
	return findOne[models.ProductNode](ctx, r.collection, bson.M{"path": path})
}

func (r *MongoProductNodeRepository) SiblingSlugs(ctx context.Context, parent *primitive.ObjectID, pattern string, excludeID *primitive.ObjectID) ([]string, error) {
	filter := bson.M{"parent": nil}
	if parent != nil {
		filter["parent"] = *parent
	}
	if excludeID != nil {
		filter["_id"] = bson.M{"$ne": *excludeID}
	}
	return slugsMatching(ctx, r.collection, filter, pattern)
}

func (r *MongoProductNodeRepository) Children(ctx context.Context, parentID primitive.ObjectID, sort string) ([]models.ProductNode, error) {
	opts := options.Find().SetSort(sortFrom(sort, treeSortFields, bson.D{{Key: "order", Value: 1}}))
	cursor, err := r.collection.Find(ctx, bson.M{"parent": parentID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	children := []models.ProductNode{}
	if err := cursor.All(ctx, &children); err != nil {
		return nil, err
	}
	return children, nil
}

func (r *MongoProductNodeRepository) CountChildren(ctx context.Context, parentID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"parent": parentID})
}

func (r *MongoProductNodeRepository) UpdateLineage(ctx context.Context, id primitive.ObjectID, ancestors []models.AncestorRef, path string) error {
	update := bson.M{"$set": bson.M{
		"ancestors": ancestors,
		"path":      path,
		"updatedAt": time.Now(),
	}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return translateWriteErr(err, IndexNodeParentSlug, IndexNodePath)
}

func (r *MongoProductNodeRepository) Delete(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoProductNodeRepository) DeleteSubtree(ctx context.Context, id primitive.ObjectID) (int64, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"_id": id},
		bson.M{"ancestors._id": id},
	}}
	res, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *MongoProductNodeRepository) List(ctx context.Context, q NodeListQuery) (models.Page[models.ProductNode], error) {
	filter := bson.M{}
	sort := sortFrom(q.Sort, treeSortFields, bson.D{{Key: "order", Value: 1}})

	switch q.Scope {
	case ScopeRoot:
		filter["parent"] = nil
	case ScopeChildren:
		filter["parent"] = q.ParentID
	default:
		sort = sortFrom(q.Sort, publicSortFields, bson.D{{Key: "createdAt", Value: -1}})
	}
	if q.Type != "" {
		filter["type"] = q.Type
	}
	if q.IsPublished != nil {
		filter["isPublished"] = *q.IsPublished
	}
	if q.Q != "" {
		filter["$or"] = containsAny(q.Q, "title", "slug", "title_i18n.vi", "title_i18n.en")
	}

	return findPage[models.ProductNode](ctx, r.collection, pageQuery{Filter: filter, Sort: sort}, q.Page)
}

func (r *MongoProductNodeRepository) Search(ctx context.Context, text string, p pagination.Params) (models.Page[models.ProductNode], error) {
	score := bson.M{"$meta": "textScore"}
	return findPage[models.ProductNode](ctx, r.collection, pageQuery{
		Filter:     bson.M{"$text": bson.M{"$search": text}},
		Sort:       bson.D{{Key: "score", Value: score}},
		Projection: bson.M{"score": score},
	}, p)
}

func (r *MongoProductNodeRepository) Each(ctx context.Context, fn func(*models.ProductNode) error) error {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var node models.ProductNode
		if err := cursor.Decode(&node); err != nil {
			return err
		}
		if err := fn(&node); err != nil {
			return err
		}
	}
	return cursor.Err()
}

func (r *MongoProductNodeRepository) PatchLocales(ctx context.Context, id primitive.ObjectID, patch LocalePatch) error {
	if patch.Empty() {
		return nil
	}
	update := bson.M{}
	if len(patch.Set) > 0 {
		set := bson.M{}
		for k, v := range patch.Set {
			set[k] = v
		}
		update["$set"] = set
	}
	if len(patch.Unset) > 0 {
		unset := bson.M{}
		for _, k := range patch.Unset {
			unset[k] = ""
		}
		update["$unset"] = unset
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}
