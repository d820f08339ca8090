package repository

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type collectionIndexes struct {
	collection string
	models     []mongo.IndexModel
}

func indexPlan() []collectionIndexes {
	return []collectionIndexes{
		{ProductNodesCollection, []mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "title", Value: "text"},
					{Key: "description", Value: "text"},
					{Key: "tagline", Value: "text"},
					{Key: "title_i18n.vi", Value: "text"},
					{Key: "title_i18n.en", Value: "text"},
					{Key: "description_i18n.vi", Value: "text"},
					{Key: "description_i18n.en", Value: "text"},
					{Key: "tagline_i18n.vi", Value: "text"},
					{Key: "tagline_i18n.en", Value: "text"},
				},
				Options: options.Index().SetName("idx_node_text").SetDefaultLanguage("none"),
			},
			{
				Keys:    bson.D{{Key: "parent", Value: 1}, {Key: "order", Value: 1}},
				Options: options.Index().SetName("idx_parent_order"),
			},
			{
				Keys:    bson.D{{Key: "parent", Value: 1}, {Key: "slug", Value: 1}},
				Options: options.Index().SetName(IndexNodeParentSlug).SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "path", Value: 1}},
				Options: options.Index().SetName(IndexNodePath).SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "ancestors._id", Value: 1}},
				Options: options.Index().SetName("idx_ancestors"),
			},
		}},
		{CatalogsCollection, []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "slug", Value: 1}},
				Options: options.Index().SetName(IndexCatalogSlug).SetUnique(true),
			},
			{
				Keys: bson.D{
					{Key: "isPublished", Value: 1},
					{Key: "year", Value: -1},
					{Key: "createdAt", Value: -1},
				},
				Options: options.Index().SetName("idx_catalog_listing"),
			},
			{
				Keys:    bson.D{{Key: "title", Value: "text"}, {Key: "description", Value: "text"}},
				Options: options.Index().SetName("idx_catalog_text"),
			},
		}},
		{NewsCollection, []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "slug", Value: 1}},
				Options: options.Index().SetName(IndexNewsSlug).SetUnique(true),
			},
			{
				Keys: bson.D{
					{Key: "isPublished", Value: 1},
					{Key: "publishedAt", Value: -1},
					{Key: "createdAt", Value: -1},
				},
				Options: options.Index().SetName("idx_news_listing"),
			},
			{
				Keys: bson.D{
					{Key: "title", Value: "text"},
					{Key: "excerpt", Value: "text"},
					{Key: "content", Value: "text"},
					{Key: "title_i18n.vi", Value: "text"},
					{Key: "title_i18n.en", Value: "text"},
					{Key: "excerpt_i18n.vi", Value: "text"},
					{Key: "excerpt_i18n.en", Value: "text"},
					{Key: "content_i18n.vi", Value: "text"},
					{Key: "content_i18n.en", Value: "text"},
				},
				Options: options.Index().SetName("idx_news_text").SetDefaultLanguage("none"),
			},
		}},
		{ProjectsCollection, []mongo.IndexModel{
			{
				Keys: bson.D{{Key: "slug", Value: 1}},
				Options: options.Index().SetName(IndexProjectSlug).
					SetUnique(true).SetSparse(true).SetCollation(caseInsensitive),
			},
			{
				Keys: bson.D{
					{Key: "project", Value: 1},
					{Key: "client", Value: 1},
					{Key: "year", Value: 1},
				},
				Options: options.Index().SetName(IndexProjectIdentity).
					SetUnique(true).SetCollation(caseInsensitive),
			},
			{
				Keys: bson.D{
					{Key: "isPublished", Value: 1},
					{Key: "year", Value: -1},
					{Key: "createdAt", Value: -1},
				},
				Options: options.Index().SetName("idx_project_listing"),
			},
			{
				Keys: bson.D{
					{Key: "project", Value: "text"},
					{Key: "scope", Value: "text"},
					{Key: "client", Value: "text"},
				},
				Options: options.Index().SetName("idx_project_text"),
			},
		}},
		{ContactsCollection, []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("idx_contact_email"),
			},
			{
				Keys:    bson.D{{Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("idx_contact_created"),
			},
		}},
	}
}

// EnsureIndexes creates every index the stores rely on. Unique indexes back
// slug uniqueness, so a failure here is returned rather than logged away.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, plan := range indexPlan() {
		names, err := db.Collection(plan.collection).Indexes().CreateMany(ctx, plan.models)
		if err != nil {
			return fmt.Errorf("create indexes on %s: %w", plan.collection, err)
		}
		logrus.WithFields(logrus.Fields{
			"collection": plan.collection,
			"indexes":    names,
		}).Info("Indexes ensured")
	}
	return nil
}
