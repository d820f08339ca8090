package models

import (
	"time"

	"github.com/hasakeplay/cms-backend/pkg/localize"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type News struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	TitleI18n   localize.Text      `json:"title_i18n,omitempty" bson:"title_i18n,omitempty"`
	Slug        string             `json:"slug" bson:"slug"`
	Excerpt     string             `json:"excerpt,omitempty" bson:"excerpt,omitempty"`
	ExcerptI18n localize.Text      `json:"excerpt_i18n,omitempty" bson:"excerpt_i18n,omitempty"`
	Content     string             `json:"content" bson:"content"`
	ContentI18n localize.Text      `json:"content_i18n,omitempty" bson:"content_i18n,omitempty"`
	Cover       string             `json:"cover,omitempty" bson:"cover,omitempty"`
	Images      []Image            `json:"images" bson:"images"`
	Author      string             `json:"author,omitempty" bson:"author,omitempty"`
	IsPublished bool               `json:"isPublished" bson:"isPublished"`
	PublishedAt time.Time          `json:"publishedAt" bson:"publishedAt"`
	UpdatedBy   string             `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

func (n News) Localized(locale localize.Locale) News {
	n.Title = localize.Pick(n.TitleI18n, locale, n.Title)
	n.Excerpt = localize.Pick(n.ExcerptI18n, locale, n.Excerpt)
	n.Content = localize.Pick(n.ContentI18n, locale, n.Content)
	return n
}

type NewsInput struct {
	Title       string        `json:"title" validate:"required,max=200"`
	TitleI18n   localize.Text `json:"title_i18n"`
	Slug        string        `json:"slug" validate:"max=160"`
	Excerpt     string        `json:"excerpt" validate:"max=500"`
	ExcerptI18n localize.Text `json:"excerpt_i18n"`
	Content     string        `json:"content" validate:"required,max=20000"`
	ContentI18n localize.Text `json:"content_i18n"`
	Cover       string        `json:"cover"`
	Images      []Image       `json:"images" validate:"dive"`
	Author      string        `json:"author" validate:"max=100"`
	IsPublished *bool         `json:"isPublished"`
	PublishedAt *time.Time    `json:"publishedAt"`
}

type NewsPatch struct {
	Title       Optional[string]        `json:"title"`
	TitleI18n   Optional[localize.Text] `json:"title_i18n"`
	Slug        Optional[string]        `json:"slug"`
	Excerpt     Optional[string]        `json:"excerpt"`
	ExcerptI18n Optional[localize.Text] `json:"excerpt_i18n"`
	Content     Optional[string]        `json:"content"`
	ContentI18n Optional[localize.Text] `json:"content_i18n"`
	Cover       Optional[string]        `json:"cover"`
	Images      Optional[[]Image]       `json:"images"`
	Author      Optional[string]        `json:"author"`
	IsPublished Optional[bool]          `json:"isPublished"`
	PublishedAt Optional[time.Time]     `json:"publishedAt"`
}

func (p *NewsPatch) Empty() bool {
	return !(p.Title.Set || p.TitleI18n.Set || p.Slug.Set || p.Excerpt.Set || p.ExcerptI18n.Set ||
		p.Content.Set || p.ContentI18n.Set || p.Cover.Set || p.Images.Set || p.Author.Set ||
		p.IsPublished.Set || p.PublishedAt.Set)
}
