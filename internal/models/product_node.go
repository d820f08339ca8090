package models

import (
	"time"

	"github.com/hasakeplay/cms-backend/pkg/localize"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NodeType string

const (
	NodeTypeCategory NodeType = "category"
	NodeTypeGroup    NodeType = "group"
	NodeTypeItem     NodeType = "item"
)

func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeCategory, NodeTypeGroup, NodeTypeItem:
		return true
	}
	return false
}

type Image struct {
	URL    string `json:"url" bson:"url" validate:"required"`
	Alt    string `json:"alt,omitempty" bson:"alt,omitempty"`
	Width  int    `json:"width,omitempty" bson:"width,omitempty"`
	Height int    `json:"height,omitempty" bson:"height,omitempty"`
}

type Specs struct {
	Material      string `json:"material,omitempty" bson:"material,omitempty"`
	DimensionsCM  string `json:"dimensions_cm,omitempty" bson:"dimensions_cm,omitempty"`
	UsableDepthCM string `json:"usable_depth_cm,omitempty" bson:"usable_depth_cm,omitempty"`
	WeightKG      string `json:"weight_kg,omitempty" bson:"weight_kg,omitempty"`
}

// AncestorRef is the denormalized summary of one ancestor, root first.
type AncestorRef struct {
	ID    primitive.ObjectID `json:"_id" bson:"_id"`
	Slug  string             `json:"slug" bson:"slug"`
	Title string             `json:"title" bson:"title"`
}

// ProductNode is one node of the product tree. Ancestors and Path are
// derived from Parent and Slug on every write.
type ProductNode struct {
	ID    primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Title string             `json:"title" bson:"title"`
	Slug  string             `json:"slug" bson:"slug"`

	TitleI18n       localize.Text `json:"title_i18n,omitempty" bson:"title_i18n,omitempty"`
	TaglineI18n     localize.Text `json:"tagline_i18n,omitempty" bson:"tagline_i18n,omitempty"`
	DescriptionI18n localize.Text `json:"description_i18n,omitempty" bson:"description_i18n,omitempty"`
	SlugI18n        localize.Text `json:"slug_i18n,omitempty" bson:"slug_i18n,omitempty"`

	Type      NodeType            `json:"type" bson:"type"`
	Parent    *primitive.ObjectID `json:"parent" bson:"parent"`
	Ancestors []AncestorRef       `json:"ancestors" bson:"ancestors"`
	Path      string              `json:"path" bson:"path"`

	Tagline     string  `json:"tagline,omitempty" bson:"tagline,omitempty"`
	Description string  `json:"description,omitempty" bson:"description,omitempty"`
	Thumbnail   string  `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`
	Images      []Image `json:"images" bson:"images"`
	Specs       *Specs  `json:"specs,omitempty" bson:"specs,omitempty"`
	Order       int     `json:"order" bson:"order"`
	IsPublished bool    `json:"isPublished" bson:"isPublished"`

	Score float64 `json:"score,omitempty" bson:"score,omitempty"`

	UpdatedBy string    `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Summary is the reference children store for this node.
func (n *ProductNode) Summary() AncestorRef {
	return AncestorRef{ID: n.ID, Slug: n.Slug, Title: n.Title}
}

// IsRoot reports whether the node has no parent.
func (n *ProductNode) IsRoot() bool {
	return n.Parent == nil || n.Parent.IsZero()
}

// HasAncestor reports whether id appears in the node's lineage.
func (n *ProductNode) HasAncestor(id primitive.ObjectID) bool {
	for _, a := range n.Ancestors {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Localized returns a copy with title, tagline, description and slug
// resolved for locale.
func (n ProductNode) Localized(locale localize.Locale) ProductNode {
	n.Title = localize.Pick(n.TitleI18n, locale, n.Title)
	n.Tagline = localize.Pick(n.TaglineI18n, locale, n.Tagline)
	n.Description = localize.Pick(n.DescriptionI18n, locale, n.Description)
	if len(n.SlugI18n) > 0 {
		n.Slug = localize.Pick(n.SlugI18n, locale, n.Slug)
	}
	return n
}

// Breadcrumb is one step of the trail from the root to a node.
type Breadcrumb struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// NodeView is a node with its direct children and breadcrumb trail.
type NodeView struct {
	Node        ProductNode   `json:"node"`
	Children    []ProductNode `json:"children"`
	Breadcrumbs []Breadcrumb  `json:"breadcrumbs"`
}

// ProductNodeInput is the body accepted when creating a node.
type ProductNodeInput struct {
	Title           string        `json:"title" validate:"required,max=200"`
	Slug            string        `json:"slug" validate:"max=160"`
	Type            NodeType      `json:"type" validate:"required,oneof=category group item"`
	Parent          *string       `json:"parent"`
	TitleI18n       localize.Text `json:"title_i18n"`
	TaglineI18n     localize.Text `json:"tagline_i18n"`
	DescriptionI18n localize.Text `json:"description_i18n"`
	SlugI18n        localize.Text `json:"slug_i18n"`
	Tagline         string        `json:"tagline" validate:"max=300"`
	Description     string        `json:"description" validate:"max=8000"`
	Thumbnail       string        `json:"thumbnail"`
	Images          []Image       `json:"images" validate:"dive"`
	Specs           *Specs        `json:"specs"`
	Order           int           `json:"order"`
	IsPublished     *bool         `json:"isPublished"`
}

// ProductNodePatch is the body accepted when updating a node. Only fields
// present in the JSON are applied; "parent": null moves the node to the root.
type ProductNodePatch struct {
	Title           Optional[string]        `json:"title"`
	Slug            Optional[string]        `json:"slug"`
	Type            Optional[NodeType]      `json:"type"`
	Parent          Optional[string]        `json:"parent"`
	TitleI18n       Optional[localize.Text] `json:"title_i18n"`
	TaglineI18n     Optional[localize.Text] `json:"tagline_i18n"`
	DescriptionI18n Optional[localize.Text] `json:"description_i18n"`
	SlugI18n        Optional[localize.Text] `json:"slug_i18n"`
	Tagline         Optional[string]        `json:"tagline"`
	Description     Optional[string]        `json:"description"`
	Thumbnail       Optional[string]        `json:"thumbnail"`
	Images          Optional[[]Image]       `json:"images"`
	Specs           Optional[Specs]         `json:"specs"`
	Order           Optional[int]           `json:"order"`
	IsPublished     Optional[bool]          `json:"isPublished"`
}

// Empty reports whether the patch carries no fields at all.
func (p *ProductNodePatch) Empty() bool {
	return !(p.Title.Set || p.Slug.Set || p.Type.Set || p.Parent.Set ||
		p.TitleI18n.Set || p.TaglineI18n.Set || p.DescriptionI18n.Set || p.SlugI18n.Set ||
		p.Tagline.Set || p.Description.Set || p.Thumbnail.Set || p.Images.Set ||
		p.Specs.Set || p.Order.Set || p.IsPublished.Set)
}
