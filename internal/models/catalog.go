package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PDFProvider string

const (
	ProviderExternal   PDFProvider = "external"
	ProviderCloudinary PDFProvider = "cloudinary"
	ProviderLocal      PDFProvider = "local"
)

type CatalogPDF struct {
	URL         string      `json:"url" bson:"url" validate:"required,url"`
	Provider    PDFProvider `json:"provider" bson:"provider" validate:"omitempty,oneof=external cloudinary local"`
	PublicID    string      `json:"publicId,omitempty" bson:"publicId,omitempty"`
	Bytes       int64       `json:"bytes,omitempty" bson:"bytes,omitempty"`
	ContentType string      `json:"contentType,omitempty" bson:"contentType,omitempty"`
}

// Hosted reports whether the file lives in our Cloudinary account.
func (p CatalogPDF) Hosted() bool {
	return p.Provider == ProviderCloudinary && p.PublicID != ""
}

type Catalog struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Slug        string             `json:"slug" bson:"slug"`
	Year        *int               `json:"year,omitempty" bson:"year,omitempty"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	PDF         CatalogPDF         `json:"pdf" bson:"pdf"`
	IsPublished bool               `json:"isPublished" bson:"isPublished"`
	UpdatedBy   string             `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type CatalogInput struct {
	Title       string      `json:"title" validate:"required,max=200"`
	Slug        string      `json:"slug" validate:"max=160"`
	Year        *int        `json:"year" validate:"omitempty,min=1900,max=2100"`
	Description string      `json:"description" validate:"max=500"`
	PDF         *CatalogPDF `json:"pdf" validate:"required"`
	IsPublished *bool       `json:"isPublished"`
}

type CatalogPatch struct {
	Title       Optional[string]     `json:"title"`
	Slug        Optional[string]     `json:"slug"`
	Year        Optional[int]        `json:"year"`
	Description Optional[string]     `json:"description"`
	PDF         Optional[CatalogPDF] `json:"pdf"`
	IsPublished Optional[bool]       `json:"isPublished"`
}

func (p *CatalogPatch) Empty() bool {
	return !(p.Title.Set || p.Slug.Set || p.Year.Set || p.Description.Set || p.PDF.Set || p.IsPublished.Set)
}
