package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Project struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Project     string             `json:"project" bson:"project"`
	Scope       string             `json:"scope" bson:"scope"`
	Client      string             `json:"client" bson:"client"`
	Year        int                `json:"year" bson:"year"`
	Slug        string             `json:"slug,omitempty" bson:"slug,omitempty"`
	Images      []Image            `json:"images" bson:"images"`
	IsPublished bool               `json:"isPublished" bson:"isPublished"`
	UpdatedBy   string             `json:"updatedBy,omitempty" bson:"updatedBy,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type ProjectInput struct {
	Project     string  `json:"project" validate:"required,max=200"`
	Scope       string  `json:"scope" validate:"required,max=400"`
	Client      string  `json:"client" validate:"required,max=200"`
	Year        *int    `json:"year" validate:"required,min=1900,max=2100"`
	Slug        string  `json:"slug" validate:"max=160"`
	Images      []Image `json:"images" validate:"dive"`
	IsPublished *bool   `json:"isPublished"`
}

type ProjectPatch struct {
	Project     Optional[string]  `json:"project"`
	Scope       Optional[string]  `json:"scope"`
	Client      Optional[string]  `json:"client"`
	Year        Optional[int]     `json:"year"`
	Slug        Optional[string]  `json:"slug"`
	Images      Optional[[]Image] `json:"images"`
	IsPublished Optional[bool]    `json:"isPublished"`
}

func (p *ProjectPatch) Empty() bool {
	return !(p.Project.Set || p.Scope.Set || p.Client.Set || p.Year.Set || p.Slug.Set || p.Images.Set || p.IsPublished.Set)
}

// SlugAvailability answers whether a project slug is free.
type SlugAvailability struct {
	Available  bool   `json:"available"`
	Suggestion string `json:"suggestion"`
}

// SlugPreview describes the slug a project title would receive.
type SlugPreview struct {
	Base      string  `json:"base"`
	Slug      string  `json:"slug"`
	Unique    string  `json:"unique"`
	Available bool    `json:"available"`
	ExcludeID *string `json:"excludeId"`
}

type SlugChange struct {
	ID   string  `json:"id"`
	From *string `json:"from"`
	To   string  `json:"to"`
}

type SlugBackfillReport struct {
	DryRun          bool         `json:"dryRun"`
	TotalCandidates int          `json:"totalCandidates"`
	Updated         int          `json:"updated"`
	Items           []SlugChange `json:"items"`
}
