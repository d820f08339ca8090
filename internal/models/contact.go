package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HoneypotField is the hidden form field real visitors leave empty.
const HoneypotField = "website"

type Contact struct {
	ID           primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	FullName     string             `json:"fullName" bson:"fullName"`
	Email        string             `json:"email" bson:"email"`
	Organisation string             `json:"organisation,omitempty" bson:"organisation,omitempty"`
	Phone        string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Message      string             `json:"message" bson:"message"`
	City         string             `json:"city" bson:"city"`
	Country      string             `json:"country" bson:"country"`
	Address      string             `json:"address" bson:"address"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type ContactInput struct {
	FullName     string `json:"fullName" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,contact_email"`
	Organisation string `json:"organisation" validate:"max=150"`
	Phone        string `json:"phone" validate:"omitempty,contact_phone"`
	Message      string `json:"message" validate:"required,max=1000"`
	City         string `json:"city" validate:"required,max=100"`
	Country      string `json:"country" validate:"required,max=100"`
	Address      string `json:"address" validate:"required,max=200"`
	Website      string `json:"website"`
}

// IsSpam reports whether the honeypot field was filled in.
func (in *ContactInput) IsSpam() bool {
	return strings.TrimSpace(in.Website) != ""
}
