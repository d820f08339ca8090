package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/hasakeplay/cms-backend/internal/core/domain"
	"github.com/hasakeplay/cms-backend/pkg/localize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestProductNodePatchPresence(t *testing.T) {
	var p ProductNodePatch
	require.NoError(t, json.Unmarshal([]byte(`{"parent": null, "order": 3}`), &p))

	assert.True(t, p.Parent.Set)
	assert.True(t, p.Parent.Null)
	assert.True(t, p.Order.Set)
	assert.Equal(t, 3, p.Order.Value)
	assert.False(t, p.Title.Set)
	assert.False(t, p.Empty())

	var empty ProductNodePatch
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	assert.True(t, empty.Empty())
}

func TestProductNodeLocalized(t *testing.T) {
	n := ProductNode{
		Title:     "Ghế",
		Slug:      "ghe",
		TitleI18n: localize.Text{"vi": "Ghế", "en": "Chair"},
		SlugI18n:  localize.Text{"vi": "ghe", "en": "chair"},
		Tagline:   "legacy tagline",
	}

	en := n.Localized(localize.EN)
	assert.Equal(t, "Chair", en.Title)
	assert.Equal(t, "chair", en.Slug)
	assert.Equal(t, "legacy tagline", en.Tagline)
	assert.Equal(t, "", en.Description)
	assert.Equal(t, "Ghế", n.Title, "receiver is not modified")

	viOnly := ProductNode{TitleI18n: localize.Text{"vi": "Ghế"}}
	assert.Equal(t, "Ghế", viOnly.Localized(localize.EN).Title)
}

func TestHasAncestor(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	n := ProductNode{Ancestors: []AncestorRef{{ID: a, Slug: "a", Title: "A"}}}
	assert.True(t, n.HasAncestor(a))
	assert.False(t, n.HasAncestor(b))
}

func TestValidateContactInput(t *testing.T) {
	valid := ContactInput{
		FullName: "Nguyen Van A",
		Email:    "a@example.com",
		Phone:    "+84901234567",
		Message:  "Hello",
		City:     "Hanoi",
		Country:  "Vietnam",
		Address:  "1 Trang Tien",
	}
	assert.NoError(t, Validate(&valid))

	tests := []struct {
		name   string
		mutate func(*ContactInput)
		msg    string
	}{
		{"missing name", func(c *ContactInput) { c.FullName = "" }, "fullName is required"},
		{"bad email", func(c *ContactInput) { c.Email = "nope" }, "Invalid email format"},
		{"bad phone", func(c *ContactInput) { c.Phone = "12-34" }, "Invalid phone number format"},
		{"missing city", func(c *ContactInput) { c.City = "" }, "city is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			err := Validate(&in)
			require.Error(t, err)
			var de *domain.Error
			require.True(t, errors.As(err, &de))
			assert.Equal(t, domain.KindValidation, de.Kind)
			assert.Equal(t, tc.msg, de.Message)
		})
	}
}

func TestValidateProjectYearBounds(t *testing.T) {
	year := 1800
	in := ProjectInput{Project: "P", Scope: "S", Client: "C", Year: &year}
	err := Validate(&in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "year must be >= 1900")
}

func TestContactHoneypot(t *testing.T) {
	assert.True(t, (&ContactInput{Website: "http://spam"}).IsSpam())
	assert.False(t, (&ContactInput{Website: "   "}).IsSpam())
}
