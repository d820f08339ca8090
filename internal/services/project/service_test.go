package project

import (
	"context"
	"testing"

	"github.com/hasakeplay/cms-backend/internal/adapters/repository/memory"
	"github.com/hasakeplay/cms-backend/internal/core/domain"
	"github.com/hasakeplay/cms-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = domain.Principal{Subject: "admin", Email: "admin@hasake.vn", Role: domain.RoleAdmin}

func year(y int) *int { return &y }

func newTestService() (Service, *memory.Projects) {
	repo := memory.NewProjects()
	return NewService(repo), repo
}

func input(name, client string, y int) models.ProjectInput {
	return models.ProjectInput{Project: name, Scope: "Supply and install", Client: client, Year: year(y)}
}

func TestCreate(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	p, err := s.Create(ctx, admin, input("Hồ bơi Vinhomes", "Vingroup", 2023))
	require.NoError(t, err)
	assert.Equal(t, "ho-boi-vinhomes", p.Slug)
	assert.True(t, p.IsPublished)
	assert.NotNil(t, p.Images)

	// same name for another client gets a numbered slug
	other, err := s.Create(ctx, admin, input("Hồ bơi Vinhomes", "Sun Group", 2023))
	require.NoError(t, err)
	assert.Equal(t, "ho-boi-vinhomes-2", other.Slug)

	_, err = s.Create(ctx, admin, input("HỒ BƠI VINHOMES", "vingroup", 2023))
	assert.ErrorIs(t, err, ErrDuplicateProject)
}

func TestCreateValidation(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	_, err := s.Create(ctx, admin, models.ProjectInput{Project: "x", Scope: "y", Client: "z"})
	assert.ErrorContains(t, err, "project, scope, client, year are required")

	_, err = s.Create(ctx, admin, input("Old", "Client", 1850))
	assert.ErrorContains(t, err, "year must be >= 1900")

	_, err = s.Create(ctx, admin, input("Future", "Client", 2101))
	assert.ErrorContains(t, err, "year must be <= 2100")
}

func TestUpdateSlugRules(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	p, err := s.Create(ctx, admin, input("Gym Center", "ACME", 2022))
	require.NoError(t, err)

	up, err := s.Update(ctx, admin, p.ID.Hex(), models.ProjectPatch{Scope: models.Some("Design")})
	require.NoError(t, err)
	assert.Equal(t, "gym-center", up.Slug)

	up, err = s.Update(ctx, admin, p.ID.Hex(), models.ProjectPatch{Project: models.Some("Aqua Park")})
	require.NoError(t, err)
	assert.Equal(t, "aqua-park", up.Slug)

	up, err = s.Update(ctx, admin, p.ID.Hex(), models.ProjectPatch{Slug: models.Some("My Custom")})
	require.NoError(t, err)
	assert.Equal(t, "my-custom", up.Slug)

	up, err = s.Update(ctx, admin, p.ID.Hex(), models.ProjectPatch{Slug: models.Some("")})
	require.NoError(t, err)
	assert.Equal(t, "aqua-park", up.Slug)

	_, err = s.Update(ctx, admin, p.ID.Hex(), models.ProjectPatch{Year: models.Some(3000)})
	assert.ErrorContains(t, err, "year must be <= 2100")

	_, err = s.Update(ctx, admin, p.ID.Hex(), models.ProjectPatch{})
	assert.ErrorIs(t, err, domain.ErrNoFieldsToUpdate)
}

func TestLookups(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	draft := false

	in := input("Hidden", "ACME", 2021)
	in.IsPublished = &draft
	hidden, err := s.Create(ctx, admin, in)
	require.NoError(t, err)

	byID, err := s.GetByIDOrSlug(ctx, hidden.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, hidden.ID, byID.ID)

	bySlug, err := s.GetByIDOrSlug(ctx, "HIDDEN")
	require.NoError(t, err)
	assert.Equal(t, hidden.ID, bySlug.ID)

	_, err = s.GetPublishedBySlug(ctx, "hidden")
	assert.ErrorIs(t, err, errNotFound)

	_, err = s.GetPublishedBySlug(ctx, "  ")
	assert.ErrorIs(t, err, ErrMissingSlug)
}

func TestCheckAndPreviewSlug(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	p, err := s.Create(ctx, admin, input("Sky Bar", "ACME", 2024))
	require.NoError(t, err)

	res, err := s.CheckSlug(ctx, "Sky Bar", "")
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Equal(t, "sky-bar-2", res.Suggestion)

	res, err = s.CheckSlug(ctx, "sky-bar", p.ID.Hex())
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Equal(t, "sky-bar", res.Suggestion)

	_, err = s.CheckSlug(ctx, "", "")
	assert.ErrorIs(t, err, ErrMissingSlug)

	_, err = s.CheckSlug(ctx, "x", "bogus")
	assert.Error(t, err)

	prev, err := s.PreviewSlug(ctx, PreviewInput{Project: "Sky Bar"})
	require.NoError(t, err)
	assert.Equal(t, "Sky Bar", prev.Base)
	assert.Equal(t, "sky-bar", prev.Slug)
	assert.Equal(t, "sky-bar-2", prev.Unique)
	assert.False(t, prev.Available)
	assert.Nil(t, prev.ExcludeID)

	prev, err = s.PreviewSlug(ctx, PreviewInput{})
	require.NoError(t, err)
	assert.Equal(t, "project", prev.Unique)
}

func TestRegenerateAndBackfill(t *testing.T) {
	s, repo := newTestService()
	ctx := context.Background()

	legacy := []*models.Project{
		{Project: "Water Park", Client: "A", Year: 2019, Scope: "x"},
		{Project: "Water Park", Client: "B", Year: 2019, Scope: "x"},
	}
	for _, p := range legacy {
		require.NoError(t, repo.Insert(ctx, p))
	}

	dry, err := s.BackfillSlugs(ctx, true)
	require.NoError(t, err)
	assert.True(t, dry.DryRun)
	assert.Equal(t, 2, dry.TotalCandidates)
	assert.Zero(t, dry.Updated)
	require.Len(t, dry.Items, 2)
	assert.Equal(t, "water-park", dry.Items[0].To)

	report, err := s.BackfillSlugs(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, "water-park", report.Items[0].To)
	assert.Equal(t, "water-park-2", report.Items[1].To)

	again, err := s.BackfillSlugs(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, again.TotalCandidates)

	_, err = s.Update(ctx, admin, legacy[1].ID.Hex(), models.ProjectPatch{Slug: models.Some("Custom")})
	require.NoError(t, err)
	regen, err := s.RegenerateSlug(ctx, legacy[1].ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "water-park-2", regen.Slug)
}

func TestListAndDelete(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	a, err := s.Create(ctx, admin, input("A", "Vingroup", 2020))
	require.NoError(t, err)
	_, err = s.Create(ctx, admin, input("B", "Sun Group", 2021))
	require.NoError(t, err)

	page, err := s.List(ctx, Query{Client: "vin"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, DefaultLimit, page.Limit)

	page, err = s.List(ctx, Query{Year: year(2021)})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "B", page.Items[0].Project)

	require.NoError(t, s.Delete(ctx, a.ID.Hex()))
	assert.ErrorIs(t, s.Delete(ctx, a.ID.Hex()), errNotFound)
}
