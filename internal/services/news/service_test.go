package news

import (
	"context"
	"testing"
	"time"

	"github.com/hasakeplay/cms-backend/internal/adapters/repository/memory"
	"github.com/hasakeplay/cms-backend/internal/core/domain"
	"github.com/hasakeplay/cms-backend/internal/models"
	"github.com/hasakeplay/cms-backend/pkg/localize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = domain.Principal{Subject: "admin", Email: "admin@hasake.vn", Role: domain.RoleAdmin}

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestService() (*service, *memory.News) {
	repo := memory.NewNews()
	s := &service{repo: repo, now: func() time.Time { return fixedNow }}
	return s, repo
}

func TestCreateLiftsPlainText(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	n, err := s.Create(ctx, admin, models.NewsInput{
		Title:   "Khai trương showroom",
		Excerpt: "Tin mới",
		Content: "Nội dung",
	})
	require.NoError(t, err)

	assert.Equal(t, "khai-truong-showroom", n.Slug)
	assert.Equal(t, localize.Text{"vi": "Khai trương showroom"}, n.TitleI18n)
	assert.Equal(t, localize.Text{"vi": "Tin mới"}, n.ExcerptI18n)
	assert.Equal(t, localize.Text{"vi": "Nội dung"}, n.ContentI18n)
	assert.True(t, n.IsPublished)
	assert.True(t, n.PublishedAt.Equal(fixedNow))
	assert.NotNil(t, n.Images)
}

func TestCreateKeepsGivenLocales(t *testing.T) {
	s, _ := newTestService()
	draft := false
	when := time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC)

	n, err := s.Create(context.Background(), admin, models.NewsInput{
		Title:       "Opening",
		TitleI18n:   localize.Text{"vi": "Khai trương", "en": "Opening"},
		Content:     "Body",
		IsPublished: &draft,
		PublishedAt: &when,
	})
	require.NoError(t, err)
	assert.Equal(t, "Khai trương", n.TitleI18n["vi"])
	assert.False(t, n.IsPublished)
	assert.True(t, n.PublishedAt.Equal(when))
}

func TestCreateRequiresTitleAndContent(t *testing.T) {
	s, _ := newTestService()
	_, err := s.Create(context.Background(), admin, models.NewsInput{Title: "Only title"})
	assert.ErrorContains(t, err, "title and content are required")
}

func TestCreateSlugCollisions(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	var slugs []string
	for i := 0; i < 3; i++ {
		n, err := s.Create(ctx, admin, models.NewsInput{Title: "Hello", Content: "x"})
		require.NoError(t, err)
		slugs = append(slugs, n.Slug)
	}
	assert.Equal(t, []string{"hello", "hello-2", "hello-3"}, slugs)

	n, err := s.Create(ctx, admin, models.NewsInput{Title: "???", Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, "post", n.Slug)
}

func TestUpdateSlugRules(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	n, err := s.Create(ctx, admin, models.NewsInput{
		Title:     "First",
		TitleI18n: localize.Text{"vi": "Đầu tiên", "en": "First"},
		Content:   "x",
	})
	require.NoError(t, err)

	// title change regenerates the slug and only touches vi
	up, err := s.Update(ctx, admin, n.ID.Hex(), models.NewsPatch{Title: models.Some("Second Post")})
	require.NoError(t, err)
	assert.Equal(t, "second-post", up.Slug)
	assert.Equal(t, localize.Text{"vi": "Second Post", "en": "First"}, up.TitleI18n)

	// explicit slug wins over the title
	up, err = s.Update(ctx, admin, n.ID.Hex(), models.NewsPatch{
		Title: models.Some("Third"),
		Slug:  models.Some("Custom Slug"),
	})
	require.NoError(t, err)
	assert.Equal(t, "custom-slug", up.Slug)

	// an empty slug keeps the current one even when the title changes
	up, err = s.Update(ctx, admin, n.ID.Hex(), models.NewsPatch{
		Title: models.Some("Fourth"),
		Slug:  models.Some(""),
	})
	require.NoError(t, err)
	assert.Equal(t, "custom-slug", up.Slug)

	// no slug-relevant field leaves it alone
	up, err = s.Update(ctx, admin, n.ID.Hex(), models.NewsPatch{Author: models.Some("Editor")})
	require.NoError(t, err)
	assert.Equal(t, "custom-slug", up.Slug)
	assert.Equal(t, "Editor", up.Author)
}

func TestUpdateErrors(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	n, err := s.Create(ctx, admin, models.NewsInput{Title: "A", Content: "x"})
	require.NoError(t, err)

	_, err = s.Update(ctx, admin, n.ID.Hex(), models.NewsPatch{})
	assert.ErrorIs(t, err, domain.ErrNoFieldsToUpdate)

	_, err = s.Update(ctx, admin, n.ID.Hex(), models.NewsPatch{Content: models.Some("  ")})
	assert.ErrorContains(t, err, "content is required")

	_, err = s.Update(ctx, admin, "bad", models.NewsPatch{Title: models.Some("x")})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestPublishedAtNullResetsToNow(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	n, err := s.Create(ctx, admin, models.NewsInput{Title: "A", Content: "x", PublishedAt: &old})
	require.NoError(t, err)

	up, err := s.Update(ctx, admin, n.ID.Hex(), models.NewsPatch{PublishedAt: models.Null[time.Time]()})
	require.NoError(t, err)
	assert.True(t, up.PublishedAt.Equal(fixedNow))
}

func TestGetPublishedListAndDelete(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	draft := false

	live, err := s.Create(ctx, admin, models.NewsInput{Title: "Live", Content: "x"})
	require.NoError(t, err)
	_, err = s.Create(ctx, admin, models.NewsInput{Title: "Draft", Content: "x", IsPublished: &draft})
	require.NoError(t, err)

	_, err = s.GetPublished(ctx, "draft")
	assert.ErrorIs(t, err, errNotFound)
	got, err := s.GetPublished(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, live.ID, got.ID)

	page, err := s.List(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, DefaultLimit, page.Limit)

	page, err = s.List(ctx, Query{IncludeUnpublished: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	require.NoError(t, s.Delete(ctx, live.ID.Hex()))
	assert.ErrorIs(t, s.Delete(ctx, live.ID.Hex()), errNotFound)
}
