package product

import (
	"context"
	"testing"

	"github.com/hasakeplay/cms-backend/internal/models"
	"github.com/hasakeplay/cms-backend/pkg/localize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooksVietnamese(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Ghế tập", true},
		{"ĐÈN", true},
		{"Treadmill", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, looksVietnamese(tt.in))
		})
	}
}

func TestFillPatch(t *testing.T) {
	n := &models.ProductNode{
		Title:       "Treadmill",
		Description: "Máy chạy bộ",
		Tagline:     "Fast",
		Slug:        "treadmill",
	}
	p := fillPatch(n)
	assert.Equal(t, map[string]string{
		"title_i18n.en":       "Treadmill",
		"description_i18n.vi": "Máy chạy bộ",
		"tagline_i18n.vi":     "Fast",
		"slug_i18n.vi":        "treadmill",
	}, p.Set)

	// vi already present: an English plain title fills only en
	n = &models.ProductNode{Title: "Bench", TitleI18n: localize.Text{"vi": "Ghế"}}
	p = fillPatch(n)
	assert.Equal(t, map[string]string{"title_i18n.en": "Bench"}, p.Set)
}

func TestCleanupPatch(t *testing.T) {
	n := &models.ProductNode{
		TitleI18n: localize.Text{"vi": "Aqua Gym Equipment"},
		SlugI18n:  localize.Text{"vi": "aqua-gym"},
	}
	p := cleanupPatch(n)
	assert.Equal(t, "Aqua Gym Equipment", p.Set["title_i18n.en"])
	assert.Equal(t, "aqua-gym", p.Set["slug_i18n.en"])
	assert.Equal(t, []string{"title_i18n.vi"}, p.Unset)

	clean := &models.ProductNode{TitleI18n: localize.Text{"vi": "Ghế tập"}}
	assert.True(t, cleanupPatch(clean).Empty())
}

func TestBackfillLocalesDryRun(t *testing.T) {
	s, repo := newTestService()
	ctx := context.Background()

	node := &models.ProductNode{Title: "Rack", Slug: "rack", Path: "rack", Type: models.NodeTypeItem}
	require.NoError(t, repo.Insert(ctx, node))

	report, err := s.BackfillLocales(ctx, BackfillFill, true)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Updated)

	got, _ := repo.FindByID(ctx, node.ID)
	assert.Empty(t, got.TitleI18n, "dry run writes nothing")

	_, err = s.BackfillLocales(ctx, BackfillFill, false)
	require.NoError(t, err)
	got, _ = repo.FindByID(ctx, node.ID)
	assert.Equal(t, "Rack", got.TitleI18n["en"])
	assert.Equal(t, "rack", got.SlugI18n["vi"])

	again, err := s.BackfillLocales(ctx, BackfillFill, false)
	require.NoError(t, err)
	assert.Zero(t, again.Updated)

	_, err = s.BackfillLocales(ctx, "bogus", false)
	assert.Error(t, err)
}
