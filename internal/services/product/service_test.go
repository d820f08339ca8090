package product

import (
	"context"
	"testing"

	"github.com/hasakeplay/cms-backend/internal/adapters/repository"
	"github.com/hasakeplay/cms-backend/internal/adapters/repository/memory"
	"github.com/hasakeplay/cms-backend/internal/core/domain"
	"github.com/hasakeplay/cms-backend/internal/models"
	"github.com/hasakeplay/cms-backend/pkg/localize"
	"github.com/hasakeplay/cms-backend/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = domain.Principal{Subject: "admin", Email: "admin@hasake.vn", Role: domain.RoleAdmin}

func newTestService() (*service, *memory.ProductNodes) {
	repo := memory.NewProductNodes()
	return &service{repo: repo}, repo
}

func create(t *testing.T, s *service, title string, parent *models.ProductNode) *models.ProductNode {
	t.Helper()
	in := models.ProductNodeInput{Title: title, Type: models.NodeTypeCategory}
	if parent != nil {
		id := parent.ID.Hex()
		in.Parent = &id
	}
	node, err := s.Create(context.Background(), admin, in)
	require.NoError(t, err)
	return node
}

func TestCreateRootNode(t *testing.T) {
	s, _ := newTestService()

	node := create(t, s, "Ghế Tập Gym", nil)

	assert.Equal(t, "ghe-tap-gym", node.Slug)
	assert.Equal(t, "ghe-tap-gym", node.Path)
	assert.Empty(t, node.Ancestors)
	assert.Nil(t, node.Parent)
	assert.True(t, node.IsPublished)
	assert.Equal(t, "Ghế Tập Gym", node.TitleI18n["vi"])
	assert.Equal(t, admin.Email, node.UpdatedBy)
}

func TestCreateValidation(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	_, err := s.Create(ctx, admin, models.ProductNodeInput{Type: models.NodeTypeItem})
	assert.EqualError(t, err, "title is required")

	_, err = s.Create(ctx, admin, models.ProductNodeInput{Title: "Bench", Type: "shelf"})
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.AsError(err).Kind)

	missing := "64b7f0c2a1b2c3d4e5f60718"
	_, err = s.Create(ctx, admin, models.ProductNodeInput{Title: "Bench", Type: models.NodeTypeItem, Parent: &missing})
	assert.ErrorIs(t, err, domain.ErrParentNotFound)
}

func TestCreateFallbackSlug(t *testing.T) {
	s, _ := newTestService()

	node := create(t, s, "!!!", nil)
	assert.Equal(t, "node", node.Slug)
}

func TestPathFollowsDepth(t *testing.T) {
	s, _ := newTestService()

	a := create(t, s, "Thiết bị", nil)
	b := create(t, s, "Máy chạy bộ", a)
	c := create(t, s, "Model X1", b)
	d := create(t, s, "Phụ kiện", c)

	assert.Equal(t, "thiet-bi/may-chay-bo/model-x1/phu-kien", d.Path)
	require.Len(t, d.Ancestors, 3)
	assert.Equal(t, []string{"thiet-bi", "may-chay-bo", "model-x1"},
		[]string{d.Ancestors[0].Slug, d.Ancestors[1].Slug, d.Ancestors[2].Slug})
	assert.Equal(t, c.ID, *d.Parent)
	assert.Equal(t, "Model X1", d.Ancestors[2].Title)
}

func TestSlugUniquePerSibling(t *testing.T) {
	s, _ := newTestService()

	a := create(t, s, "Indoor", nil)
	b := create(t, s, "Outdoor", nil)

	first := create(t, s, "Bench", a)
	second := create(t, s, "Bench", a)
	third := create(t, s, "BENCH", a)
	elsewhere := create(t, s, "Bench", b)

	assert.Equal(t, "bench", first.Slug)
	assert.Equal(t, "bench-2", second.Slug)
	assert.Equal(t, "bench-3", third.Slug)
	assert.Equal(t, "bench", elsewhere.Slug)
	assert.Equal(t, "outdoor/bench", elsewhere.Path)
}

func TestExplicitSlugIsNormalised(t *testing.T) {
	s, _ := newTestService()

	node, err := s.Create(context.Background(), admin, models.ProductNodeInput{
		Title: "Anything",
		Slug:  "  Xà Đơn  ",
		Type:  models.NodeTypeItem,
	})
	require.NoError(t, err)
	// đ has no decomposition, so it collapses into the separator
	assert.Equal(t, "xa-on", node.Slug)
}

func TestCreateRetriesAfterLostRace(t *testing.T) {
	s, repo := newTestService()
	ctx := context.Background()

	fired := false
	repo.BeforeWrite = func(n *models.ProductNode) {
		if fired {
			return
		}
		fired = true
		winner := &models.ProductNode{Title: "Rack", Slug: n.Slug, Path: n.Slug, Type: models.NodeTypeItem}
		require.NoError(t, repo.Insert(ctx, winner))
	}

	node := create(t, s, "Rack", nil)
	assert.Equal(t, "rack-2", node.Slug)
	assert.Equal(t, "rack-2", node.Path)
}

func TestCreateGivesUpAfterMaxAttempts(t *testing.T) {
	s, repo := newTestService()
	ctx := context.Background()

	attempts := 0
	repo.BeforeWrite = func(n *models.ProductNode) {
		if n.Title != "Loser" {
			return
		}
		attempts++
		winner := &models.ProductNode{Title: "Winner", Slug: n.Slug, Path: n.Slug, Type: models.NodeTypeItem}
		require.NoError(t, repo.Insert(ctx, winner))
	}

	_, err := s.Create(ctx, admin, models.ProductNodeInput{Title: "Loser", Type: models.NodeTypeItem})
	assert.ErrorIs(t, err, ErrSlugTaken)
	assert.Equal(t, 409, domain.AsError(err).HTTPStatus())
	assert.Equal(t, MaxWriteAttempts, attempts)
}

func TestUpdateTitleRegeneratesSlugAndRepairsSubtree(t *testing.T) {
	s, repo := newTestService()
	ctx := context.Background()

	root := create(t, s, "Gym", nil)
	mid := create(t, s, "Benches", root)
	leaf := create(t, s, "Flat", mid)

	updated, err := s.Update(ctx, admin, root.ID.Hex(), models.ProductNodePatch{Title: models.Some("Phòng Gym")})
	require.NoError(t, err)
	assert.Equal(t, "phong-gym", updated.Slug)
	assert.Equal(t, "phong-gym", updated.Path)
	assert.Equal(t, "Phòng Gym", updated.TitleI18n["vi"])

	gotMid, err := repo.FindByID(ctx, mid.ID)
	require.NoError(t, err)
	assert.Equal(t, "phong-gym/benches", gotMid.Path)
	assert.Equal(t, "Phòng Gym", gotMid.Ancestors[0].Title)

	gotLeaf, err := repo.FindByID(ctx, leaf.ID)
	require.NoError(t, err)
	assert.Equal(t, "phong-gym/benches/flat", gotLeaf.Path)
	assert.Equal(t, "phong-gym", gotLeaf.Ancestors[0].Slug)
	assert.Equal(t, "benches", gotLeaf.Ancestors[1].Slug)
}

func TestUpdateWithoutSlugChangesKeepsSlug(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	node := create(t, s, "Treadmill", nil)
	updated, err := s.Update(ctx, admin, node.ID.Hex(), models.ProductNodePatch{Order: models.Some(4)})
	require.NoError(t, err)
	assert.Equal(t, "treadmill", updated.Slug)
	assert.Equal(t, 4, updated.Order)
}

func TestUpdateExplicitSlugResolvedAmongSiblings(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	create(t, s, "Rower", nil)
	other := create(t, s, "Bike", nil)

	updated, err := s.Update(ctx, admin, other.ID.Hex(), models.ProductNodePatch{Slug: models.Some("Rower")})
	require.NoError(t, err)
	assert.Equal(t, "rower-2", updated.Slug)
}

func TestReparentChangesPrefix(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	indoor := create(t, s, "Indoor", nil)
	outdoor := create(t, s, "Outdoor", nil)
	create(t, s, "Bench", outdoor)
	bench := create(t, s, "Bench", indoor)
	child := create(t, s, "Pad", bench)

	moved, err := s.Update(ctx, admin, bench.ID.Hex(), models.ProductNodePatch{Parent: models.Some(outdoor.ID.Hex())})
	require.NoError(t, err)
	assert.Equal(t, "bench-2", moved.Slug, "collision in the destination forces a suffix")
	assert.Equal(t, "outdoor/bench-2", moved.Path)
	require.Len(t, moved.Ancestors, 1)
	assert.Equal(t, outdoor.ID, moved.Ancestors[0].ID)

	view, err := s.NodeWithChildren(ctx, "outdoor/bench-2", "")
	require.NoError(t, err)
	require.Len(t, view.Children, 1)
	assert.Equal(t, child.ID, view.Children[0].ID)
	assert.Equal(t, "outdoor/bench-2/pad", view.Children[0].Path)

	toRoot, err := s.Update(ctx, admin, bench.ID.Hex(), models.ProductNodePatch{Parent: models.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, toRoot.Parent)
	assert.Equal(t, "bench-2", toRoot.Path)
	assert.Empty(t, toRoot.Ancestors)
}

func TestReparentRejectsCycles(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	a := create(t, s, "A", nil)
	b := create(t, s, "B", a)

	_, err := s.Update(ctx, admin, a.ID.Hex(), models.ProductNodePatch{Parent: models.Some(b.ID.Hex())})
	assert.ErrorIs(t, err, ErrCycle)

	_, err = s.Update(ctx, admin, a.ID.Hex(), models.ProductNodePatch{Parent: models.Some(a.ID.Hex())})
	assert.ErrorIs(t, err, ErrCycle)
}

func TestUpdateErrors(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()
	node := create(t, s, "A", nil)

	_, err := s.Update(ctx, admin, "nope", models.ProductNodePatch{Order: models.Some(1)})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = s.Update(ctx, admin, node.ID.Hex(), models.ProductNodePatch{})
	assert.ErrorIs(t, err, domain.ErrNoFieldsToUpdate)

	_, err = s.Update(ctx, admin, "64b7f0c2a1b2c3d4e5f60718", models.ProductNodePatch{Order: models.Some(1)})
	assert.Equal(t, domain.KindNotFound, domain.AsError(err).Kind)

	_, err = s.Update(ctx, admin, node.ID.Hex(), models.ProductNodePatch{Title: models.Some("  ")})
	assert.EqualError(t, err, "title is required")
}

func TestDeletePolicy(t *testing.T) {
	s, repo := newTestService()
	ctx := context.Background()

	root := create(t, s, "Root", nil)
	mid := create(t, s, "Mid", root)
	create(t, s, "Leaf", mid)
	other := create(t, s, "Other", nil)

	_, err := s.Delete(ctx, root.ID.Hex(), false)
	assert.ErrorIs(t, err, ErrHasChildren)

	deleted, err := s.Delete(ctx, root.ID.Hex(), true)
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)

	deleted, err = s.Delete(ctx, other.ID.Hex(), false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	page, err := repo.List(ctx, allNodes())
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	_, err = s.Delete(ctx, other.ID.Hex(), false)
	assert.Equal(t, domain.KindNotFound, domain.AsError(err).Kind)
}

func TestRepairFixesStaleDescendants(t *testing.T) {
	s, repo := newTestService()
	ctx := context.Background()

	root := create(t, s, "Root", nil)
	child := create(t, s, "Child", root)
	grand := create(t, s, "Grand", child)

	// simulate a legacy rename that never cascaded
	stale, _ := repo.FindByID(ctx, root.ID)
	stale.Slug, stale.Path, stale.Title = "renamed", "renamed", "Renamed"
	require.NoError(t, repo.Replace(ctx, stale))

	n, err := s.Repair(ctx, root.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, _ := repo.FindByID(ctx, grand.ID)
	assert.Equal(t, "renamed/child/grand", got.Path)
	assert.Equal(t, "Renamed", got.Ancestors[0].Title)

	n, err = s.Repair(ctx, root.ID.Hex())
	require.NoError(t, err)
	assert.Zero(t, n, "a consistent subtree needs no writes")
}

func TestNodeWithChildren(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	root := create(t, s, "Root", nil)
	first, err := s.Create(ctx, admin, models.ProductNodeInput{Title: "B", Type: models.NodeTypeItem, Parent: ptr(root.ID.Hex()), Order: 2})
	require.NoError(t, err)
	second, err := s.Create(ctx, admin, models.ProductNodeInput{Title: "A", Type: models.NodeTypeItem, Parent: ptr(root.ID.Hex()), Order: 1})
	require.NoError(t, err)

	view, err := s.NodeWithChildren(ctx, "root", "")
	require.NoError(t, err)
	require.Len(t, view.Children, 2)
	assert.Equal(t, second.ID, view.Children[0].ID)
	assert.Equal(t, first.ID, view.Children[1].ID)

	leaf, err := s.NodeWithChildren(ctx, "root/b", "")
	require.NoError(t, err)
	assert.Equal(t, []models.Breadcrumb{{Title: "Root", Slug: "root"}, {Title: "B", Slug: "b"}}, leaf.Breadcrumbs)
	assert.Empty(t, leaf.Children)

	_, err = s.NodeWithChildren(ctx, "", "")
	assert.ErrorIs(t, err, ErrMissingPath)

	_, err = s.NodeWithChildren(ctx, "nowhere", "")
	assert.Equal(t, domain.KindNotFound, domain.AsError(err).Kind)
}

func TestListChildrenByPathOrID(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	root := create(t, s, "Root", nil)
	create(t, s, "One", root)
	create(t, s, "Two", root)
	p := pagination.Params{Page: 1, Limit: 20}

	byPath, err := s.ListChildren(ctx, ChildrenQuery{Path: "root", TreeQuery: TreeQuery{Page: p}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, byPath.Total)

	byID, err := s.ListChildren(ctx, ChildrenQuery{ParentID: root.ID.Hex(), TreeQuery: TreeQuery{Page: p}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, byID.Total)

	none, err := s.ListChildren(ctx, ChildrenQuery{Path: "missing", TreeQuery: TreeQuery{Page: p}})
	require.NoError(t, err)
	assert.Empty(t, none.Items)

	_, err = s.ListChildren(ctx, ChildrenQuery{ParentID: "zz", TreeQuery: TreeQuery{Page: p}})
	assert.Error(t, err)

	roots, err := s.ListRoot(ctx, TreeQuery{Page: p})
	require.NoError(t, err)
	assert.EqualValues(t, 1, roots.Total)
}

func TestPublicListOnlyPublished(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	hidden := false
	for i := 0; i < 5; i++ {
		create(t, s, "Item", nil)
	}
	_, err := s.Create(ctx, admin, models.ProductNodeInput{Title: "Draft", Type: models.NodeTypeItem, IsPublished: &hidden})
	require.NoError(t, err)

	page, err := s.List(ctx, ListQuery{Page: pagination.Params{Page: 1, Limit: 2}})
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	assert.Len(t, page.Items, 2)
	require.NotNil(t, page.TotalPages)
	assert.Equal(t, 3, *page.TotalPages)

	filtered, err := s.List(ctx, ListQuery{Q: "draft", Page: pagination.Params{Page: 1, Limit: 12}})
	require.NoError(t, err)
	assert.Zero(t, filtered.Total)
}

func TestGetBySlugLocalized(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	_, err := s.Create(ctx, admin, models.ProductNodeInput{
		Title:     "Xà Đơn",
		TitleI18n: localize.Text{"vi": "Xà Đơn"},
		Slug:      "xa-don",
		Type:      models.NodeTypeItem,
	})
	require.NoError(t, err)

	node, err := s.GetBySlug(ctx, "xa-don")
	require.NoError(t, err)
	assert.Equal(t, "Xà Đơn", node.Localized(localize.EN).Title, "en falls back to vi")

	_, err = s.GetBySlug(ctx, "missing")
	assert.Equal(t, domain.KindNotFound, domain.AsError(err).Kind)
}

func TestSearchBlankQuery(t *testing.T) {
	s, _ := newTestService()

	page, err := s.Search(context.Background(), "   ", pagination.Params{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Total)
}

func ptr(s string) *string { return &s }

func allNodes() repository.NodeListQuery {
	return repository.NodeListQuery{Scope: repository.ScopeAll, Page: pagination.Params{Page: 1, Limit: 100}}
}
