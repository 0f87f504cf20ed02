package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happyfeet/storefront/internal/models"
	"github.com/happyfeet/storefront/internal/repo"
	"github.com/happyfeet/storefront/internal/testdb"
	"github.com/happyfeet/storefront/internal/transport"
	"github.com/happyfeet/storefront/pkg/authz"
)

const adminEmail = "owner@happyfeet.test"

var admins = authz.NewAllowList([]string{adminEmail})

func adminCtx() context.Context {
	return authz.IntoContext(context.Background(), authz.Principal{UserID: "u1", Email: adminEmail})
}

type recordedEvent struct {
	topic, key string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{topic: topic, key: key})
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeIndex struct {
	indexed map[uuid.UUID]bool
	hits    []uuid.UUID
	err     error
}

func newFakeIndex() *fakeIndex { return &fakeIndex{indexed: map[uuid.UUID]bool{}} }

func (f *fakeIndex) IndexProduct(_ context.Context, p *models.Product) error {
	f.indexed[p.ID] = true
	return nil
}

func (f *fakeIndex) DeleteProduct(_ context.Context, id uuid.UUID) error {
	delete(f.indexed, id)
	return nil
}

func (f *fakeIndex) Search(context.Context, string, int, int) (int64, []uuid.UUID, error) {
	return int64(len(f.hits)), f.hits, f.err
}

type fixture struct {
	repo       *repo.GormRepo
	products   *ProductService
	categories *CategoryService
	orders     *OrderService
	index      *fakeIndex
	events     *fakePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	r := &repo.GormRepo{DB: testdb.New(t)}
	ix := newFakeIndex()
	pub := &fakePublisher{}
	return &fixture{
		repo:       r,
		products:   &ProductService{Repo: r, Authz: admins, Index: ix, Events: pub},
		categories: &CategoryService{Repo: r, Authz: admins, Events: pub},
		orders:     &OrderService{Repo: r, Authz: admins, Events: pub},
		index:      ix,
		events:     pub,
	}
}

func productReq(name string, cats ...string) transport.CreateProductRequest {
	if len(cats) == 0 {
		cats = []string{"Flats"}
	}
	return transport.CreateProductRequest{
		Name:       name,
		Price:      4999,
		Categories: cats,
		Images:     []string{"https://img.test/a.jpg"},
		Sizes:      []string{"38"},
	}
}

func TestMutationsRequireAdmin(t *testing.T) {
	f := newFixture(t)
	anon := context.Background()
	stranger := authz.IntoContext(context.Background(), authz.Principal{Email: "x@y.test"})

	_, err := f.products.Create(anon, productReq("Pumps"))
	assert.ErrorIs(t, err, authz.ErrUnauthenticated)
	_, err = f.products.Create(stranger, productReq("Pumps"))
	assert.ErrorIs(t, err, authz.ErrForbidden)

	assert.ErrorIs(t, f.products.Delete(stranger, uuid.New()), authz.ErrForbidden)
	_, err = f.categories.Create(stranger, transport.CreateCategoryRequest{Name: "Heels"})
	assert.ErrorIs(t, err, authz.ErrForbidden)
	assert.ErrorIs(t, f.categories.Delete(anon, uuid.New()), authz.ErrUnauthenticated)
	_, err = f.orders.UpdateStatus(stranger, uuid.New(), "shipped")
	assert.ErrorIs(t, err, authz.ErrForbidden)
	_, err = f.orders.BulkDelete(stranger, []uuid.UUID{uuid.New()}, nil)
	assert.ErrorIs(t, err, authz.ErrForbidden)

	all, err := f.products.List(anon)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateProduct(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()

	p, err := f.products.Create(ctx, productReq("  Classic Black Pumps ", "Heels", " heels ", ""))
	require.NoError(t, err)
	assert.Equal(t, "classic-black-pumps", p.Slug)
	assert.Equal(t, []string{"Heels"}, p.Categories)
	assert.True(t, f.index.indexed[p.ID])
	require.Len(t, f.events.events, 1)
	assert.Equal(t, p.ID.String(), f.events.events[0].key)

	_, err = f.products.Create(ctx, productReq("Classic Black Pumps"))
	assert.ErrorIs(t, err, ErrConflict)

	got, err := f.products.GetBySlug(context.Background(), "classic-black-pumps")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	_, err = f.products.GetBySlug(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateProductValidation(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()

	noImages := productReq("Pumps")
	noImages.Images = nil
	badSlug := productReq("Pumps")
	badSlug.Slug = "Not A Slug"
	negative := productReq("Pumps")
	negative.Price = -1
	relImage := productReq("Pumps")
	relImage.Images = []string{"/a.jpg"}
	blankCats := productReq("Pumps")
	blankCats.Categories = []string{" ", ""}

	tests := map[string]transport.CreateProductRequest{
		"no name":        productReq(" "),
		"no images":      noImages,
		"bad slug":       badSlug,
		"negative price": negative,
		"relative image": relImage,
		"no categories":  blankCats,
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.products.Create(ctx, req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestPatchProductKeepsACategory(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()
	p, err := f.products.Create(ctx, productReq("Pumps", "Heels"))
	require.NoError(t, err)

	_, err = f.products.Patch(ctx, p.ID, transport.PatchProductRequest{Categories: &[]string{}})
	assert.ErrorIs(t, err, ErrValidation)

	got, err := f.products.GetBySlug(ctx, p.Slug)
	require.NoError(t, err)
	assert.Equal(t, []string{"Heels"}, got.Categories)
}

func TestPatchProduct(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()
	p, err := f.products.Create(ctx, productReq("Pumps"))
	require.NoError(t, err)

	price := int64(3999)
	featured := true
	got, err := f.products.Patch(ctx, p.ID, transport.PatchProductRequest{Price: &price, Featured: &featured})
	require.NoError(t, err)
	assert.EqualValues(t, 3999, got.Price)
	assert.True(t, got.Featured)
	assert.Equal(t, "Pumps", got.Name)

	empty := []string{}
	_, err = f.products.Patch(ctx, p.ID, transport.PatchProductRequest{Images: &empty})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.products.Patch(ctx, uuid.New(), transport.PatchProductRequest{Price: &price})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()
	p, err := f.products.Create(ctx, productReq("Pumps"))
	require.NoError(t, err)

	require.NoError(t, f.products.Delete(ctx, p.ID))
	assert.False(t, f.index.indexed[p.ID])
	assert.ErrorIs(t, f.products.Delete(ctx, p.ID), ErrNotFound)
}

func TestBulkDeleteProductsInBatches(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()

	var ids []uuid.UUID
	for i := 0; i < 120; i++ {
		p := &models.Product{Slug: uuid.NewString(), Name: "p", Images: []string{"https://i.test/x"}}
		require.NoError(t, f.repo.CreateProduct(ctx, p))
		ids = append(ids, p.ID)
	}
	ids = append(ids, ids[0])

	var progress [][2]int
	res, err := f.products.BulkDelete(ctx, ids, func(done, total int) {
		progress = append(progress, [2]int{done, total})
	})
	require.NoError(t, err)
	assert.Equal(t, 120, res.Requested)
	assert.EqualValues(t, 120, res.Deleted)
	assert.Empty(t, res.Failed)
	assert.Equal(t, [][2]int{{50, 120}, {100, 120}, {120, 120}}, progress)

	_, err = f.products.BulkDelete(ctx, nil, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRunBulkContinuesAfterFailure(t *testing.T) {
	ids := make([]uuid.UUID, 120)
	for i := range ids {
		ids[i] = uuid.New()
	}
	calls := 0
	res := runBulk(context.Background(), ids, func(_ context.Context, batch []uuid.UUID) (int64, error) {
		calls++
		if calls == 2 {
			return 0, errors.New("boom")
		}
		return int64(len(batch)), nil
	}, nil)

	assert.Equal(t, 3, calls)
	assert.EqualValues(t, 70, res.Deleted)
	require.Len(t, res.Failed, 1)
	assert.Len(t, res.Failed[0].IDs, BulkBatchSize)
	assert.Equal(t, "boom", res.Failed[0].Error)
}

func TestSearchProducts(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()
	a, err := f.products.Create(ctx, productReq("Classic Black Pumps"))
	require.NoError(t, err)
	b, err := f.products.Create(ctx, productReq("Sunset Sandals"))
	require.NoError(t, err)

	f.index.hits = []uuid.UUID{b.ID, a.ID}
	page, err := f.products.Search(ctx, "anything", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, b.ID, page.Data[0].ID)

	f.index.err = errors.New("cluster down")
	page, err = f.products.Search(ctx, "pumps", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, a.ID, page.Data[0].ID)

	_, err = f.products.Search(ctx, "  ", 1, 10)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCategories(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()

	heels, err := f.categories.Create(ctx, transport.CreateCategoryRequest{Name: " Heels & Pumps "})
	require.NoError(t, err)
	assert.Equal(t, "heels-pumps", heels.Slug)

	_, err = f.categories.Create(ctx, transport.CreateCategoryRequest{Name: "Heels & Pumps"})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = f.categories.Create(ctx, transport.CreateCategoryRequest{Name: "all"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.categories.Create(ctx, transport.CreateCategoryRequest{Name: "!!"})
	assert.ErrorIs(t, err, ErrValidation)

	p, err := f.products.Create(ctx, productReq("Pumps", "Heels & Pumps"))
	require.NoError(t, err)
	_, err = f.products.Create(ctx, productReq("Mules", "heels & pumps"))
	require.NoError(t, err)

	err = f.categories.Delete(ctx, heels.ID)
	var inUse *CategoryInUseError
	require.ErrorAs(t, err, &inUse)
	assert.EqualValues(t, 2, inUse.Products)
	assert.ErrorIs(t, err, ErrConflict)

	name := "Heels"
	desc := "Everything with a heel"
	updated, err := f.categories.Update(ctx, heels.ID, transport.PatchCategoryRequest{Name: &name, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "heels", updated.Slug)
	assert.Equal(t, desc, updated.Description)

	got, err := f.repo.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Heels"}, got.Categories)

	_, err = f.categories.Create(ctx, transport.CreateCategoryRequest{Name: "Flats"})
	require.NoError(t, err)
	cats, err := f.categories.List(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Flats", cats[0].Name)
	require.NoError(t, f.categories.Delete(ctx, cats[0].ID))

	assert.ErrorIs(t, f.categories.Delete(ctx, uuid.New()), ErrNotFound)
}

func TestOrders(t *testing.T) {
	f := newFixture(t)
	ctx := adminCtx()

	o := &models.Order{CustomerName: "Jane", Phone: "1", Location: "Nairobi", Total: 10, Status: models.OrderStatusPending}
	require.NoError(t, f.repo.InsertOrder(ctx, o))

	for _, st := range []string{"delivered", "pending", "cancelled", "confirmed"} {
		got, err := f.orders.UpdateStatus(ctx, o.ID, st)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatus(st), got.Status)
	}
	_, err := f.orders.UpdateStatus(ctx, o.ID, "lost")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.orders.UpdateStatus(ctx, uuid.New(), "shipped")
	assert.ErrorIs(t, err, ErrNotFound)

	page, err := f.orders.List(ctx, "confirmed", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Meta.Total)
	_, err = f.orders.List(ctx, "weird", 1, 10)
	assert.ErrorIs(t, err, ErrValidation)

	got, err := f.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.CustomerName)

	require.NoError(t, f.orders.Delete(ctx, o.ID))
	assert.ErrorIs(t, f.orders.Delete(ctx, o.ID), ErrNotFound)
}
