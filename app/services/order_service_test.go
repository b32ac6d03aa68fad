package services_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rajatverma/kirana/app/models"
	"github.com/rajatverma/kirana/app/repositories"
	"github.com/rajatverma/kirana/app/services"
)

// ─── Fakes ────────────────────────────────────────────────────────────────────

type fakeProducts struct {
	mu       sync.Mutex
	items    map[primitive.ObjectID]*models.Product
	failDecr map[primitive.ObjectID]bool // force a lost race for these IDs
}

func newFakeProducts(products ...*models.Product) *fakeProducts {
	f := &fakeProducts{
		items:    map[primitive.ObjectID]*models.Product{},
		failDecr: map[primitive.ObjectID]bool{},
	}
	for _, p := range products {
		f.items[p.ID] = p
	}
	return f
}

func (f *fakeProducts) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Product
	for _, id := range ids {
		if p, ok := f.items[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProducts) DecrementStock(_ context.Context, id primitive.ObjectID, qty int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok || f.failDecr[id] || p.CountInStock < qty {
		return false, nil
	}
	p.CountInStock -= qty
	return true, nil
}

func (f *fakeProducts) IncrementStock(_ context.Context, id primitive.ObjectID, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.items[id]; ok {
		p.CountInStock += qty
	}
	return nil
}

func (f *fakeProducts) stock(id primitive.ObjectID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id].CountInStock
}

type fakeOrders struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.Order
}

func newFakeOrders(orders ...*models.Order) *fakeOrders {
	f := &fakeOrders{items: map[primitive.ObjectID]*models.Order{}}
	for _, o := range orders {
		f.items[o.ID] = o
	}
	return f
}

func (f *fakeOrders) Insert(_ context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order.ID = primitive.NewObjectID()
	clone := *order
	f.items[order.ID] = &clone
	return nil
}

func (f *fakeOrders) FindByID(_ context.Context, id primitive.ObjectID) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.items[id]
	if !ok {
		return models.Order{}, repositories.ErrNotFound
	}
	return *o, nil
}

func (f *fakeOrders) FindPage(_ context.Context, filter repositories.OrderFilter, page, limit int) ([]models.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var all []models.Order
	for _, o := range f.items {
		if !filter.User.IsZero() && o.User != filter.User {
			continue
		}
		all = append(all, *o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Date.After(all[j].Date) })

	total := int64(len(all))
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id primitive.ObjectID, status string) (models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.items[id]
	if !ok {
		return models.Order{}, repositories.ErrNotFound
	}
	o.Status = status
	return *o, nil
}

func (f *fakeOrders) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeUsers struct {
	items map[primitive.ObjectID]models.User
}

func (f *fakeUsers) FindByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	if u, ok := f.items[id]; ok {
		return u, nil
	}
	return models.User{}, repositories.ErrNotFound
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func newProduct(title string, price float64, stock int) *models.Product {
	return &models.Product{
		ID:           primitive.NewObjectID(),
		Title:        title,
		Price:        price,
		CountInStock: stock,
	}
}

func buildService(products *fakeProducts, orders *fakeOrders, users map[primitive.ObjectID]models.User) *services.OrderService {
	if users == nil {
		users = map[primitive.ObjectID]models.User{}
	}
	return services.NewOrderService(orders, products, &fakeUsers{items: users})
}

func asServiceError(t *testing.T, err error) *services.Error {
	t.Helper()
	require.Error(t, err)
	svcErr, ok := err.(*services.Error)
	require.True(t, ok, "expected *services.Error, got %T: %v", err, err)
	return svcErr
}

func user() services.Identity {
	return services.Identity{ID: primitive.NewObjectID(), Role: models.RoleUser}
}

func admin() services.Identity {
	return services.Identity{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
}

// ─── Create ───────────────────────────────────────────────────────────────────

func TestCreateOrderSnapshotsPriceAndDecrementsStock(t *testing.T) {
	rice := newProduct("Basmati Rice", 10.0, 5)
	products := newFakeProducts(rice)
	orders := newFakeOrders()
	svc := buildService(products, orders, nil)
	caller := user()

	order, err := svc.Create(context.Background(), caller, []services.OrderItemInput{
		{Product: rice.ID.Hex(), Quantity: 2},
	})
	require.NoError(t, err)

	require.Equal(t, 20.0, order.TotalPrice)
	require.Equal(t, models.StatusPending, order.Status)
	require.Len(t, order.OrderItems, 1)
	require.Equal(t, 10.0, order.OrderItems[0].Price)
	require.Equal(t, 2, order.OrderItems[0].Quantity)
	require.Equal(t, 3, products.stock(rice.ID))
}

func TestCreateOrderPriceSnapshotSurvivesPriceChange(t *testing.T) {
	rice := newProduct("Basmati Rice", 10.0, 5)
	products := newFakeProducts(rice)
	orders := newFakeOrders()
	svc := buildService(products, orders, nil)
	caller := user()

	created, err := svc.Create(context.Background(), caller, []services.OrderItemInput{
		{Product: rice.ID.Hex(), Quantity: 1},
	})
	require.NoError(t, err)

	rice.Price = 99.0 // later catalog update must not touch the stored line

	stored, err := orders.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, 10.0, stored.OrderItems[0].Price)
	require.Equal(t, 10.0, stored.TotalPrice)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	rice := newProduct("Basmati Rice", 10.0, 5)
	products := newFakeProducts(rice)
	orders := newFakeOrders()
	svc := buildService(products, orders, nil)

	_, err := svc.Create(context.Background(), user(), []services.OrderItemInput{
		{Product: rice.ID.Hex(), Quantity: 10},
	})

	svcErr := asServiceError(t, err)
	require.Equal(t, services.KindConflict, svcErr.Kind)
	require.Equal(t, "insufficientStock", svcErr.Key)
	require.Equal(t, "Basmati Rice", svcErr.Detail["productName"])
	require.Equal(t, 5, svcErr.Detail["availableStock"])
	require.Equal(t, 10, svcErr.Detail["requestedQuantity"])

	require.Equal(t, 5, products.stock(rice.ID), "stock must be unchanged after rejection")
	require.Empty(t, orders.items, "no order may be stored")
}

func TestCreateOrderCompensatesWhenLaterItemShort(t *testing.T) {
	rice := newProduct("Rice", 10.0, 5)
	chai := newProduct("Chai", 4.0, 8)
	products := newFakeProducts(rice, chai)
	products.failDecr[chai.ID] = true // concurrent order wins the chai stock
	orders := newFakeOrders()
	svc := buildService(products, orders, nil)

	_, err := svc.Create(context.Background(), user(), []services.OrderItemInput{
		{Product: rice.ID.Hex(), Quantity: 2},
		{Product: chai.ID.Hex(), Quantity: 3},
	})

	svcErr := asServiceError(t, err)
	require.Equal(t, "insufficientStock", svcErr.Key)
	require.Equal(t, 5, products.stock(rice.ID), "taken rice must be restored")
	require.Equal(t, 8, products.stock(chai.ID))
	require.Empty(t, orders.items)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	products := newFakeProducts()
	svc := buildService(products, newFakeOrders(), nil)

	_, err := svc.Create(context.Background(), user(), []services.OrderItemInput{
		{Product: primitive.NewObjectID().Hex(), Quantity: 1},
	})

	svcErr := asServiceError(t, err)
	require.Equal(t, services.KindNotFound, svcErr.Kind)
	require.Equal(t, "productsNotFound", svcErr.Key)
}

func TestCreateOrderValidation(t *testing.T) {
	rice := newProduct("Rice", 10.0, 5)
	svc := buildService(newFakeProducts(rice), newFakeOrders(), nil)

	cases := []struct {
		name  string
		items []services.OrderItemInput
		key   string
	}{
		{"empty list", nil, "orderItemsRequired"},
		{"missing quantity", []services.OrderItemInput{{Product: rice.ID.Hex()}}, "orderItemsValidation"},
		{"missing product", []services.OrderItemInput{{Quantity: 2}}, "orderItemsValidation"},
		{"malformed id", []services.OrderItemInput{{Product: "not-an-id", Quantity: 1}}, "invalidProductId"},
		{"negative quantity", []services.OrderItemInput{{Product: rice.ID.Hex(), Quantity: -1}}, "quantityMustBeAtLeast1"},
		{"fractional quantity", []services.OrderItemInput{{Product: rice.ID.Hex(), Quantity: 1.5}}, "quantityMustBeInteger"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), user(), tc.items)
			svcErr := asServiceError(t, err)
			require.Equal(t, services.KindValidation, svcErr.Kind)
			require.Equal(t, tc.key, svcErr.Key)
		})
	}
}

func TestCreateOrderMalformedIDCarriesDetail(t *testing.T) {
	svc := buildService(newFakeProducts(), newFakeOrders(), nil)

	_, err := svc.Create(context.Background(), user(), []services.OrderItemInput{
		{Product: "zzz", Quantity: 1},
	})

	svcErr := asServiceError(t, err)
	require.Equal(t, "invalidProductId", svcErr.Key)
	require.Equal(t, "zzz", svcErr.Detail["invalidId"])
}

// ─── Get / List ───────────────────────────────────────────────────────────────

func TestGetMissingOrderIsNotFoundForEveryone(t *testing.T) {
	svc := buildService(newFakeProducts(), newFakeOrders(), nil)
	missing := primitive.NewObjectID()

	for _, caller := range []services.Identity{user(), admin()} {
		_, err := svc.Get(context.Background(), caller, missing)
		svcErr := asServiceError(t, err)
		require.Equal(t, services.KindNotFound, svcErr.Kind)
		require.Equal(t, "orderNotFound", svcErr.Key)
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	owner, stranger := user(), user()
	order := &models.Order{ID: primitive.NewObjectID(), User: owner.ID, Status: models.StatusPending}
	svc := buildService(newFakeProducts(), newFakeOrders(order), nil)

	_, err := svc.Get(context.Background(), stranger, order.ID)
	svcErr := asServiceError(t, err)
	require.Equal(t, services.KindForbidden, svcErr.Kind)
	require.Equal(t, "accessDeniedOwnOrdersOnly", svcErr.Key)

	_, err = svc.Get(context.Background(), admin(), order.ID)
	require.NoError(t, err, "admins may read any order")
}

func TestListScopesNonAdminsToOwnOrders(t *testing.T) {
	alice, bob := user(), user()
	orders := newFakeOrders(
		&models.Order{ID: primitive.NewObjectID(), User: alice.ID, Status: models.StatusPending},
		&models.Order{ID: primitive.NewObjectID(), User: alice.ID, Status: models.StatusShipped},
		&models.Order{ID: primitive.NewObjectID(), User: bob.ID, Status: models.StatusPending},
	)
	svc := buildService(newFakeProducts(), orders, nil)

	own, pagination, err := svc.List(context.Background(), alice, services.ListOrdersQuery{})
	require.NoError(t, err)
	require.Len(t, own, 2)
	require.EqualValues(t, 2, pagination.TotalOrders)
	for _, o := range own {
		require.Equal(t, alice.ID, o.User)
	}

	all, pagination, err := svc.List(context.Background(), admin(), services.ListOrdersQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.EqualValues(t, 3, pagination.TotalOrders)
	require.Equal(t, 1, pagination.CurrentPage)
	require.Equal(t, 10, pagination.Limit)
}

func TestListPagination(t *testing.T) {
	alice := user()
	orders := newFakeOrders()
	for i := 0; i < 5; i++ {
		o := &models.Order{ID: primitive.NewObjectID(), User: alice.ID, Status: models.StatusPending}
		orders.items[o.ID] = o
	}
	svc := buildService(newFakeProducts(), orders, nil)

	page, pagination, err := svc.List(context.Background(), alice, services.ListOrdersQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, 2, pagination.CurrentPage)
	require.Equal(t, 3, pagination.TotalPages)
	require.EqualValues(t, 5, pagination.TotalOrders)
}

// ─── ChangeStatus / Delete ────────────────────────────────────────────────────

func TestChangeStatus(t *testing.T) {
	order := &models.Order{ID: primitive.NewObjectID(), User: primitive.NewObjectID(), Status: models.StatusPending}
	svc := buildService(newFakeProducts(), newFakeOrders(order), nil)
	ctx := context.Background()

	_, err := svc.ChangeStatus(ctx, order.ID, "")
	require.Equal(t, "statusRequired", asServiceError(t, err).Key)

	_, err = svc.ChangeStatus(ctx, order.ID, "teleported")
	require.Equal(t, "invalidStatus", asServiceError(t, err).Key)

	_, err = svc.ChangeStatus(ctx, primitive.NewObjectID(), models.StatusShipped)
	require.Equal(t, "orderNotFound", asServiceError(t, err).Key)

	updated, err := svc.ChangeStatus(ctx, order.ID, models.StatusShipped)
	require.NoError(t, err)
	require.Equal(t, models.StatusShipped, updated.Status)
}

func TestDeleteMissingOrder(t *testing.T) {
	svc := buildService(newFakeProducts(), newFakeOrders(), nil)

	err := svc.Delete(context.Background(), primitive.NewObjectID())
	svcErr := asServiceError(t, err)
	require.Equal(t, services.KindNotFound, svcErr.Kind)
	require.Equal(t, "orderNotFound", svcErr.Key)
}

// ─── Cancel ───────────────────────────────────────────────────────────────────

func TestCancelRestoresStockExactlyOnce(t *testing.T) {
	rice := newProduct("Rice", 10.0, 3)
	products := newFakeProducts(rice)
	owner := user()
	order := &models.Order{
		ID:     primitive.NewObjectID(),
		User:   owner.ID,
		Status: models.StatusPending,
		OrderItems: []models.OrderItem{
			{Product: rice.ID, Quantity: 2, Price: 10.0},
		},
	}
	svc := buildService(products, newFakeOrders(order), nil)
	ctx := context.Background()

	cancelled, err := svc.Cancel(ctx, owner, order.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusCancelled, cancelled.Status)
	require.Equal(t, 5, products.stock(rice.ID))

	// A second cancel is rejected and must not restore again.
	_, err = svc.Cancel(ctx, owner, order.ID)
	svcErr := asServiceError(t, err)
	require.Equal(t, services.KindConflict, svcErr.Kind)
	require.Equal(t, "orderAlreadyCancelled", svcErr.Key)
	require.Equal(t, 5, products.stock(rice.ID))
}

func TestCancelRejectedStatesAreDistinct(t *testing.T) {
	owner := user()
	cases := []struct {
		status string
		key    string
	}{
		{models.StatusShipped, "cannotCancelOrder"},
		{models.StatusDelivered, "cannotCancelOrder"},
		{models.StatusCancelled, "orderAlreadyCancelled"},
	}

	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			order := &models.Order{ID: primitive.NewObjectID(), User: owner.ID, Status: tc.status}
			svc := buildService(newFakeProducts(), newFakeOrders(order), nil)

			_, err := svc.Cancel(context.Background(), owner, order.ID)
			require.Equal(t, tc.key, asServiceError(t, err).Key)
		})
	}
}

func TestCancelOthersOrderForbidden(t *testing.T) {
	owner, stranger := user(), user()
	order := &models.Order{ID: primitive.NewObjectID(), User: owner.ID, Status: models.StatusPending}
	svc := buildService(newFakeProducts(), newFakeOrders(order), nil)

	_, err := svc.Cancel(context.Background(), stranger, order.ID)
	svcErr := asServiceError(t, err)
	require.Equal(t, services.KindForbidden, svcErr.Kind)
	require.Equal(t, "accessDeniedOwnOrdersOnly", svcErr.Key)
}

func TestCancelProcessingOrderAllowed(t *testing.T) {
	rice := newProduct("Rice", 10.0, 0)
	products := newFakeProducts(rice)
	owner := user()
	order := &models.Order{
		ID:     primitive.NewObjectID(),
		User:   owner.ID,
		Status: models.StatusProcessing,
		OrderItems: []models.OrderItem{
			{Product: rice.ID, Quantity: 1, Price: 10.0},
		},
	}
	svc := buildService(products, newFakeOrders(order), nil)

	cancelled, err := svc.Cancel(context.Background(), owner, order.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusCancelled, cancelled.Status)
	require.Equal(t, 1, products.stock(rice.ID))
}
