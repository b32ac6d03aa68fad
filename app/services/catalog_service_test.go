package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rajatverma/kirana/app/models"
	"github.com/rajatverma/kirana/app/repositories"
	"github.com/rajatverma/kirana/app/services"
	"github.com/rajatverma/kirana/pkg/validate"
)

type fakeCategories struct {
	items map[primitive.ObjectID]models.Category
}

func newFakeCategories(categories ...models.Category) *fakeCategories {
	f := &fakeCategories{items: map[primitive.ObjectID]models.Category{}}
	for _, c := range categories {
		f.items[c.ID] = c
	}
	return f
}

func (f *fakeCategories) Create(_ context.Context, c *models.Category) error {
	c.ID = primitive.NewObjectID()
	f.items[c.ID] = *c
	return nil
}

func (f *fakeCategories) All(_ context.Context) ([]models.Category, error) {
	var out []models.Category
	for _, c := range f.items {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCategories) FindByID(_ context.Context, id primitive.ObjectID) (models.Category, error) {
	if c, ok := f.items[id]; ok {
		return c, nil
	}
	return models.Category{}, repositories.ErrNotFound
}

type fakeCatalogProducts struct {
	items map[primitive.ObjectID]*models.Product
	views map[primitive.ObjectID]int
}

func newFakeCatalogProducts(products ...*models.Product) *fakeCatalogProducts {
	f := &fakeCatalogProducts{
		items: map[primitive.ObjectID]*models.Product{},
		views: map[primitive.ObjectID]int{},
	}
	for _, p := range products {
		f.items[p.ID] = p
	}
	return f
}

func (f *fakeCatalogProducts) Create(_ context.Context, p *models.Product) error {
	p.ID = primitive.NewObjectID()
	f.items[p.ID] = p
	return nil
}

func (f *fakeCatalogProducts) FindByID(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	if p, ok := f.items[id]; ok {
		return *p, nil
	}
	return models.Product{}, repositories.ErrNotFound
}

func (f *fakeCatalogProducts) Search(_ context.Context, term string, category primitive.ObjectID) ([]models.Product, error) {
	var out []models.Product
	for _, p := range f.items {
		if term != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(term)) {
			continue
		}
		if !category.IsZero() && p.Category != category {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeCatalogProducts) Update(_ context.Context, p *models.Product) error {
	if _, ok := f.items[p.ID]; !ok {
		return repositories.ErrNotFound
	}
	clone := *p
	f.items[p.ID] = &clone
	return nil
}

func (f *fakeCatalogProducts) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.items[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeCatalogProducts) IncrementViews(_ context.Context, id primitive.ObjectID) error {
	f.views[id]++
	return nil
}

func TestProductInputAcceptsZeroPriceAndStock(t *testing.T) {
	// Zero is a legal price (free item) and a legal stock count
	// (sold-out listing); neither may trip field validation.
	errs := validate.Struct(services.ProductInput{
		Title:        "Basmati Rice 5kg",
		Price:        0,
		Category:     primitive.NewObjectID().Hex(),
		CountInStock: 0,
	})
	require.False(t, validate.HasErrors(errs), "unexpected errors: %v", errs)

	errs = validate.Struct(services.ProductInput{
		Title:        "Basmati Rice 5kg",
		Price:        -1,
		Category:     primitive.NewObjectID().Hex(),
		CountInStock: -2,
	})
	require.Contains(t, errs, "price")
	require.Contains(t, errs, "countInStock")
}

func TestCreateProductWithZeroStock(t *testing.T) {
	grocery := models.Category{ID: primitive.NewObjectID(), Name: "Groceries"}
	svc := services.NewCatalogService(newFakeCategories(grocery), newFakeCatalogProducts())

	created, err := svc.CreateProduct(context.Background(), services.ProductInput{
		Title:        "Seasonal Mango Box",
		Price:        0,
		Category:     grocery.ID.Hex(),
		CountInStock: 0,
	})
	require.NoError(t, err)
	require.Equal(t, 0, created.CountInStock)
	require.Equal(t, 0.0, created.Price)
}

func TestCreateCategory(t *testing.T) {
	svc := services.NewCatalogService(newFakeCategories(), newFakeCatalogProducts())
	ctx := context.Background()

	t.Run("name too short", func(t *testing.T) {
		for _, name := range []string{"", "ab", "  a  "} {
			_, err := svc.CreateCategory(ctx, name)
			svcErr := asServiceError(t, err)
			require.Equal(t, services.KindValidation, svcErr.Kind)
			require.Equal(t, "categoryNameValidation", svcErr.Key)
		}
	})

	t.Run("name is trimmed", func(t *testing.T) {
		created, err := svc.CreateCategory(ctx, "  Beverages  ")
		require.NoError(t, err)
		require.Equal(t, "Beverages", created.Name)
		require.False(t, created.ID.IsZero())
	})
}

func TestListCategoriesEmpty(t *testing.T) {
	svc := services.NewCatalogService(newFakeCategories(), newFakeCatalogProducts())

	_, err := svc.ListCategories(context.Background())
	svcErr := asServiceError(t, err)
	require.Equal(t, services.KindNotFound, svcErr.Kind)
	require.Equal(t, "noCategories", svcErr.Key)
}

func TestCreateProductRequiresExistingCategory(t *testing.T) {
	grocery := models.Category{ID: primitive.NewObjectID(), Name: "Groceries"}
	svc := services.NewCatalogService(newFakeCategories(grocery), newFakeCatalogProducts())
	ctx := context.Background()

	input := services.ProductInput{
		Title:        "Basmati Rice 5kg",
		Price:        12.5,
		CountInStock: 40,
	}

	t.Run("malformed category id", func(t *testing.T) {
		in := input
		in.Category = "nope"
		_, err := svc.CreateProduct(ctx, in)
		require.Equal(t, "categoryNotFound", asServiceError(t, err).Key)
	})

	t.Run("unknown category", func(t *testing.T) {
		in := input
		in.Category = primitive.NewObjectID().Hex()
		_, err := svc.CreateProduct(ctx, in)
		require.Equal(t, "categoryNotFound", asServiceError(t, err).Key)
	})

	t.Run("success", func(t *testing.T) {
		in := input
		in.Category = grocery.ID.Hex()
		created, err := svc.CreateProduct(ctx, in)
		require.NoError(t, err)
		require.Equal(t, grocery.ID, created.Category)
		require.Equal(t, 40, created.CountInStock)
	})
}

func TestListProducts(t *testing.T) {
	grocery := models.Category{ID: primitive.NewObjectID(), Name: "Groceries"}
	household := models.Category{ID: primitive.NewObjectID(), Name: "Household"}
	rice := &models.Product{ID: primitive.NewObjectID(), Title: "Basmati Rice", Category: grocery.ID}
	soap := &models.Product{ID: primitive.NewObjectID(), Title: "Dish Soap", Category: household.ID}
	svc := services.NewCatalogService(newFakeCategories(grocery, household), newFakeCatalogProducts(rice, soap))
	ctx := context.Background()

	t.Run("all", func(t *testing.T) {
		products, err := svc.ListProducts(ctx, services.ListProductsQuery{})
		require.NoError(t, err)
		require.Len(t, products, 2)
	})

	t.Run("search term", func(t *testing.T) {
		products, err := svc.ListProducts(ctx, services.ListProductsQuery{Search: "rice"})
		require.NoError(t, err)
		require.Len(t, products, 1)
		require.Equal(t, "Basmati Rice", products[0].Title)
	})

	t.Run("category filter", func(t *testing.T) {
		products, err := svc.ListProducts(ctx, services.ListProductsQuery{Category: household.ID.Hex()})
		require.NoError(t, err)
		require.Len(t, products, 1)
		require.Equal(t, "Dish Soap", products[0].Title)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := svc.ListProducts(ctx, services.ListProductsQuery{Search: "caviar"})
		require.Equal(t, "noProducts", asServiceError(t, err).Key)
	})
}

func TestGetProductBumpsViews(t *testing.T) {
	rice := &models.Product{ID: primitive.NewObjectID(), Title: "Basmati Rice"}
	products := newFakeCatalogProducts(rice)
	svc := services.NewCatalogService(newFakeCategories(), products)
	ctx := context.Background()

	got, err := svc.GetProduct(ctx, rice.ID.Hex())
	require.NoError(t, err)
	require.Equal(t, rice.ID, got.ID)
	require.Equal(t, 1, products.views[rice.ID])

	_, err = svc.GetProduct(ctx, primitive.NewObjectID().Hex())
	require.Equal(t, "productNotFound", asServiceError(t, err).Key)

	_, err = svc.GetProduct(ctx, "not-hex")
	require.Equal(t, "productNotFound", asServiceError(t, err).Key)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	grocery := models.Category{ID: primitive.NewObjectID(), Name: "Groceries"}
	rice := &models.Product{ID: primitive.NewObjectID(), Title: "Basmati Rice", Price: 12.5, Category: grocery.ID, CountInStock: 40}
	products := newFakeCatalogProducts(rice)
	svc := services.NewCatalogService(newFakeCategories(grocery), products)
	ctx := context.Background()

	updated, err := svc.UpdateProduct(ctx, rice.ID.Hex(), services.ProductInput{
		Title:        "Basmati Rice 5kg",
		Price:        13.0,
		Category:     grocery.ID.Hex(),
		CountInStock: 35,
	})
	require.NoError(t, err)
	require.Equal(t, "Basmati Rice 5kg", updated.Title)
	require.Equal(t, 13.0, updated.Price)
	require.Equal(t, 35, updated.CountInStock)

	require.NoError(t, svc.DeleteProduct(ctx, rice.ID.Hex()))
	err = svc.DeleteProduct(ctx, rice.ID.Hex())
	require.Equal(t, "productNotFound", asServiceError(t, err).Key)
}
