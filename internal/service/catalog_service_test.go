package service

import (
	"context"
	"testing"

	"wishyoulucky/internal/domain"
	"wishyoulucky/internal/repository"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCatalog(products ...*domain.Product) (CatalogService, *mockProductRepository, *mockImageRepository, *mockCategoryRepository) {
	productRepo := newMockProductRepository(products...)
	images := newMockImageRepository()
	categories := newMockCategoryRepository()
	return NewCatalogService(productRepo, images, categories, zap.NewNop()), productRepo, images, categories
}

func costedProduct(id int64) *domain.Product {
	return &domain.Product{
		ID:           id,
		SKU:          "SKU-1",
		Name:         "Hello Kitty Keychain",
		Slug:         "hello-kitty-keychain-sku-1",
		Status:       domain.ProductStatusReady,
		SellingPrice: decimal.NewFromInt(290),
		Costs: &domain.ProductCosts{
			PriceYuan:    decimal.NewFromInt(30),
			ExchangeRate: decimal.RequireFromString("5.1"),
		},
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Hello Kitty", "hello-kitty"},
		{"  Pop Mart -- LABUBU!! ", "pop-mart-labubu"},
		{"ＡＢＣ１２３", "abc123"},
		{"ตุ๊กตา หมี", "ตุ๊กตา-หมี"},
		{"---", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

var genSlugSource = gen.RegexMatch(`[A-Za-z0-9ก-ฮ่-๋ !_.&/-]{0,30}`)

func TestProperty_SlugifyIsIdempotent(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("slugify(slugify(s)) == slugify(s)", prop.ForAll(
		func(s string) bool {
			once := Slugify(s)
			return Slugify(once) == once
		},
		genSlugSource,
	))

	properties.Property("slugs never start or end with a dash", prop.ForAll(
		func(s string) bool {
			slug := Slugify(s)
			return slug == "" || (slug[0] != '-' && slug[len(slug)-1] != '-')
		},
		genSlugSource,
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCatalogService_PublicReadsHideCosts(t *testing.T) {
	svc, _, _, _ := newTestCatalog(costedProduct(1))
	ctx := context.Background()

	public, err := svc.GetProduct(ctx, 1, false)
	require.NoError(t, err)
	assert.Nil(t, public.Costs)

	admin, err := svc.GetProduct(ctx, 1, true)
	require.NoError(t, err)
	require.NotNil(t, admin.Costs)
	assert.True(t, admin.Costs.PriceYuan.Equal(decimal.NewFromInt(30)))

	bySlug, err := svc.GetProductBySlug(ctx, " hello-kitty-keychain-sku-1 ", false)
	require.NoError(t, err)
	assert.Nil(t, bySlug.Costs)

	page, err := svc.ListProducts(ctx, domain.ProductFilter{}, false)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Nil(t, page.Data[0].Costs)
}

func TestCatalogService_ListProductsPagination(t *testing.T) {
	svc, repo, _, _ := newTestCatalog(costedProduct(1))

	page, err := svc.ListProducts(context.Background(), domain.ProductFilter{Page: 0, PageSize: 500, Query: "  kitty "}, true)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.lastList.Page)
	assert.Equal(t, domain.MaxPageSize, repo.lastList.PageSize)
	assert.Equal(t, "kitty", repo.lastList.Query)
	assert.Equal(t, Pagination{Page: 1, PageSize: domain.MaxPageSize, Total: 1, TotalPages: 1}, page.Pagination)

	_, err = svc.ListProducts(context.Background(), domain.ProductFilter{Status: "bogus"}, false)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "status", verrs[0].Field)
}

func TestNewPagination(t *testing.T) {
	assert.Equal(t, 0, newPagination(1, 24, 0).TotalPages)
	assert.Equal(t, 1, newPagination(1, 24, 24).TotalPages)
	assert.Equal(t, 2, newPagination(1, 24, 25).TotalPages)
}

func TestCatalogService_CreateProductDefaults(t *testing.T) {
	svc, repo, _, _ := newTestCatalog()

	p := &domain.Product{Name: " Sonny Angel ", SKU: "SA-01", SellingPrice: decimal.NewFromInt(450)}
	require.NoError(t, svc.CreateProduct(context.Background(), p))

	assert.NotZero(t, p.ID)
	assert.Equal(t, "Sonny Angel", p.Name)
	assert.Equal(t, domain.ProductStatusReady, p.Status)
	assert.Equal(t, domain.DefaultProductType, p.ProductType)
	assert.Equal(t, "sonny-angel-sa-01", p.Slug)
	assert.Contains(t, repo.products, p.ID)

	err := svc.CreateProduct(context.Background(), &domain.Product{Name: "Dup", SKU: "SA-01"})
	assert.ErrorIs(t, err, repository.ErrProductSKUExists)
}

func TestCatalogService_CreateProductValidation(t *testing.T) {
	svc, _, _, _ := newTestCatalog()

	err := svc.CreateProduct(context.Background(), &domain.Product{
		SellingPrice: decimal.NewFromInt(-1),
		Quantity:     -2,
		Status:       "unknown",
	})

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"name", "sku", "selling_price", "quantity", "product_status"}, fields)
}

func TestCatalogService_UpdateProductKeepsExplicitSlug(t *testing.T) {
	svc, repo, _, _ := newTestCatalog(costedProduct(1))

	p := costedProduct(1)
	p.Slug = "Kitty Special"
	require.NoError(t, svc.UpdateProduct(context.Background(), p))
	assert.Equal(t, "kitty-special", repo.products[1].Slug)

	missing := costedProduct(99)
	assert.ErrorIs(t, svc.UpdateProduct(context.Background(), missing), repository.ErrProductNotFound)
}

func TestCatalogService_Images(t *testing.T) {
	svc, _, _, _ := newTestCatalog(costedProduct(1))
	ctx := context.Background()

	err := svc.AddProductImage(ctx, &domain.ProductImage{ProductID: 1})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)

	err = svc.AddProductImage(ctx, &domain.ProductImage{ProductID: 42, ImageURL: "a.jpg"})
	assert.ErrorIs(t, err, repository.ErrProductNotFound)

	a := &domain.ProductImage{ProductID: 1, ImageURL: "a.jpg"}
	b := &domain.ProductImage{ProductID: 1, ImageURL: "b.jpg"}
	require.NoError(t, svc.AddProductImage(ctx, a))
	require.NoError(t, svc.AddProductImage(ctx, b))

	ordered, err := svc.ReorderProductImages(ctx, 1, []int64{b.ID, a.ID})
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, "b.jpg", ordered[0].ImageURL)
	assert.Equal(t, "a.jpg", ordered[1].ImageURL)

	_, err = svc.ReorderProductImages(ctx, 1, []int64{a.ID, a.ID})
	require.ErrorAs(t, err, &verrs)

	product, err := svc.GetProduct(ctx, 1, false)
	require.NoError(t, err)
	assert.Len(t, product.Images, 2)

	require.NoError(t, svc.DeleteProductImage(ctx, 1, a.ID))
	assert.ErrorIs(t, svc.DeleteProductImage(ctx, 1, a.ID), repository.ErrProductImageNotFound)
}

func TestCatalogService_Categories(t *testing.T) {
	svc, _, _, _ := newTestCatalog()
	ctx := context.Background()

	figures := &domain.Category{Name: " Figures ", DisplayOnHomepage: true}
	require.NoError(t, svc.CreateCategory(ctx, figures))
	assert.Equal(t, "Figures", figures.Name)
	require.NoError(t, svc.CreateCategory(ctx, &domain.Category{Name: "Plush"}))

	assert.ErrorIs(t, svc.CreateCategory(ctx, &domain.Category{Name: "figures"}), repository.ErrCategoryAlreadyExists)

	var verrs ValidationErrors
	require.ErrorAs(t, svc.CreateCategory(ctx, &domain.Category{Name: " "}), &verrs)
	require.ErrorAs(t, svc.UpdateCategory(ctx, &domain.Category{ID: figures.ID, Name: "x", HomepageOrder: -1}), &verrs)

	all, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	home, err := svc.ListHomepageCategories(ctx)
	require.NoError(t, err)
	require.Len(t, home, 1)
	assert.Equal(t, "Figures", home[0].Name)

	require.NoError(t, svc.DeleteCategory(ctx, figures.ID))
	assert.ErrorIs(t, svc.DeleteCategory(ctx, figures.ID), repository.ErrCategoryNotFound)
}

func TestCatalogService_Tags(t *testing.T) {
	svc, repo, _, _ := newTestCatalog(costedProduct(1))
	ctx := context.Background()

	require.NoError(t, svc.SetProductTags(ctx, 1, []string{"sanrio", "kitty"}))
	assert.Equal(t, []string{"sanrio", "kitty"}, repo.products[1].Tags)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Tag{{ID: 1, Name: "sanrio"}}, tags)
}
