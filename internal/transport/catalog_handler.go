package transport

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"wishyoulucky/internal/domain"
	"wishyoulucky/internal/middleware"
	"wishyoulucky/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductRequest is the admin create/update payload.
type ProductRequest struct {
	SKU          string               `json:"sku" validate:"required,max=64"`
	Name         string               `json:"name" validate:"required,max=255"`
	Slug         string               `json:"slug" validate:"max=255"`
	Category     string               `json:"category" validate:"max=100"`
	Description  string               `json:"description"`
	Image        string               `json:"image"`
	Status       domain.ProductStatus `json:"product_status" validate:"omitempty,productstatus"`
	ProductType  string               `json:"product_type" validate:"max=100"`
	SellingPrice decimal.Decimal      `json:"selling_price"`
	Quantity     int                  `json:"quantity" validate:"gte=0"`
	ShipmentDate *time.Time           `json:"shipment_date"`
	Options      json.RawMessage      `json:"options"`
	Costs        *domain.ProductCosts `json:"costs"`
	Tags         []string             `json:"tags"`
}

func (req ProductRequest) toProduct() *domain.Product {
	return &domain.Product{
		SKU:          req.SKU,
		Name:         req.Name,
		Slug:         req.Slug,
		Category:     req.Category,
		Description:  req.Description,
		Image:        req.Image,
		Status:       req.Status,
		ProductType:  req.ProductType,
		SellingPrice: req.SellingPrice,
		Quantity:     req.Quantity,
		ShipmentDate: req.ShipmentDate,
		Options:      req.Options,
		Costs:        req.Costs,
		Tags:         req.Tags,
	}
}

type TagsRequest struct {
	Tags []string `json:"tags" validate:"dive,required,max=50"`
}

type ProductImageRequest struct {
	ImageURL    string `json:"image_url" validate:"required"`
	VariantName string `json:"variant_name" validate:"max=100"`
}

type ReorderImagesRequest struct {
	ImageIDs []int64 `json:"image_ids" validate:"required,min=1"`
}

type CategoryRequest struct {
	Name              string `json:"name" validate:"required,max=100"`
	Image             string `json:"image"`
	DisplayOnHomepage bool   `json:"display_on_homepage"`
	HomepageOrder     int    `json:"homepage_order" validate:"gte=0"`
}

// CatalogHandler serves products, categories and tags.
type CatalogHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

func NewCatalogHandler(catalog service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// RegisterRoutes mounts the public catalog and the admin catalog endpoints.
// optionalAuth lets admins see cost fields on public reads.
func (h *CatalogHandler) RegisterRoutes(r chi.Router, optionalAuth func(http.Handler) http.Handler, admin ...func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(optionalAuth)
		r.Get("/api/products", h.ListProducts)
		r.Get("/api/products/{id}", h.GetProduct)
		r.Get("/api/products/slug/{slug}", h.GetProductBySlug)
	})
	r.Get("/api/categories", h.ListCategories)
	r.Get("/api/categories/homepage", h.ListHomepageCategories)
	r.Get("/api/tags", h.ListTags)

	r.Route("/api/admin/products", func(r chi.Router) {
		r.Use(admin...)
		r.Post("/", h.CreateProduct)
		r.Put("/{id}", h.UpdateProduct)
		r.Delete("/{id}", h.DeleteProduct)
		r.Put("/{id}/tags", h.SetTags)
		r.Post("/{id}/images", h.AddImage)
		r.Put("/{id}/images/order", h.ReorderImages)
		r.Delete("/{id}/images/{imageID}", h.DeleteImage)
	})
	r.Route("/api/admin/categories", func(r chi.Router) {
		r.Use(admin...)
		r.Post("/", h.CreateCategory)
		r.Put("/{id}", h.UpdateCategory)
		r.Delete("/{id}", h.DeleteCategory)
	})
}

// productFilter reads listing filters from the query string.
func productFilter(r *http.Request) domain.ProductFilter {
	q := r.URL.Query()

	var categories []string
	for _, c := range q["category"] {
		for _, part := range strings.Split(c, ",") {
			if part = strings.TrimSpace(part); part != "" {
				categories = append(categories, part)
			}
		}
	}

	return domain.ProductFilter{
		Categories:  categories,
		Query:       q.Get("q"),
		Tag:         strings.TrimSpace(q.Get("tag")),
		Status:      domain.ProductStatus(strings.TrimSpace(q.Get("status"))),
		ProductType: strings.TrimSpace(q.Get("type")),
		Page:        queryInt(r, "page"),
		PageSize:    queryInt(r, "page_size"),
		SortBy:      q.Get("sort"),
		SortDesc:    strings.EqualFold(q.Get("order"), "desc"),
	}
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.ListProducts(r.Context(), productFilter(r), isAdmin(r))
	if err != nil {
		respondError(w, h.logger, err, "failed to list products")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id, isAdmin(r))
	if err != nil {
		respondError(w, h.logger, err, "failed to get product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) GetProductBySlug(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProductBySlug(r.Context(), chi.URLParam(r, "slug"), isAdmin(r))
	if err != nil {
		respondError(w, h.logger, err, "failed to get product")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product := req.toProduct()
	if err := h.catalog.CreateProduct(r.Context(), product); err != nil {
		respondError(w, h.logger, err, "failed to create product")
		return
	}
	if req.Tags != nil {
		if err := h.catalog.SetProductTags(r.Context(), product.ID, req.Tags); err != nil {
			respondError(w, h.logger, err, "failed to set product tags")
			return
		}
	}

	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	product := req.toProduct()
	product.ID = id
	if err := h.catalog.UpdateProduct(r.Context(), product); err != nil {
		respondError(w, h.logger, err, "failed to update product")
		return
	}
	if req.Tags != nil {
		if err := h.catalog.SetProductTags(r.Context(), id, req.Tags); err != nil {
			respondError(w, h.logger, err, "failed to set product tags")
			return
		}
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		respondError(w, h.logger, err, "failed to delete product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) SetTags(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req TagsRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	if err := h.catalog.SetProductTags(r.Context(), id, req.Tags); err != nil {
		respondError(w, h.logger, err, "failed to set product tags")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"tags": req.Tags})
}

func (h *CatalogHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.catalog.ListTags(r.Context())
	if err != nil {
		respondError(w, h.logger, err, "failed to list tags")
		return
	}
	if tags == nil {
		tags = []domain.Tag{}
	}
	middleware.RespondWithJSON(w, http.StatusOK, tags)
}

func (h *CatalogHandler) AddImage(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req ProductImageRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	image := &domain.ProductImage{ProductID: id, ImageURL: req.ImageURL, VariantName: req.VariantName}
	if err := h.catalog.AddProductImage(r.Context(), image); err != nil {
		respondError(w, h.logger, err, "failed to add product image")
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, image)
}

func (h *CatalogHandler) ReorderImages(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req ReorderImagesRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	images, err := h.catalog.ReorderProductImages(r.Context(), id, req.ImageIDs)
	if err != nil {
		respondError(w, h.logger, err, "failed to reorder product images")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, images)
}

func (h *CatalogHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	imageID, ok2 := int64Param(r, "imageID")
	if !ok || !ok2 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.catalog.DeleteProductImage(r.Context(), id, imageID); err != nil {
		respondError(w, h.logger, err, "failed to delete product image")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		respondError(w, h.logger, err, "failed to list categories")
		return
	}
	if categories == nil {
		categories = []*domain.Category{}
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

func (h *CatalogHandler) ListHomepageCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListHomepageCategories(r.Context())
	if err != nil {
		respondError(w, h.logger, err, "failed to list categories")
		return
	}
	if categories == nil {
		categories = []*domain.Category{}
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

func (req CategoryRequest) toCategory() *domain.Category {
	return &domain.Category{
		Name:              req.Name,
		Image:             req.Image,
		DisplayOnHomepage: req.DisplayOnHomepage,
		HomepageOrder:     req.HomepageOrder,
	}
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	category := req.toCategory()
	if err := h.catalog.CreateCategory(r.Context(), category); err != nil {
		respondError(w, h.logger, err, "failed to create category")
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	category := req.toCategory()
	category.ID = id
	if err := h.catalog.UpdateCategory(r.Context(), category); err != nil {
		respondError(w, h.logger, err, "failed to update category")
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, category)
}

func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	if err := h.catalog.DeleteCategory(r.Context(), id); err != nil {
		respondError(w, h.logger, err, "failed to delete category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
