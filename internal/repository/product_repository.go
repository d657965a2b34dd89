package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"wishyoulucky/internal/domain"

	"github.com/lib/pq"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrProductSKUExists  = errors.New("product with this sku already exists")
	ErrProductSlugExists = errors.New("product with this slug already exists")
	ErrTagNameRequired   = errors.New("tag name must not be empty")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Product, error)
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error)
	SetTags(ctx context.Context, productID int64, tags []string) error
	ListTags(ctx context.Context) ([]domain.Tag, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// sortable columns exposed to the listing API
var productSortColumns = map[string]string{
	"created_at":    "p.created_at",
	"selling_price": "p.selling_price",
	"name":          "p.name",
}

const productSelect = `
	SELECT p.id, p.sku, p.name, p.slug, p.category, p.description, p.image,
	       p.product_status, p.product_type, p.selling_price, p.quantity,
	       p.shipment_date, p.options,
	       p.price_yuan, p.exchange_rate, p.import_cost, p.cost_thb,
	       p.created_at, p.updated_at,
	       COALESCE((
	           SELECT array_agg(t.name ORDER BY t.name)
	           FROM product_tags pt JOIN tags t ON t.id = pt.tag_id
	           WHERE pt.product_id = p.id
	       ), '{}') AS tags
	FROM products p
`

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{Costs: &domain.ProductCosts{}}
	var (
		shipmentDate sql.NullTime
		options      []byte
		tags         pq.StringArray
	)

	err := row.Scan(
		&product.ID,
		&product.SKU,
		&product.Name,
		&product.Slug,
		&product.Category,
		&product.Description,
		&product.Image,
		&product.Status,
		&product.ProductType,
		&product.SellingPrice,
		&product.Quantity,
		&shipmentDate,
		&options,
		&product.Costs.PriceYuan,
		&product.Costs.ExchangeRate,
		&product.Costs.ImportCost,
		&product.Costs.CostTHB,
		&product.CreatedAt,
		&product.UpdatedAt,
		&tags,
	)
	if err != nil {
		return nil, err
	}

	if shipmentDate.Valid {
		t := shipmentDate.Time
		product.ShipmentDate = &t
	}
	if len(options) > 0 {
		product.Options = options
	}
	product.Tags = []string(tags)
	if product.Tags == nil {
		product.Tags = []string{}
	}

	return product, nil
}

func productCosts(p *domain.Product) domain.ProductCosts {
	if p.Costs == nil {
		return domain.ProductCosts{}
	}
	return *p.Costs
}

func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func mapProductWriteError(err error, action string) error {
	switch {
	case isUniqueViolation(err, "products_sku_key"):
		return ErrProductSKUExists
	case isUniqueViolation(err, "products_slug_key"):
		return ErrProductSlugExists
	}
	return fmt.Errorf("failed to %s product: %w", action, err)
}

// Create inserts the product and its tags in one transaction.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (
			sku, name, slug, category, description, image, product_status, product_type,
			selling_price, quantity, shipment_date, options,
			price_yuan, exchange_rate, import_cost, cost_thb
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at
	`
	costs := productCosts(product)

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, query,
			product.SKU,
			product.Name,
			product.Slug,
			product.Category,
			product.Description,
			product.Image,
			product.Status,
			product.TypeOrDefault(),
			product.SellingPrice,
			product.Quantity,
			product.ShipmentDate,
			nullableJSON(product.Options),
			costs.PriceYuan,
			costs.ExchangeRate,
			costs.ImportCost,
			costs.CostTHB,
		).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
		if err != nil {
			return mapProductWriteError(err, "create")
		}

		return replaceTags(ctx, tx, product.ID, product.Tags)
	})
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET sku = $2, name = $3, slug = $4, category = $5, description = $6, image = $7,
		    product_status = $8, product_type = $9, selling_price = $10, quantity = $11,
		    shipment_date = $12, options = $13,
		    price_yuan = $14, exchange_rate = $15, import_cost = $16, cost_thb = $17
		WHERE id = $1
	`
	costs := productCosts(product)

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			product.ID,
			product.SKU,
			product.Name,
			product.Slug,
			product.Category,
			product.Description,
			product.Image,
			product.Status,
			product.TypeOrDefault(),
			product.SellingPrice,
			product.Quantity,
			product.ShipmentDate,
			nullableJSON(product.Options),
			costs.PriceYuan,
			costs.ExchangeRate,
			costs.ImportCost,
			costs.CostTHB,
		)
		if err != nil {
			return mapProductWriteError(err, "update")
		}
		if err := expectOneRow(result, ErrProductNotFound); err != nil {
			return err
		}

		product.UpdatedAt = time.Now()
		return replaceTags(ctx, tx, product.ID, product.Tags)
	})
}

func (r *productRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return expectOneRow(result, ErrProductNotFound)
}

func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := scanProduct(r.db.QueryRowContext(ctx, productSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

func (r *productRepository) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	product, err := scanProduct(r.db.QueryRowContext(ctx, productSelect+` WHERE p.slug = $1`, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by slug: %w", err)
	}

	return product, nil
}

// FindByIDs loads several products at once; missing ids are absent from the map.
func (r *productRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Product, error) {
	found := make(map[int64]*domain.Product, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	rows, err := r.db.QueryContext(ctx, productSelect+` WHERE p.id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		found[product.ID] = product
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return found, nil
}

// buildProductWhere turns a filter into a WHERE clause with positional arguments.
func buildProductWhere(filter domain.ProductFilter) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)
	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.Categories) > 0 {
		conditions = append(conditions, "p.category = ANY("+next(pq.Array(filter.Categories))+")")
	}
	if filter.Query != "" {
		p := next(likePattern(filter.Query))
		conditions = append(conditions, "(p.name ILIKE "+p+" OR p.sku ILIKE "+p+")")
	}
	if filter.Tag != "" {
		conditions = append(conditions, `EXISTS (
			SELECT 1 FROM product_tags pt JOIN tags t ON t.id = pt.tag_id
			WHERE pt.product_id = p.id AND t.name = `+next(filter.Tag)+`)`)
	}
	if filter.Status != "" {
		conditions = append(conditions, "p.product_status = "+next(string(filter.Status)))
	}
	if filter.ProductType != "" {
		conditions = append(conditions, "p.product_type = "+next(filter.ProductType))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// List returns one page of products matching filter and the total match count.
func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error) {
	filter.Normalize()

	direction := "ASC"
	sortColumn, ok := productSortColumns[filter.SortBy]
	if !ok {
		sortColumn, direction = productSortColumns["created_at"], "DESC"
	}
	if filter.SortDesc {
		direction = "DESC"
	}

	whereClause, args := buildProductWhere(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM products p ` + whereClause
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := fmt.Sprintf(`%s %s ORDER BY %s %s, p.id %s LIMIT $%d OFFSET $%d`,
		productSelect, whereClause, sortColumn, direction, direction, len(args)+1, len(args)+2)
	args = append(args, filter.PageSize, filter.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

// SetTags replaces the tag set of a product, creating unknown tags.
func (r *productRepository) SetTags(ctx context.Context, productID int64, tags []string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check product: %w", err)
		}
		if !exists {
			return ErrProductNotFound
		}
		return replaceTags(ctx, tx, productID, tags)
	})
}

func replaceTags(ctx context.Context, tx execer, productID int64, tags []string) error {
	names := normalizeTags(tags)
	for _, name := range names {
		if name == "" {
			return ErrTagNameRequired
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM product_tags WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("failed to clear product tags: %w", err)
	}
	if len(names) == 0 {
		return nil
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tags (name) SELECT unnest($1::text[]) ON CONFLICT (name) DO NOTHING`,
		pq.Array(names),
	); err != nil {
		return fmt.Errorf("failed to create tags: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO product_tags (product_id, tag_id)
		SELECT $1, id FROM tags WHERE name = ANY($2::text[])
		ON CONFLICT DO NOTHING
	`, productID, pq.Array(names)); err != nil {
		return fmt.Errorf("failed to attach tags: %w", err)
	}

	return nil
}

// normalizeTags trims and de-duplicates tag names, keeping first-seen order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		name := strings.TrimSpace(tag)
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func (r *productRepository) ListTags(ctx context.Context) ([]domain.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	tags := []domain.Tag{}
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}

	return tags, nil
}
