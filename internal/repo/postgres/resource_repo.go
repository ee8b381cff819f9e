package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ibitsola/Tekhnologia/internal/domain/model"
)

var ErrResourceNotFound = errors.New("resource not found")

type ResourceRepo struct {
	pool *pgxpool.Pool
}

// ResourceFilter narrows List. Nil fields are ignored.
type ResourceFilter struct {
	Category *string
	IsFree   *bool
}

type ResourceUpdate struct {
	Title       string
	Category    *string
	IsFree      bool
	PriceCents  *int64
	ExternalURL *string
}

func NewResourceRepo(pool *pgxpool.Pool) *ResourceRepo {
	return &ResourceRepo{pool: pool}
}

const resourceColumns = `id, title, file_key, file_name, content_type, category, is_free, price_cents, external_url, uploaded_by, created_at`

func (r *ResourceRepo) List(ctx context.Context, filter ResourceFilter) ([]model.Resource, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	query := `SELECT ` + resourceColumns + ` FROM resources`
	var (
		clauses []string
		args    []any
	)
	if filter.Category != nil && strings.TrimSpace(*filter.Category) != "" {
		args = append(args, strings.TrimSpace(*filter.Category))
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.IsFree != nil {
		args = append(args, *filter.IsFree)
		clauses = append(clauses, fmt.Sprintf("is_free = $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	defer rows.Close()

	resources := make([]model.Resource, 0)
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resource row: %w", err)
		}
		resources = append(resources, resource)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resource rows: %w", err)
	}

	return resources, nil
}

func (r *ResourceRepo) FindByID(ctx context.Context, resourceID int64) (model.Resource, error) {
	if r.pool == nil {
		return model.Resource{}, fmt.Errorf("postgres pool is nil")
	}
	if resourceID <= 0 {
		return model.Resource{}, fmt.Errorf("invalid resource id")
	}

	resource, err := scanResource(r.pool.QueryRow(ctx, `
SELECT `+resourceColumns+`
FROM resources
WHERE id = $1
LIMIT 1
`, resourceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Resource{}, ErrResourceNotFound
		}
		return model.Resource{}, fmt.Errorf("find resource by id: %w", err)
	}

	return resource, nil
}

func (r *ResourceRepo) Insert(ctx context.Context, resource model.Resource) (model.Resource, error) {
	if r.pool == nil {
		return model.Resource{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(resource.Title) == "" {
		return model.Resource{}, fmt.Errorf("invalid resource insert payload")
	}

	created, err := scanResource(r.pool.QueryRow(ctx, `
INSERT INTO resources (
	title,
	file_key,
	file_name,
	content_type,
	category,
	is_free,
	price_cents,
	external_url,
	uploaded_by,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
RETURNING `+resourceColumns+`
`,
		strings.TrimSpace(resource.Title),
		resource.FileKey,
		resource.FileName,
		resource.ContentType,
		resource.Category,
		resource.IsFree,
		resource.PriceCents,
		resource.ExternalURL,
		resource.UploadedBy,
	))
	if err != nil {
		return model.Resource{}, fmt.Errorf("insert resource: %w", err)
	}

	return created, nil
}

func (r *ResourceRepo) Update(ctx context.Context, resourceID int64, update ResourceUpdate) (model.Resource, error) {
	if r.pool == nil {
		return model.Resource{}, fmt.Errorf("postgres pool is nil")
	}
	if resourceID <= 0 || strings.TrimSpace(update.Title) == "" {
		return model.Resource{}, fmt.Errorf("invalid resource update payload")
	}

	updated, err := scanResource(r.pool.QueryRow(ctx, `
UPDATE resources
SET
	title = $2,
	category = $3,
	is_free = $4,
	price_cents = $5,
	external_url = $6
WHERE id = $1
RETURNING `+resourceColumns+`
`,
		resourceID,
		strings.TrimSpace(update.Title),
		update.Category,
		update.IsFree,
		update.PriceCents,
		update.ExternalURL,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Resource{}, ErrResourceNotFound
		}
		return model.Resource{}, fmt.Errorf("update resource: %w", err)
	}

	return updated, nil
}

func (r *ResourceRepo) Delete(ctx context.Context, resourceID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if resourceID <= 0 {
		return fmt.Errorf("invalid resource id")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM resources WHERE id = $1`, resourceID)
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrResourceNotFound
	}

	return nil
}

func scanResource(row pgx.Row) (model.Resource, error) {
	var resource model.Resource
	if err := row.Scan(
		&resource.ID,
		&resource.Title,
		&resource.FileKey,
		&resource.FileName,
		&resource.ContentType,
		&resource.Category,
		&resource.IsFree,
		&resource.PriceCents,
		&resource.ExternalURL,
		&resource.UploadedBy,
		&resource.CreatedAt,
	); err != nil {
		return model.Resource{}, err
	}
	return resource, nil
}
