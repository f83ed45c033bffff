package postgres

import (
	"context"
	"errors"
	"fmt"
	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresQueryAdapter реализует PropertyQueryPort для PostgreSQL.
type PostgresQueryAdapter struct {
	pool *pgxpool.Pool
}

var _ port.PropertyQueryPort = (*PostgresQueryAdapter)(nil)

func NewPostgresQueryAdapter(pool *pgxpool.Pool) (*PostgresQueryAdapter, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgxpool.Pool cannot be nil")
	}
	return &PostgresQueryAdapter{pool: pool}, nil
}

// Search ищет объекты по набору фильтров с пагинацией
func (a *PostgresQueryAdapter) Search(ctx context.Context, filters domain.SearchFilters) (*domain.Page, error) {
	filters = filters.Normalize()
	repoLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "PostgresQueryAdapter",
		"method":    "Search",
		"per_page":  filters.PerPage,
		"page":      filters.Page,
	})

	countSQL, countArgs, pageSQL, pageArgs := searchQueries(filters)

	// COUNT и страница читаются из одного снимка
	tx, err := a.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var total int64
	if err := tx.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		repoLogger.Error("Failed to count properties", err, port.Fields{"query": countSQL})
		return nil, fmt.Errorf("failed to count properties: %w", err)
	}

	if total == 0 {
		return domain.NewPage(nil, 0, filters.Page, filters.PerPage), nil
	}

	rows, err := tx.Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		repoLogger.Error("Failed to query properties page", err, port.Fields{"query": pageSQL})
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	items, err := scanProperties(rows)
	if err != nil {
		return nil, err
	}
	if err := hydrate(ctx, tx, items, relations{}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	repoLogger.Debug("Properties page loaded", port.Fields{"total": total, "count": len(items)})
	return domain.NewPage(items, int(total), filters.Page, filters.PerPage), nil
}

func (a *PostgresQueryAdapter) ListAll(ctx context.Context) ([]domain.Property, error) {
	return a.list(ctx, "ListAll", listAllQuery(), nil)
}

func (a *PostgresQueryAdapter) Featured(ctx context.Context, q domain.FeaturedQuery) ([]domain.Property, error) {
	query, args := featuredQuery(q)
	return a.list(ctx, "Featured", query, args)
}

func (a *PostgresQueryAdapter) Similar(ctx context.Context, q domain.SimilarQuery) ([]domain.Property, error) {
	query, args := similarQuery(q)
	return a.list(ctx, "Similar", query, args)
}

func (a *PostgresQueryAdapter) FindByOwner(ctx context.Context, ownerID int64) ([]domain.Property, error) {
	query := fmt.Sprintf("SELECT %s FROM properties p WHERE p.owner_id = $1 AND p.deleted_at IS NULL %s",
		propertyColumns, newestFirstOrder)
	return a.list(ctx, "FindByOwner", query, []interface{}{ownerID})
}

func (a *PostgresQueryAdapter) list(ctx context.Context, method, query string, args []interface{}) ([]domain.Property, error) {
	repoLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "PostgresQueryAdapter",
		"method":    method,
	})

	rows, err := a.pool.Query(ctx, query, args...)
	if err != nil {
		repoLogger.Error("Failed to query properties", err, port.Fields{"query": query})
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	items, err := scanProperties(rows)
	if err != nil {
		repoLogger.Error("Failed to read properties", err, nil)
		return nil, err
	}
	if err := hydrate(ctx, a.pool, items, relations{}); err != nil {
		repoLogger.Error("Failed to hydrate properties", err, nil)
		return nil, err
	}

	repoLogger.Debug("Properties loaded", port.Fields{"count": len(items)})
	return items, nil
}

// FindBySlug - публичная карточка: удобства и только одобренные отзывы
func (a *PostgresQueryAdapter) FindBySlug(ctx context.Context, slug string) (*domain.Property, error) {
	qb := newQueryBuilder().visibleOnly()
	qb.addCondition("%s = $%d", "p.slug", slug)
	whereClause, args := qb.build()
	query := fmt.Sprintf("SELECT %s FROM properties p %s", propertyColumns, whereClause)

	return a.findOne(ctx, "FindBySlug", query, args, relations{amenities: true, approvedReviews: true})
}

// FindByIDAdmin - без предиката видимости, удаленные тоже возвращаются
func (a *PostgresQueryAdapter) FindByIDAdmin(ctx context.Context, id int64) (*domain.Property, error) {
	query := fmt.Sprintf("SELECT %s FROM properties p WHERE p.id = $1", propertyColumns)
	return a.findOne(ctx, "FindByIDAdmin", query, []interface{}{id}, relations{amenities: true, reviews: true})
}

func (a *PostgresQueryAdapter) findOne(ctx context.Context, method, query string, args []interface{}, rel relations) (*domain.Property, error) {
	repoLogger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "PostgresQueryAdapter",
		"method":    method,
	})

	p, err := scanProperty(a.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if mapped := mapStorageError(err); errors.Is(mapped, domain.ErrNotFound) {
			repoLogger.Debug("Property not found", nil)
			return nil, mapped
		}
		repoLogger.Error("Failed to query property", err, nil)
		return nil, fmt.Errorf("failed to query property: %w", err)
	}

	items := []domain.Property{*p}
	if err := hydrate(ctx, a.pool, items, rel); err != nil {
		repoLogger.Error("Failed to hydrate property", err, port.Fields{"property_id": p.ID})
		return nil, err
	}
	return &items[0], nil
}
