package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-notice-crawler/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver "pgx" for migrations
	"go.uber.org/zap"
)

const pgColumns = `id, title, content, original_link, COALESCE(to_char(date_posted, 'YYYY-MM-DD'), ''), source_school`

// PostgresStore is the production store.
type PostgresStore struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// ConnectPostgres opens a pool, pings it and applies migrations.
func ConnectPostgres(ctx context.Context, connString string, logger *zap.Logger) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	// Transaction-mode poolers (PgBouncer) do not support prepared statements.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	logger.Info("Connecting to database", zap.String("url", redact(connString)))

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	sqlDB, err := sql.Open("pgx", connString)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to open migration connection: %w", err)
	}
	if err := runMigrations(sqlDB, "postgres", false, logger); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{db: pool, logger: logger}, nil
}

func (r *PostgresStore) Close() error {
	if r.db != nil {
		r.db.Close()
	}
	return nil
}

func (r *PostgresStore) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return storageErr("ping", err)
	}
	return nil
}

func scanNotice(row pgx.Row) (*models.Notice, error) {
	var n models.Notice
	err := row.Scan(&n.ID, &n.Title, &n.Content, &n.OriginalLink, &n.DatePosted, &n.SourceSchool)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// FindByLink retrieves a notice by its source URL.
func (r *PostgresStore) FindByLink(ctx context.Context, link string) (*models.Notice, error) {
	n, err := scanNotice(r.db.QueryRow(ctx, "SELECT "+pgColumns+" FROM notices WHERE original_link = $1", link))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("find by link", err)
	}
	return n, nil
}

// Get retrieves a notice by id.
func (r *PostgresStore) Get(ctx context.Context, id int64) (*models.Notice, error) {
	n, err := scanNotice(r.db.QueryRow(ctx, "SELECT "+pgColumns+" FROM notices WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get", err)
	}
	return n, nil
}

// Upsert inserts the notice unless its link is already stored. The unique
// constraint decides the race between concurrent writers.
func (r *PostgresStore) Upsert(ctx context.Context, nn models.NewNotice) (UpsertResult, error) {
	query := `
		INSERT INTO notices (title, content, original_link, date_posted, source_school)
		VALUES ($1, $2, $3, $4::date, $5)
		ON CONFLICT (original_link) DO NOTHING
		RETURNING ` + pgColumns

	n, err := scanNotice(r.db.QueryRow(ctx, query, nn.Title, nn.Content, nn.OriginalLink, nullableDate(nn.DatePosted), nn.SourceSchool))
	if err == nil {
		return UpsertResult{Notice: *n, Created: true}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return UpsertResult{}, storageErr("insert notice", err)
	}

	existing, err := r.FindByLink(ctx, nn.OriginalLink)
	if err != nil {
		return UpsertResult{}, err
	}
	return UpsertResult{Notice: *existing, Created: false}, nil
}

// List returns one page ordered by date (newest first, undated last) then id.
func (r *PostgresStore) List(ctx context.Context, f Filter, page, pageSize int) (Page, error) {
	page, pageSize, offset := window(page, pageSize)

	var conds []string
	var args []any
	if f.School != "" {
		args = append(args, f.School)
		conds = append(conds, fmt.Sprintf("source_school = $%d", len(args)))
	}
	if strings.TrimSpace(f.Search) != "" {
		args = append(args, likePattern(strings.TrimSpace(f.Search)))
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR content ILIKE $%d)", len(args), len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM notices"+where, args...).Scan(&total); err != nil {
		return Page{}, storageErr("count notices", err)
	}

	query := fmt.Sprintf("SELECT %s FROM notices%s ORDER BY date_posted DESC NULLS LAST, id ASC LIMIT $%d OFFSET $%d",
		pgColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, query, append(args, pageSize, offset)...)
	if err != nil {
		return Page{}, storageErr("list notices", err)
	}
	defer rows.Close()

	items := make([]models.Notice, 0, pageSize)
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return Page{}, storageErr("scan notice", err)
		}
		items = append(items, *n)
	}
	if err := rows.Err(); err != nil {
		return Page{}, storageErr("list notices", err)
	}

	return Page{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// Schools lists the distinct school labels present in storage.
func (r *PostgresStore) Schools(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, "SELECT DISTINCT source_school FROM notices ORDER BY source_school")
	if err != nil {
		return nil, storageErr("list schools", err)
	}
	schools, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, storageErr("list schools", err)
	}
	return schools, nil
}

func nullableDate(d string) *string {
	if d == "" {
		return nil
	}
	return &d
}
