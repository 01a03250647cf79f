package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go-notice-crawler/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const sqliteColumns = `id, title, content, original_link, date_posted, source_school`

// SQLiteStore is the single-file store used for local runs and tests.
type SQLiteStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

type noticeRow struct {
	ID           int64          `db:"id"`
	Title        string         `db:"title"`
	Content      string         `db:"content"`
	OriginalLink string         `db:"original_link"`
	DatePosted   sql.NullString `db:"date_posted"`
	SourceSchool string         `db:"source_school"`
}

func (r noticeRow) notice() models.Notice {
	return models.Notice{
		ID:           r.ID,
		Title:        r.Title,
		Content:      r.Content,
		OriginalLink: r.OriginalLink,
		DatePosted:   r.DatePosted.String,
		SourceSchool: r.SourceSchool,
	}
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
// ":memory:" and "mode=memory" DSNs live only as long as the returned store.
func OpenSQLite(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	memory := isMemoryDSN(path)
	if !strings.HasPrefix(path, "file:") && !memory {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	dsn := sqliteDSN(path)

	logger.Info("Opening sqlite database", zap.String("path", path), zap.Bool("memory", memory))

	if !memory {
		migrateDB, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite for migrations: %w", err)
		}
		if err := runMigrations(migrateDB, "sqlite", false, logger); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// One writer at a time; the busy timeout covers other processes.
	// For in-memory databases the single connection is the database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite unreachable: %w", err)
	}

	if memory {
		if err := runMigrations(db.DB, "sqlite", true, logger); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

func isMemoryDSN(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, ":memory:?") || strings.Contains(path, "mode=memory")
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000&_journal_mode=WAL"
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return storageErr("ping", err)
	}
	return nil
}

func (s *SQLiteStore) FindByLink(ctx context.Context, link string) (*models.Notice, error) {
	var row noticeRow
	err := s.db.GetContext(ctx, &row, "SELECT "+sqliteColumns+" FROM notices WHERE original_link = ?", link)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("find by link", err)
	}
	n := row.notice()
	return &n, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (*models.Notice, error) {
	var row noticeRow
	err := s.db.GetContext(ctx, &row, "SELECT "+sqliteColumns+" FROM notices WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get", err)
	}
	n := row.notice()
	return &n, nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, nn models.NewNotice) (UpsertResult, error) {
	query := `
		INSERT INTO notices (title, content, original_link, date_posted, source_school)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(original_link) DO NOTHING
		RETURNING ` + sqliteColumns

	var date sql.NullString
	if nn.DatePosted != "" {
		date = sql.NullString{String: nn.DatePosted, Valid: true}
	}

	var row noticeRow
	err := s.db.QueryRowxContext(ctx, query, nn.Title, nn.Content, nn.OriginalLink, date, nn.SourceSchool).StructScan(&row)
	if err == nil {
		return UpsertResult{Notice: row.notice(), Created: true}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return UpsertResult{}, storageErr("insert notice", err)
	}

	existing, err := s.FindByLink(ctx, nn.OriginalLink)
	if err != nil {
		return UpsertResult{}, err
	}
	return UpsertResult{Notice: *existing, Created: false}, nil
}

func (s *SQLiteStore) List(ctx context.Context, f Filter, page, pageSize int) (Page, error) {
	page, pageSize, offset := window(page, pageSize)

	var conds []string
	var args []any
	if f.School != "" {
		conds = append(conds, "source_school = ?")
		args = append(args, f.School)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		p := likePattern(term)
		conds = append(conds, `(lower(title) LIKE lower(?) ESCAPE '\' OR lower(content) LIKE lower(?) ESCAPE '\')`)
		args = append(args, p, p)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM notices"+where, args...); err != nil {
		return Page{}, storageErr("count notices", err)
	}

	var rows []noticeRow
	query := "SELECT " + sqliteColumns + " FROM notices" + where +
		" ORDER BY date_posted DESC NULLS LAST, id ASC LIMIT ? OFFSET ?"
	if err := s.db.SelectContext(ctx, &rows, query, append(args, pageSize, offset)...); err != nil {
		return Page{}, storageErr("list notices", err)
	}

	items := make([]models.Notice, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.notice())
	}

	return Page{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func (s *SQLiteStore) Schools(ctx context.Context) ([]string, error) {
	schools := []string{}
	if err := s.db.SelectContext(ctx, &schools, "SELECT DISTINCT source_school FROM notices ORDER BY source_school"); err != nil {
		return nil, storageErr("list schools", err)
	}
	return schools, nil
}
