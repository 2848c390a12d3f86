package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/serroba/hashlink/internal/links"
)

const sqliteLinksTable = `
	CREATE TABLE IF NOT EXISTS links (
		id    INTEGER PRIMARY KEY AUTOINCREMENT,
		url   TEXT NOT NULL UNIQUE,
		token TEXT NOT NULL UNIQUE
	)
`

// SQLiteStore is a SQLite implementation of links.Store for local use.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at path. Write transactions take the
// reserved lock up front, so concurrent claims are serialised by SQLite.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Migrate creates the links table if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteLinksTable); err != nil {
		return unavailable("migrate", err)
	}

	return nil
}

func (s *SQLiteStore) StoreOrReuse(
	ctx context.Context, url links.CanonicalURL, candidate links.Token,
) (links.Claim, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return links.Claim{}, unavailable("begin", err)
	}

	defer func() { _ = tx.Rollback() }()

	claim, err := s.storeOrReuse(ctx, tx, url, candidate)
	if err != nil {
		if isSQLiteTokenConflict(err) {
			return links.Claim{Outcome: links.OutcomeCollision}, nil
		}

		return links.Claim{}, unavailable("store or reuse", err)
	}

	if err = tx.Commit(); err != nil {
		return links.Claim{}, unavailable("commit", err)
	}

	return claim, nil
}

func (s *SQLiteStore) storeOrReuse(
	ctx context.Context, tx *sql.Tx, url links.CanonicalURL, candidate links.Token,
) (links.Claim, error) {
	var (
		id    int64
		token string
	)

	err := tx.QueryRowContext(ctx, "SELECT id, token FROM links WHERE url = ?", string(url)).Scan(&id, &token)
	if err == nil {
		return links.Claim{Outcome: links.OutcomeReused, Token: links.Token(token), ID: id}, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return links.Claim{}, err
	}

	err = tx.QueryRowContext(ctx, "SELECT id FROM links WHERE token = ?", string(candidate)).Scan(&id)
	if err == nil {
		return links.Claim{Outcome: links.OutcomeCollision}, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return links.Claim{}, err
	}

	res, err := tx.ExecContext(ctx, "INSERT INTO links (url, token) VALUES (?, ?)", string(url), string(candidate))
	if err != nil {
		return links.Claim{}, err
	}

	if id, err = res.LastInsertId(); err != nil {
		return links.Claim{}, err
	}

	return links.Claim{Outcome: links.OutcomeClaimed, Token: candidate, ID: id}, nil
}

func (s *SQLiteStore) LookupByToken(ctx context.Context, token links.Token) (*links.Link, error) {
	return s.lookup(ctx, "SELECT id, url, token FROM links WHERE token = ?", string(token))
}

func (s *SQLiteStore) LookupByURL(ctx context.Context, url links.CanonicalURL) (*links.Link, error) {
	return s.lookup(ctx, "SELECT id, url, token FROM links WHERE url = ?", string(url))
}

func (s *SQLiteStore) lookup(ctx context.Context, query, arg string) (*links.Link, error) {
	var (
		link       links.Link
		url, token string
	)

	if err := s.db.QueryRowContext(ctx, query, arg).Scan(&link.ID, &url, &token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, links.ErrNotFound
		}

		return nil, unavailable("lookup", err)
	}

	link.URL = links.CanonicalURL(url)
	link.Token = links.Token(token)

	return &link, nil
}

// Ping checks that the database file is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Shutdown closes the database.
func (s *SQLiteStore) Shutdown() error {
	return s.db.Close()
}

func isSQLiteTokenConflict(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique &&
		strings.Contains(sqliteErr.Error(), "links.token")
}

// Compile-time check.
var _ links.Store = (*SQLiteStore)(nil)
