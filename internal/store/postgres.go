package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/hashlink/internal/links"
)

const (
	pgUniqueViolation  = "23505"
	pgTokenConstraint  = "links_token_key"
	postgresLinksTable = `
		CREATE TABLE IF NOT EXISTS links (
			id    BIGSERIAL PRIMARY KEY,
			url   TEXT NOT NULL,
			token TEXT NOT NULL,
			CONSTRAINT links_url_key UNIQUE (url),
			CONSTRAINT links_token_key UNIQUE (token)
		)
	`
)

// PostgresStore is a PostgreSQL implementation of links.Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed link store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the links table if it does not exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresLinksTable); err != nil {
		return unavailable("migrate", err)
	}

	return nil
}

// StoreOrReuse inserts url with candidate unless url already exists. A
// conflict on the url index resolves to the stored token; a conflict on the
// token index aborts the transaction and is reported as a collision.
func (p *PostgresStore) StoreOrReuse(
	ctx context.Context, url links.CanonicalURL, candidate links.Token,
) (links.Claim, error) {
	insert := `
		INSERT INTO links (url, token)
		VALUES ($1, $2)
		ON CONFLICT (url) DO NOTHING
		RETURNING id
	`
	existing := `
		SELECT id, token
		FROM links
		WHERE url = $1
	`

	var claim links.Claim

	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, insert, string(url), string(candidate)).Scan(&claim.ID)
		if err == nil {
			claim.Outcome = links.OutcomeClaimed
			claim.Token = candidate

			return nil
		}

		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		var token string
		if err = tx.QueryRow(ctx, existing, string(url)).Scan(&claim.ID, &token); err != nil {
			return err
		}

		claim.Outcome = links.OutcomeReused
		claim.Token = links.Token(token)

		return nil
	})
	if err != nil {
		if isTokenConflict(err) {
			return links.Claim{Outcome: links.OutcomeCollision}, nil
		}

		return links.Claim{}, unavailable("store or reuse", err)
	}

	return claim, nil
}

func (p *PostgresStore) LookupByToken(ctx context.Context, token links.Token) (*links.Link, error) {
	query := `
		SELECT id, url, token
		FROM links
		WHERE token = $1
	`

	return p.lookup(ctx, query, string(token))
}

func (p *PostgresStore) LookupByURL(ctx context.Context, url links.CanonicalURL) (*links.Link, error) {
	query := `
		SELECT id, url, token
		FROM links
		WHERE url = $1
	`

	return p.lookup(ctx, query, string(url))
}

func (p *PostgresStore) lookup(ctx context.Context, query, arg string) (*links.Link, error) {
	var (
		link       links.Link
		url, token string
	)

	err := p.pool.QueryRow(ctx, query, arg).Scan(&link.ID, &url, &token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, links.ErrNotFound
		}

		return nil, unavailable("lookup", err)
	}

	link.URL = links.CanonicalURL(url)
	link.Token = links.Token(token)

	return &link, nil
}

// Ping checks PostgreSQL connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func isTokenConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	return pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == pgTokenConstraint
}

// Compile-time check.
var _ links.Store = (*PostgresStore)(nil)
