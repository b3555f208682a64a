package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/phrazzld/scroll-api/internal/domain"
)

// Store provides SQLite-backed access to the card catalog.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the catalog database at path and ensures
// the schema is current.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Seed upserts cards into the catalog. Used by tests and the dev seed path.
func (s *Store) Seed(ctx context.Context, cards []domain.Card) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed catalog: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, card := range cards {
		books, err := json.Marshal(card.Books)
		if err != nil {
			return fmt.Errorf("seed catalog: encode books for %s/%s: %w", card.Kind, card.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO cards (kind, id, title, slug, body, books)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (kind, id) DO UPDATE SET
				title = excluded.title,
				slug  = excluded.slug,
				body  = excluded.body,
				books = excluded.books;
		`, string(card.Kind), card.ID, card.Title, card.Slug, card.Body, string(books))
		if err != nil {
			return fmt.Errorf("seed catalog: upsert %s/%s: %w", card.Kind, card.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed catalog: commit: %w", err)
	}
	return nil
}

// LoadPools reads every kind's candidates, keeping only rows that pass the
// per-kind validity check (pre-hydrated kinds must already carry displayable
// content). Pool ordering is the catalog's insertion order per kind.
func (s *Store) LoadPools(ctx context.Context) (map[domain.CardKind][]domain.Card, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, id, title, slug, body, books FROM cards ORDER BY kind, rowid;`)
	if err != nil {
		return nil, fmt.Errorf("load pools: query: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	pools := make(map[domain.CardKind][]domain.Card)
	for rows.Next() {
		var kind, booksJSON string
		var card domain.Card
		if err := rows.Scan(&kind, &card.ID, &card.Title, &card.Slug, &card.Body, &booksJSON); err != nil {
			return nil, fmt.Errorf("load pools: scan: %w", err)
		}
		card.Kind = domain.CardKind(strings.TrimSpace(kind))
		if err := json.Unmarshal([]byte(booksJSON), &card.Books); err != nil {
			return nil, fmt.Errorf("load pools: decode books for %s/%s: %w", card.Kind, card.ID, err)
		}
		if card.Validate() != nil {
			// Malformed upstream rows never reach the engine.
			continue
		}
		pools[card.Kind] = append(pools[card.Kind], card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load pools: iterate: %w", err)
	}
	return pools, nil
}
