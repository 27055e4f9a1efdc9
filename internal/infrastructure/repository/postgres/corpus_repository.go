// Package postgres persists the legal corpus and the answer cache.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/asklegal/engine/internal/core/domain"
)

type CorpusRepository struct {
	db *sql.DB
}

func NewCorpusRepository(db *sql.DB) *CorpusRepository {
	return &CorpusRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *CorpusRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS legal_documents (
	id TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	source TEXT NOT NULL,
	jurisdiction TEXT NOT NULL,
	effective_from DATE,
	effective_to DATE
);

CREATE INDEX IF NOT EXISTS idx_legal_documents_source ON legal_documents(source);
CREATE INDEX IF NOT EXISTS idx_legal_documents_jurisdiction ON legal_documents(jurisdiction);

CREATE TABLE IF NOT EXISTS answer_cache (
	cache_key TEXT PRIMARY KEY,
	answer TEXT NOT NULL,
	source TEXT NOT NULL,
	excerpts JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	ttl_seconds BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_answer_cache_created_at ON answer_cache(created_at);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *CorpusRepository) Upsert(ctx context.Context, doc domain.Document) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO legal_documents (id, body, source, jurisdiction, effective_from, effective_to)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
	body = EXCLUDED.body,
	source = EXCLUDED.source,
	jurisdiction = EXCLUDED.jurisdiction,
	effective_from = EXCLUDED.effective_from,
	effective_to = EXCLUDED.effective_to
`,
		doc.ID, doc.Text, doc.Source, doc.Jurisdiction, nullableDate(doc.EffectiveFrom), nullableDate(doc.EffectiveTo),
	)
	if err != nil {
		return fmt.Errorf("upsert legal document: %w", err)
	}
	return nil
}

func (r *CorpusRepository) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, body, source, jurisdiction, effective_from, effective_to
FROM legal_documents
ORDER BY id
`)
	if err != nil {
		return nil, fmt.Errorf("list legal documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows.Scan)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate legal documents: %w", err)
	}
	return docs, nil
}

func (r *CorpusRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, body, source, jurisdiction, effective_from, effective_to
FROM legal_documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("legal document not found: %s", id)
		}
		return nil, err
	}
	return &doc, nil
}

func scanDocument(scan func(...any) error) (domain.Document, error) {
	var doc domain.Document
	var from, to sql.NullTime

	if err := scan(&doc.ID, &doc.Text, &doc.Source, &doc.Jurisdiction, &from, &to); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Document{}, err
		}
		return domain.Document{}, fmt.Errorf("scan legal document: %w", err)
	}
	if from.Valid {
		doc.EffectiveFrom = from.Time
	}
	if to.Valid {
		doc.EffectiveTo = to.Time
	}
	return doc, nil
}

func nullableDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
