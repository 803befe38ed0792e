package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"docflow/internal/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore keeps documents and leave data in Postgres. It implements
// core.DocumentStore and core.AtomicLeaveStore.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) ListDocuments(ctx context.Context, docType core.DocumentType) ([]core.Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT body FROM documents
		WHERE doc_type = $1
		ORDER BY created_at, number
	`, string(docType))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", docType, err)
	}
	defer rows.Close()

	var docs []core.Document
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		var doc core.Document
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s body: %w", docType, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *PgStore) GetDocument(ctx context.Context, docType core.DocumentType, id string) (*core.Document, error) {
	var body []byte
	err := s.pool.QueryRow(ctx, `
		SELECT body FROM documents WHERE doc_type = $1 AND id = $2
	`, string(docType), id).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s %s: %w", docType, id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch %s %s: %w", docType, id, err)
	}
	return decodeDocument(body)
}

// CreateDocument assigns an id and the next gapless number for the type in the
// same transaction as the insert.
func (s *PgStore) CreateDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var lastNumber int64
	err = tx.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, last_number)
		VALUES ($1, 1)
		ON CONFLICT (doc_type)
		DO UPDATE SET last_number = document_sequences.last_number + 1
		RETURNING last_number
	`, string(doc.Type)).Scan(&lastNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to generate gapless sequence number: %w", err)
	}

	created := *doc
	created.ID = uuid.NewString()
	created.Number = fmt.Sprintf("%s-%05d", doc.Type.NumberPrefix(), lastNumber)

	body, err := json.Marshal(created)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO documents (id, doc_type, number, status, client_name, body, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, created.ID, string(created.Type), created.Number, string(created.Status), created.Client.Name, body,
		created.CreatedBy, created.CreatedAt, created.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert %s: %w", created.Type, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return decodeDocument(body)
}

// UpdateDocument replaces the body of an existing document. The number and
// creation stamp stay those assigned on insert.
func (s *PgStore) UpdateDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	updated := *doc
	err = tx.QueryRow(ctx, `
		SELECT number, created_at FROM documents
		WHERE doc_type = $1 AND id = $2
		FOR UPDATE
	`, string(doc.Type), doc.ID).Scan(&updated.Number, &updated.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s %s: %w", doc.Type, doc.ID, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock %s %s: %w", doc.Type, doc.ID, err)
	}

	body, err := json.Marshal(updated)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE documents
		SET status = $1, client_name = $2, body = $3, updated_at = $4
		WHERE id = $5
	`, string(updated.Status), updated.Client.Name, body, updated.UpdatedAt, updated.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s %s: %w", doc.Type, doc.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return decodeDocument(body)
}

func (s *PgStore) DeleteDocument(ctx context.Context, docType core.DocumentType, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE doc_type = $1 AND id = $2`, string(docType), id)
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", docType, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", docType, id, core.ErrNotFound)
	}
	return nil
}

func decodeDocument(body []byte) (*core.Document, error) {
	var doc core.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document body: %w", err)
	}
	return &doc, nil
}
