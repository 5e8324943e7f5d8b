package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/dtroode/sportify-server/internal/model"
)

var _ model.DocumentStore = (*DocumentRepository)(nil)

// DocumentRepository stores JSON documents of every collection in a single table.
type DocumentRepository struct {
	db *Connection
}

func NewDocumentRepository(db *Connection) *DocumentRepository {
	return &DocumentRepository{
		db: db,
	}
}

func (r *DocumentRepository) Get(ctx context.Context, collection, id string) (model.Document, error) {
	query := `SELECT id, fields, created_at, updated_at FROM documents WHERE collection = $1 AND id = $2`

	var (
		doc model.Document
		raw []byte
	)
	err := r.db.QueryRow(ctx, query, collection, id).Scan(&doc.ID, &raw, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return model.Document{}, fmt.Errorf("failed to get %s/%s: %w", collection, id, mapError(err))
	}

	if err := json.Unmarshal(raw, &doc.Fields); err != nil {
		return model.Document{}, fmt.Errorf("failed to decode %s/%s: %w", collection, id, err)
	}

	return doc, nil
}

func (r *DocumentRepository) Set(ctx context.Context, collection, id string, fields model.Fields) error {
	raw, err := encodeFields(fields)
	if err != nil {
		return err
	}

	query := `INSERT INTO documents (collection, id, fields)
			  VALUES ($1, $2, $3::jsonb)
			  ON CONFLICT (collection, id) DO UPDATE SET fields = EXCLUDED.fields, updated_at = NOW()`

	if _, err := r.db.Exec(ctx, query, collection, id, raw); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, mapError(err))
	}

	return nil
}

func (r *DocumentRepository) Update(ctx context.Context, collection, id string, fields model.Fields) error {
	raw, err := encodeFields(fields)
	if err != nil {
		return err
	}

	query := `UPDATE documents SET fields = fields || $3::jsonb, updated_at = NOW()
			  WHERE collection = $1 AND id = $2`

	cmd, err := r.db.Exec(ctx, query, collection, id, raw)
	if err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, mapError(err))
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, model.ErrNotFound)
	}

	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, collection, id string) error {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2`

	cmd, err := r.db.Exec(ctx, query, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, mapError(err))
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, model.ErrNotFound)
	}

	return nil
}

func (r *DocumentRepository) List(ctx context.Context, collection string) ([]model.Document, error) {
	query := `SELECT id, fields, created_at, updated_at FROM documents
			  WHERE collection = $1
			  ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, mapError(err))
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var (
			doc model.Document
			raw []byte
		)
		if err := rows.Scan(&doc.ID, &raw, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", collection, mapError(err))
		}
		if err := json.Unmarshal(raw, &doc.Fields); err != nil {
			return nil, fmt.Errorf("failed to decode %s/%s: %w", collection, doc.ID, err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, mapError(err))
	}

	return docs, nil
}

func (r *DocumentRepository) Add(ctx context.Context, collection string, fields model.Fields) (string, error) {
	raw, err := encodeFields(fields)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	query := `INSERT INTO documents (collection, id, fields) VALUES ($1, $2, $3::jsonb)`

	if _, err := r.db.Exec(ctx, query, collection, id, raw); err != nil {
		return "", fmt.Errorf("failed to add %s document: %w", collection, mapError(err))
	}

	return id, nil
}

func encodeFields(fields model.Fields) ([]byte, error) {
	if fields == nil {
		fields = model.Fields{}
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fields: %w", err)
	}
	return raw, nil
}
