package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// timeLayout is fixed width so create_time sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore keeps documents as JSON rows in the local documents table.
// Useful for development and tests without a Firestore project.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

func (s *SQLiteStore) Create(ctx context.Context, collection, id string, fields Fields) (Document, error) {
	payload, err := json.Marshal(fields)
	if err != nil {
		return Document{}, fmt.Errorf("encoding document: %w", err)
	}
	ts := s.now().UTC().Format(timeLayout)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, fields, create_time, update_time) VALUES (?, ?, ?, ?, ?)`,
		collection, id, string(payload), ts, ts)
	if err != nil {
		return Document{}, fmt.Errorf("inserting %s/%s: %w", collection, id, err)
	}
	return s.Get(ctx, collection, id)
}

func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, fields, create_time, update_time FROM documents WHERE collection = ? AND id = ?`,
		collection, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return doc, err
}

func (s *SQLiteStore) List(ctx context.Context, collection string, pageSize int) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, fields, create_time, update_time FROM documents WHERE collection = ? ORDER BY create_time, id LIMIT ?`,
		collection, pageSize)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) Update(ctx context.Context, collection, id string, fields Fields) (Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Document{}, err
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT fields FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}

	merged := Fields{}
	if err := json.Unmarshal([]byte(raw), &merged); err != nil {
		return Document{}, fmt.Errorf("decoding %s/%s: %w", collection, id, err)
	}
	for k, v := range fields {
		merged[k] = v
	}
	payload, err := json.Marshal(merged)
	if err != nil {
		return Document{}, fmt.Errorf("encoding document: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE documents SET fields = ?, update_time = ? WHERE collection = ? AND id = ?`,
		string(payload), s.now().UTC().Format(timeLayout), collection, id)
	if err != nil {
		return Document{}, err
	}
	if err := tx.Commit(); err != nil {
		return Document{}, err
	}
	return s.Get(ctx, collection, id)
}

func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (Document, error) {
	var doc Document
	var raw string
	if err := row.Scan(&doc.ID, &raw, &doc.CreateTime, &doc.UpdateTime); err != nil {
		return Document{}, err
	}
	if err := json.Unmarshal([]byte(raw), &doc.Fields); err != nil {
		return Document{}, fmt.Errorf("decoding document %s: %w", doc.ID, err)
	}
	return doc, nil
}
