// Package store is the document persistence boundary. Records are flat
// field maps grouped by collection; no server-side querying is assumed.
package store

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("document not found")

// Fields is a document body keyed by field name.
type Fields map[string]any

// Document is a stored record with its id and store-managed timestamps.
type Document struct {
	ID         string
	Fields     Fields
	CreateTime string
	UpdateTime string
}

// DocumentStore is CRUD over named collections.
type DocumentStore interface {
	Create(ctx context.Context, collection, id string, fields Fields) (Document, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	// List returns at most pageSize documents of a collection, unfiltered.
	List(ctx context.Context, collection string, pageSize int) ([]Document, error)
	// Update merges fields into the document. Fields not named are kept.
	Update(ctx context.Context, collection, id string, fields Fields) (Document, error)
	Delete(ctx context.Context, collection, id string) error
}

// StatusError is a non-2xx answer from a remote store.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("store error: %d - %s", e.StatusCode, e.Body)
}

type contextKey string

const tokenKey contextKey = "store-token"

// WithToken attaches the caller's bearer credential for the remote store.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

// TokenFromContext returns the credential set by WithToken, if any.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey).(string)
	return token, ok && token != ""
}
