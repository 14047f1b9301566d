package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cgscacau/yieldlab/src/store"
	"github.com/google/uuid"
)

// Collection names in the document store.
const (
	PortfoliosCollection   = "portfolios"
	AssetsCollection       = "assets"
	TransactionsCollection = "transactions"
	DividendsCollection    = "dividends"
)

// ErrNotFound is returned for ids that do not exist in their collection.
var ErrNotFound = store.ErrNotFound

// PageSizes caps each unfiltered collection read. Lists are filtered after
// the fetch, so records past the cap are never seen.
type PageSizes struct {
	Portfolios   int
	Assets       int
	Transactions int
	Dividends    int
}

func DefaultPageSizes() PageSizes {
	return PageSizes{Portfolios: 100, Assets: 100, Transactions: 200, Dividends: 200}
}

// Repository maps domain records to and from documents.
type Repository struct {
	store store.DocumentStore
	pages PageSizes
	now   func() time.Time
}

func NewRepository(s store.DocumentStore, pages PageSizes) *Repository {
	return &Repository{store: s, pages: pages, now: time.Now}
}

func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

func (r *Repository) timestamp() string {
	return r.now().UTC().Format("2006-01-02T15:04:05.000Z")
}

// toFields flattens a record into document fields. The id lives in the
// document name, not in its body.
func toFields(v any) (store.Fields, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields store.Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	delete(fields, "id")
	return fields, nil
}

func fromDocument(doc store.Document, dst any) error {
	raw, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("document %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("document %s: %w", doc.ID, err)
	}
	return nil
}

// listWhere reads one page of a collection and keeps the documents whose
// field equals value.
func listWhere[T any](ctx context.Context, r *Repository, collection string, pageSize int, field, value string, setID func(*T, string)) ([]T, error) {
	docs, err := r.store.List(ctx, collection, pageSize)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", collection, err)
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		if v, _ := doc.Fields[field].(string); v != value {
			continue
		}
		var item T
		if err := fromDocument(doc, &item); err != nil {
			return nil, err
		}
		setID(&item, doc.ID)
		out = append(out, item)
	}
	return out, nil
}

func getByID[T any](ctx context.Context, r *Repository, collection, id string, setID func(*T, string)) (*T, error) {
	doc, err := r.store.Get(ctx, collection, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}
	var item T
	if err := fromDocument(doc, &item); err != nil {
		return nil, err
	}
	setID(&item, doc.ID)
	return &item, nil
}

func create[T any](ctx context.Context, r *Repository, collection, id string, item *T, setID func(*T, string)) (*T, error) {
	fields, err := toFields(item)
	if err != nil {
		return nil, err
	}
	doc, err := r.store.Create(ctx, collection, id, fields)
	if err != nil {
		return nil, fmt.Errorf("creating %s/%s: %w", collection, id, err)
	}
	var created T
	if err := fromDocument(doc, &created); err != nil {
		return nil, err
	}
	setID(&created, doc.ID)
	return &created, nil
}

func (r *Repository) delete(ctx context.Context, collection, id string) error {
	if err := r.store.Delete(ctx, collection, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	return nil
}
