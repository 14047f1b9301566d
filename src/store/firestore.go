package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cgscacau/yieldlab/src/logger"
	"golang.org/x/oauth2"
)

// FirestoreStore talks to the Firestore REST API. Each call runs with the
// bearer credential found in its context (see WithToken).
type FirestoreStore struct {
	baseURL    string
	httpClient *http.Client
}

type firestoreDocument struct {
	Name       string         `json:"name"`
	Fields     map[string]any `json:"fields"`
	CreateTime string         `json:"createTime"`
	UpdateTime string         `json:"updateTime"`
}

type firestoreList struct {
	Documents     []firestoreDocument `json:"documents"`
	NextPageToken string              `json:"nextPageToken"`
}

// NewFirestoreStore builds a store rooted at
// {apiBase}/projects/{projectID}/databases/(default)/documents.
func NewFirestoreStore(apiBase, projectID string, httpClient *http.Client) *FirestoreStore {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &FirestoreStore{
		baseURL:    fmt.Sprintf("%s/projects/%s/databases/(default)/documents", strings.TrimRight(apiBase, "/"), projectID),
		httpClient: httpClient,
	}
}

func (s *FirestoreStore) Create(ctx context.Context, collection, id string, fields Fields) (Document, error) {
	q := url.Values{}
	q.Set("documentId", id)
	var doc firestoreDocument
	err := s.do(ctx, http.MethodPost, "/"+collection+"?"+q.Encode(), map[string]any{"fields": EncodeFields(fields)}, &doc)
	if err != nil {
		return Document{}, err
	}
	return fromFirestore(doc), nil
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var doc firestoreDocument
	if err := s.do(ctx, http.MethodGet, "/"+collection+"/"+url.PathEscape(id), nil, &doc); err != nil {
		return Document{}, err
	}
	return fromFirestore(doc), nil
}

func (s *FirestoreStore) List(ctx context.Context, collection string, pageSize int) ([]Document, error) {
	var list firestoreList
	path := "/" + collection + "?pageSize=" + strconv.Itoa(pageSize)
	if err := s.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	if list.NextPageToken != "" {
		logger.FromContext(ctx).Warn("Collection exceeds page size, remaining documents ignored", "collection", collection, "pageSize", pageSize)
	}
	docs := make([]Document, 0, len(list.Documents))
	for _, d := range list.Documents {
		docs = append(docs, fromFirestore(d))
	}
	return docs, nil
}

// Update patches only the named fields; the document must already exist.
func (s *FirestoreStore) Update(ctx context.Context, collection, id string, fields Fields) (Document, error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	q := url.Values{}
	for _, name := range names {
		q.Add("updateMask.fieldPaths", name)
	}
	q.Set("currentDocument.exists", "true")

	var doc firestoreDocument
	path := "/" + collection + "/" + url.PathEscape(id) + "?" + q.Encode()
	if err := s.do(ctx, http.MethodPatch, path, map[string]any{"fields": EncodeFields(fields)}, &doc); err != nil {
		return Document{}, err
	}
	return fromFirestore(doc), nil
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	return s.do(ctx, http.MethodDelete, "/"+collection+"/"+url.PathEscape(id), nil, nil)
}

func (s *FirestoreStore) client(ctx context.Context) *http.Client {
	token, ok := TokenFromContext(ctx)
	if !ok {
		return s.httpClient
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
}

func (s *FirestoreStore) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s body: %w", method, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client(ctx).Do(req)
	if err != nil {
		return fmt.Errorf("firestore %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.FromContext(ctx).Error("Firestore request failed", "method", method, "path", path, "status", resp.StatusCode)
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding firestore response: %w", err)
	}
	return nil
}

func fromFirestore(doc firestoreDocument) Document {
	id := doc.Name
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	return Document{
		ID:         id,
		Fields:     DecodeFields(doc.Fields),
		CreateTime: doc.CreateTime,
		UpdateTime: doc.UpdateTime,
	}
}
