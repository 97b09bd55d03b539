package feed

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"quantfeed/pkg/securities"
)

// DataPath addresses one instrument's series under the remote store's data
// root as {security-kind}/{market}/{ticker}.
type DataPath struct {
	SecurityType securities.SecurityType
	Market       string
	Ticker       string
}

// PathFor derives the store path for a symbol.
func PathFor(sym securities.Symbol) DataPath {
	return DataPath{
		SecurityType: sym.Type,
		Market:       sym.Market,
		Ticker:       sym.Value,
	}
}

func (p DataPath) String() string {
	return fmt.Sprintf("%s/%s/%s", p.SecurityType, p.Market, strings.ToUpper(p.Ticker))
}

// Document is one raw remote-store record: a dated OHLCV payload.
type Document struct {
	Ticker string
	// Date is absolute UTC time of the record.
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// DocumentCursor walks query results in ascending date order.
type DocumentCursor interface {
	Next(ctx context.Context) (*Document, bool, error)
}

// DocumentStore is the remote document store boundary. Query issues a
// blocking date-ranged fetch over the closed interval [start, end] in UTC
// and returns a cursor over matching documents.
type DocumentStore interface {
	Query(ctx context.Context, path DataPath, start, end time.Time) (DocumentCursor, error)
}

// MemoryStore is an in-process DocumentStore used by tests and replay
// tooling. Documents are kept sorted per path.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]Document
	// QueryErr, when set, is returned by every Query to simulate an
	// unreachable store.
	QueryErr error
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]Document)}
}

// Put inserts documents under the given path.
func (s *MemoryStore) Put(path DataPath, docs ...Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := path.String()
	s.docs[key] = append(s.docs[key], docs...)
	sort.Slice(s.docs[key], func(i, j int) bool {
		return s.docs[key][i].Date.Before(s.docs[key][j].Date)
	})
}

// Query returns a cursor over documents in the closed interval [start, end].
func (s *MemoryStore) Query(ctx context.Context, path DataPath, start, end time.Time) (DocumentCursor, error) {
	if s.QueryErr != nil {
		return nil, s.QueryErr
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []Document
	for _, doc := range s.docs[path.String()] {
		if doc.Date.Before(start) || doc.Date.After(end) {
			continue
		}
		matched = append(matched, doc)
	}
	return NewSliceDocumentCursor(matched), nil
}

// SliceDocumentCursor iterates a pre-loaded document slice.
type SliceDocumentCursor struct {
	docs []Document
	idx  int
}

// NewSliceDocumentCursor wraps documents already in ascending date order.
func NewSliceDocumentCursor(docs []Document) *SliceDocumentCursor {
	return &SliceDocumentCursor{docs: docs}
}

func (c *SliceDocumentCursor) Next(ctx context.Context) (*Document, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if c.idx >= len(c.docs) {
		return nil, false, nil
	}
	doc := &c.docs[c.idx]
	c.idx++
	return doc, true, nil
}
