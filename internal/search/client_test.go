package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/fekuna/chronostore/internal/model"
)

// fakeES answers the handful of endpoints the client uses.
type fakeES struct {
	mu        sync.Mutex
	indices   map[string]bool
	docs      map[string]json.RawMessage
	lastQuery string
}

func newFakeES(t *testing.T) (*fakeES, *Client) {
	t.Helper()
	f := &fakeES{indices: map[string]bool{}, docs: map[string]json.RawMessage{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)

	c, err := NewClient(&Config{Addresses: []string{srv.URL}})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return f, c
}

func (f *fakeES) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	body, _ := io.ReadAll(r.Body)
	switch {
	case r.URL.Path == "/":
		fmt.Fprint(w, `{"version":{"number":"8.19.0"},"tagline":"You Know, for Search"}`)
	case len(parts) == 1 && r.Method == http.MethodPut:
		if f.indices[parts[0]] {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":{"type":"resource_already_exists_exception"},"status":400}`)
			return
		}
		f.indices[parts[0]] = true
		fmt.Fprint(w, `{"acknowledged":true}`)
	case len(parts) == 2 && parts[1] == "_search":
		f.lastQuery = string(body)
		ids := make([]string, 0, len(f.docs))
		for id := range f.docs {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		hits := make([]string, 0, len(ids))
		for _, id := range ids {
			hits = append(hits, fmt.Sprintf(`{"_id":%q}`, id))
		}
		fmt.Fprintf(w, `{"hits":{"total":{"value":%d},"hits":[%s]}}`, len(ids), strings.Join(hits, ","))
	case len(parts) == 3 && parts[1] == "_doc" && r.Method == http.MethodPut:
		f.docs[parts[2]] = body
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"_id":%q,"result":"created"}`, parts[2])
	case len(parts) == 3 && parts[1] == "_doc" && r.Method == http.MethodDelete:
		if _, ok := f.docs[parts[2]]; !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"result":"not_found"}`)
			return
		}
		delete(f.docs, parts[2])
		fmt.Fprint(w, `{"result":"deleted"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{}`)
	}
}

func (f *fakeES) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.docs[id]
	return ok
}

func TestProductIndexRoundTrip(t *testing.T) {
	f, c := newFakeES(t)
	ix := NewProductIndex(c, "")
	ctx := context.Background()

	if err := ix.EnsureIndex(ctx); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	if err := ix.EnsureIndex(ctx); err != nil {
		t.Fatalf("EnsureIndex on existing index: %v", err)
	}

	for _, p := range []model.Product{
		{ID: 7, Brand: "Seiko", Title: "Presage"},
		{ID: 9, Brand: "Orient", Title: "Bambino"},
	} {
		if err := ix.Put(ctx, p); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	if !f.has("7") || !f.has("9") {
		t.Fatalf("docs = %v", f.docs)
	}

	ids, err := ix.SearchIDs(ctx, "sei(ko", 10)
	if err != nil {
		t.Fatalf("SearchIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != 7 || ids[1] != 9 {
		t.Errorf("ids = %v", ids)
	}
	if !strings.Contains(f.lastQuery, `sei\\(ko`) {
		t.Errorf("query not escaped: %s", f.lastQuery)
	}

	if err := ix.Remove(ctx, 7); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := ix.Remove(ctx, 7); err != nil {
		t.Fatalf("Remove missing doc: %v", err)
	}
	if f.has("7") {
		t.Error("doc 7 still indexed")
	}
}
