package elastic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kailas-cloud/syncdex/internal/domain/document"
	"github.com/kailas-cloud/syncdex/internal/index"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{URL: srv.URL, ScrollPageSize: 2})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClient_RequiresURL(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error for missing url")
	}
}

func TestPing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"cluster_name":"test"}`))
	})

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIndex_SendsDocumentBody(t *testing.T) {
	var gotPath, gotBody string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	err := c.Index(context.Background(), "books", "42", document.Fields{"title": "go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "PUT /books/_doc/42" {
		t.Errorf("request = %q, want PUT /books/_doc/42", gotPath)
	}
	if gotBody != `{"title":"go"}` {
		t.Errorf("body = %s", gotBody)
	}
}

func TestUpdate_WrapsDoc(t *testing.T) {
	var gotBody string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		if r.URL.Path != "/books/_update/42" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"result":"updated"}`))
	})

	err := c.Update(context.Background(), "books", "42", document.Fields{"pages": 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotBody != `{"doc":{"pages":3}}` {
		t.Errorf("body = %s", gotBody)
	}
}

func TestDelete_MissingDocumentIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"result":"not_found"}`))
	})

	if err := c.Delete(context.Background(), "books", "42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBulk_EncodesNDJSON(t *testing.T) {
	var gotBody string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/_bulk" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-ndjson" {
			t.Errorf("content type = %s", ct)
		}
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(`{"errors":false,"items":[
			{"index":{"_id":"1","status":201}},
			{"update":{"_id":"2","status":200}},
			{"delete":{"_id":"3","status":200}}
		]}`))
	})

	actions := []index.BulkAction{
		index.IndexAction("books", document.New("1", document.Fields{"title": "go"})),
		index.UpdateAction("books", document.New("2", document.Fields{"pages": 3})),
		index.DeleteAction("books", "3"),
	}
	result, err := c.Bulk(context.Background(), actions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Succeeded != 3 || result.Failed != 0 {
		t.Errorf("result = %+v, want 3 succeeded", result)
	}

	wantLines := []string{
		`{"index":{"_id":"1","_index":"books"}}`,
		`{"title":"go"}`,
		`{"update":{"_id":"2","_index":"books"}}`,
		`{"doc":{"pages":3}}`,
		`{"delete":{"_id":"3","_index":"books"}}`,
	}
	gotLines := strings.Split(strings.TrimRight(gotBody, "\n"), "\n")
	if len(gotLines) != len(wantLines) {
		t.Fatalf("got %d NDJSON lines, want %d:\n%s", len(gotLines), len(wantLines), gotBody)
	}
	for i, want := range wantLines {
		if gotLines[i] != want {
			t.Errorf("line %d = %s, want %s", i, gotLines[i], want)
		}
	}
}

func TestBulk_ReportsItemFailures(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":true,"items":[
			{"index":{"_id":"1","status":201}},
			{"index":{"_id":"2","status":400,"error":{"type":"mapper_parsing_exception","reason":"bad"}}}
		]}`))
	})

	result, err := c.Bulk(context.Background(), []index.BulkAction{
		index.DeleteAction("books", "1"),
		index.DeleteAction("books", "2"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Succeeded != 1 || result.Failed != 1 {
		t.Errorf("result = %+v, want 1 succeeded 1 failed", result)
	}
	if len(result.FailedIDs) != 1 || result.FailedIDs[0] != "2" {
		t.Errorf("failed ids = %v, want [2]", result.FailedIDs)
	}
}

func TestBulk_EmptyBatchSkipsRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty batch")
	})

	result, err := c.Bulk(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Succeeded != 0 || result.Failed != 0 {
		t.Errorf("result = %+v, want zero", result)
	}
}

func TestSearch_ParsesEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/books/_search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"hits": {
				"total": {"value": 120, "relation": "gte"},
				"max_score": 3.5,
				"hits": [
					{"_index":"books","_id":"1","_score":3.5,"highlight":{"title":["<em>go</em>"]}},
					{"_index":"books","_id":"2","_score":null}
				]
			},
			"aggregations": {"by_author": {"buckets": []}}
		}`))
	})

	result, err := c.Search(context.Background(), "books",
		json.RawMessage(`{"query":{"match_all":{}}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total.Value != 120 || result.Total.Relation != "gte" {
		t.Errorf("total = %+v", result.Total)
	}
	if len(result.Hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(result.Hits))
	}
	if result.Hits[0].Score == nil || *result.Hits[0].Score != 3.5 {
		t.Errorf("hit 0 score = %v, want 3.5", result.Hits[0].Score)
	}
	if result.Hits[1].Score != nil {
		t.Errorf("hit 1 score = %v, want nil", result.Hits[1].Score)
	}
	if result.Hits[0].Highlight["title"][0] != "<em>go</em>" {
		t.Errorf("highlight = %v", result.Hits[0].Highlight)
	}
	if len(result.Aggregations) == 0 {
		t.Error("aggregations missing")
	}
}

func TestCount(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/books/_count" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"count": 42}`))
	})

	n, err := c.Count(context.Background(), "books", json.RawMessage(`{"query":{"match_all":{}}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 42 {
		t.Errorf("count = %d, want 42", n)
	}
}

func TestScan_PagesThroughScroll(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch {
		case strings.HasPrefix(r.URL.Path, "/books/_search"):
			_, _ = w.Write([]byte(`{"_scroll_id":"s1","hits":{"total":{"value":3,"relation":"eq"},
				"hits":[{"_index":"books","_id":"1"},{"_index":"books","_id":"2"}]}}`))
		case r.URL.Path == "/_search/scroll" && r.Method == http.MethodPost:
			var req struct {
				ScrollID string `json:"scroll_id"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.ScrollID != "s1" && req.ScrollID != "s2" {
				t.Errorf("scroll_id = %q", req.ScrollID)
			}
			if req.ScrollID == "s1" {
				_, _ = w.Write([]byte(`{"_scroll_id":"s2","hits":{"hits":[{"_index":"books","_id":"3"}]}}`))
			} else {
				_, _ = w.Write([]byte(`{"_scroll_id":"s2","hits":{"hits":[]}}`))
			}
		case r.URL.Path == "/_search/scroll" && r.Method == http.MethodDelete:
			_, _ = w.Write([]byte(`{"succeeded":true}`))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	})

	cursor, err := c.Scan(context.Background(), "books")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ids []string
	for {
		hit, ok, err := cursor.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		ids = append(ids, hit.ID)
	}
	if len(ids) != 3 || ids[0] != "1" || ids[2] != "3" {
		t.Errorf("scanned ids = %v, want [1 2 3]", ids)
	}
	if err := cursor.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestCreateIndex_AlreadyExists(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"resource_already_exists_exception"}}`))
	})

	err := c.CreateIndex(context.Background(), "books", []byte(`{"mappings":{}}`))
	if !errors.Is(err, index.ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}
}

func TestDeleteIndex_IgnoreMissing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"}}`))
	})

	if err := c.DeleteIndex(context.Background(), "books", true); err != nil {
		t.Fatalf("unexpected error with ignoreMissing: %v", err)
	}
	if err := c.DeleteIndex(context.Background(), "books", false); err == nil {
		t.Fatal("expected error without ignoreMissing")
	}
}
