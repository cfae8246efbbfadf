package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fakeElasticsearch(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The v8 client rejects responses without the product header.
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		handler(w, r)
	}))
}

func TestSearchEmailsReturnsIDs(t *testing.T) {
	var capturedQuery map[string]interface{}
	srv := fakeElasticsearch(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &capturedQuery)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"hits": map[string]interface{}{
				"hits": []map[string]interface{}{
					{"_id": "e2"},
					{"_id": "e1"},
				},
			},
		})
	})
	defer srv.Close()

	c, err := NewClient(srv.URL)
	assert.NoError(t, err)

	ids := c.SearchEmails(context.Background(), Filters{Query: "budget", AccountID: "acc-1", Category: "Interested"})
	assert.Equal(t, []string{"e2", "e1"}, ids)

	// The filters end up as term clauses in the bool query.
	queryJSON, _ := json.Marshal(capturedQuery)
	assert.Contains(t, string(queryJSON), `"account_id":"acc-1"`)
	assert.Contains(t, string(queryJSON), `"category":"Interested"`)
	assert.Contains(t, string(queryJSON), `"budget"`)
}

func TestSearchEmailsDegradesOnUnreachableServer(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:1")
	assert.NoError(t, err)

	ids := c.SearchEmails(context.Background(), Filters{Query: "anything"})
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
}

func TestSearchEmailsDegradesOnErrorStatus(t *testing.T) {
	srv := fakeElasticsearch(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "index_not_found_exception"}`, http.StatusNotFound)
	})
	defer srv.Close()

	c, err := NewClient(srv.URL)
	assert.NoError(t, err)

	ids := c.SearchEmails(context.Background(), Filters{Query: "anything"})
	assert.Empty(t, ids)
}

func TestIndexEmailReportsServerErrors(t *testing.T) {
	srv := fakeElasticsearch(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/emails/_doc/e1", r.URL.Path)
		http.Error(w, `{"error": "mapper_parsing_exception"}`, http.StatusBadRequest)
	})
	defer srv.Close()

	c, err := NewClient(srv.URL)
	assert.NoError(t, err)

	err = c.IndexEmail(context.Background(), &EmailDocument{ID: "e1", AccountID: "acc-1"})
	assert.Error(t, err)
}
