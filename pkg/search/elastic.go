package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	log "github.com/sirupsen/logrus"
)

const emailIndex = "emails"

// EmailDocument is the shape of one email in the search index.
type EmailDocument struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	Folder     string    `json:"folder"`
	Category   string    `json:"category,omitempty"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Subject    string    `json:"subject"`
	TextBody   string    `json:"text_body"`
	ReceivedAt time.Time `json:"received_at"`
}

// Filters is the search surface exposed to API clients; fields map
// directly onto the query DSL.
type Filters struct {
	Query     string
	AccountID string
	Folder    string
	Category  string
	Limit     int
}

// Client wraps the Elasticsearch client for email indexing and search.
type Client struct {
	es *elasticsearch.Client
}

func NewClient(url string) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &Client{es: es}, nil
}

// IndexEmail writes one document into the email index. Callers treat this
// as best-effort; the error is for logging only.
func (c *Client) IndexEmail(ctx context.Context, doc *EmailDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      emailIndex,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("index request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index request returned %s", res.Status())
	}
	return nil
}

// DeleteByAccount removes every indexed document for an account.
// Best-effort, used on account cascade deletion.
func (c *Client) DeleteByAccount(ctx context.Context, accountID string) error {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"account_id": accountID},
		},
	}
	body, _ := json.Marshal(query)

	res, err := c.es.DeleteByQuery([]string{emailIndex}, bytes.NewReader(body), c.es.DeleteByQuery.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete-by-query failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("delete-by-query returned %s", res.Status())
	}
	return nil
}

// SearchEmails resolves the filters into a bool query and returns matching
// email IDs, newest first. Any failure yields an empty result, never an
// error: the search surface degrades instead of breaking the API.
func (c *Client) SearchEmails(ctx context.Context, f Filters) []string {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	must := []map[string]interface{}{}
	if f.Query != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  f.Query,
				"fields": []string{"subject", "text_body", "from"},
			},
		})
	}

	filter := []map[string]interface{}{}
	if f.AccountID != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"account_id": f.AccountID},
		})
	}
	if f.Folder != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"folder": f.Folder},
		})
	}
	if f.Category != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"category": f.Category},
		})
	}

	query := map[string]interface{}{
		"size": limit,
		"sort": []map[string]interface{}{
			{"received_at": map[string]interface{}{"order": "desc", "unmapped_type": "date"}},
		},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
	}

	body, err := json.Marshal(query)
	if err != nil {
		log.WithError(err).Warn("search query marshal failed")
		return []string{}
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(emailIndex),
		c.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		log.WithError(err).Warn("email search failed")
		return []string{}
	}
	defer res.Body.Close()

	if res.IsError() {
		log.WithField("status", res.Status()).Warn("email search returned error status")
		return []string{}
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		log.WithError(err).Warn("email search response decode failed")
		return []string{}
	}

	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids
}
