package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"

	"github.com/happyfeet/storefront/internal/models"
)

type Config struct {
	URL      string
	Username string
	Password string
	Index    string
}

// Index mirrors products into Elasticsearch for admin search.
type Index struct {
	es    *elasticsearch.Client
	index string
}

// New connects and verifies the cluster is reachable.
func New(ctx context.Context, cfg Config) (*Index, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}

	return &Index{es: client, index: cfg.Index}, nil
}

type document struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Categories  []string `json:"categories"`
	Price       int64    `json:"price"`
	Featured    bool     `json:"featured"`
}

func toDocument(p *models.Product) document {
	return document{
		ID:          p.ID.String(),
		Slug:        p.Slug,
		Name:        p.Name,
		Description: p.Description,
		Categories:  p.Categories,
		Price:       p.Price,
		Featured:    p.Featured,
	}
}

func (ix *Index) IndexProduct(ctx context.Context, p *models.Product) error {
	body, err := json.Marshal(toDocument(p))
	if err != nil {
		return err
	}
	res, err := ix.es.Index(ix.index, bytes.NewReader(body),
		ix.es.Index.WithContext(ctx),
		ix.es.Index.WithDocumentID(p.ID.String()),
	)
	if err != nil {
		return fmt.Errorf("index product %s: %w", p.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index product %s: %s", p.ID, res.Status())
	}
	return nil
}

// DeleteProduct treats a missing document as already deleted.
func (ix *Index) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res, err := ix.es.Delete(ix.index, id.String(), ix.es.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete product %s: %s", id, res.Status())
	}
	return nil
}

func searchBody(query string, from, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from":    from,
		"size":    size,
		"_source": false,
	}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

func decodeSearch(r io.Reader) (int64, []uuid.UUID, error) {
	var sr searchResponse
	if err := json.NewDecoder(r).Decode(&sr); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(sr.Hits.Hits))
	for _, h := range sr.Hits.Hits {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return sr.Hits.Total.Value, ids, nil
}

// Search returns matching product ids in relevance order.
func (ix *Index) Search(ctx context.Context, query string, offset, limit int) (int64, []uuid.UUID, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(searchBody(strings.TrimSpace(query), offset, limit)); err != nil {
		return 0, nil, err
	}

	res, err := ix.es.Search(
		ix.es.Search.WithContext(ctx),
		ix.es.Search.WithIndex(ix.index),
		ix.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}
	return decodeSearch(res.Body)
}
