package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/config"
	"github.com/CP-S-Enterprise-for-technology-s/RockDeals-POS-System/internal/models"
)

const productMapping = `{
	"mappings": {
		"properties": {
			"name": { "type": "text" },
			"description": { "type": "text" },
			"sku": { "type": "keyword" },
			"barcode": { "type": "keyword" },
			"price": { "type": "double" },
			"is_active": { "type": "boolean" }
		}
	}
}`

// ElasticIndex stores products in an Elasticsearch index.
type ElasticIndex struct {
	client *elasticsearch.Client
	index  string
}

// NewElasticIndex connects and makes sure the product index exists.
func NewElasticIndex(ctx context.Context, cfg config.ElasticConfig) (*ElasticIndex, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	res, err := client.Info(client.Info.WithContext(ctx))
	if err := checkResponse("info", res, err); err != nil {
		return nil, err
	}
	idx := &ElasticIndex{client: client, index: cfg.Index}
	if err := idx.ensureIndex(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

func (e *ElasticIndex) ensureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists([]string{e.index}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}
	res, err = e.client.Indices.Create(e.index,
		e.client.Indices.Create.WithBody(strings.NewReader(productMapping)),
		e.client.Indices.Create.WithContext(ctx),
	)
	return checkResponse("create index", res, err)
}

type productDoc struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	SKU         string  `json:"sku,omitempty"`
	Barcode     string  `json:"barcode,omitempty"`
	Price       float64 `json:"price"`
	IsActive    bool    `json:"is_active"`
}

func (e *ElasticIndex) IndexProduct(ctx context.Context, p *models.Product) error {
	doc := productDoc{
		Name:        p.Name,
		Description: p.Description,
		Price:       models.Money(p.Price),
		IsActive:    p.IsActive,
	}
	if p.SKU != nil {
		doc.SKU = *p.SKU
	}
	if p.Barcode != nil {
		doc.Barcode = *p.Barcode
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	res, err := e.client.Index(e.index, bytes.NewReader(body),
		e.client.Index.WithDocumentID(p.ID.String()),
		e.client.Index.WithContext(ctx),
	)
	return checkResponse("index product", res, err)
}

func (e *ElasticIndex) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res, err := e.client.Delete(e.index, id.String(), e.client.Delete.WithContext(ctx))
	if err == nil && res.StatusCode == 404 {
		res.Body.Close()
		return nil
	}
	return checkResponse("delete product", res, err)
}

func (e *ElasticIndex) Search(ctx context.Context, query string, limit int) ([]uuid.UUID, error) {
	body, err := json.Marshal(buildQuery(query, limit))
	if err != nil {
		return nil, err
	}
	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithIndex(e.index),
		e.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search: %s", res.String())
	}
	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		if id, err := uuid.Parse(h.ID); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func buildQuery(query string, limit int) map[string]any {
	must := []map[string]any{}
	if query != "" {
		must = append(must, map[string]any{
			"query_string": map[string]any{
				"query":  fmt.Sprintf("*%s*", escapeQuery(query)),
				"fields": []string{"name^3", "sku", "barcode", "description"},
			},
		})
	}
	return map[string]any{
		"size": limit,
		"query": map[string]any{
			"bool": map[string]any{
				"must":   must,
				"filter": []map[string]any{{"term": map[string]any{"is_active": true}}},
			},
		},
	}
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`, `+`, `\+`, `-`, `\-`, `=`, `\=`, `&`, `\&`, `|`, `\|`, `>`, `\>`, `<`, `\<`,
	`!`, `\!`, `(`, `\(`, `)`, `\)`, `{`, `\{`, `}`, `\}`, `[`, `\[`, `]`, `\]`, `^`, `\^`,
	`"`, `\"`, `~`, `\~`, `*`, `\*`, `?`, `\?`, `:`, `\:`, `/`, `\/`,
)

// escapeQuery escapes query_string reserved characters.
func escapeQuery(q string) string { return queryEscaper.Replace(q) }

func checkResponse(op string, res *esapi.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("%s: %s %s", op, res.Status(), msg)
	}
	return nil
}
