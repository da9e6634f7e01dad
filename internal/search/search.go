package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/product_rating/internal/models"
)

// Index keeps product documents searchable by name.
type Index interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	SearchProductIDs(ctx context.Context, q string, from, size int) (int64, []uint, error)
}

type Config struct {
	URL      string
	User     string
	Password string
	Index    string
}

type ESIndex struct {
	es    *elasticsearch.Client
	index string
}

type productDoc struct {
	ID     uint    `json:"id"`
	Name   string  `json:"name"`
	Price  string  `json:"price"`
	Rating float64 `json:"rating"`
}

func NewClient(cfg Config) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: new client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch: info: %s: %s", res.Status(), body)
	}
	return client, nil
}

func NewESIndex(client *elasticsearch.Client, index string) *ESIndex {
	return &ESIndex{es: client, index: index}
}

func (x *ESIndex) IndexProduct(ctx context.Context, p *models.Product) error {
	body, err := json.Marshal(productDoc{
		ID:     p.ID,
		Name:   p.Name,
		Price:  p.Price.StringFixed(2),
		Rating: p.Rating,
	})
	if err != nil {
		return err
	}

	res, err := x.es.Index(
		x.index,
		bytes.NewReader(body),
		x.es.Index.WithContext(ctx),
		x.es.Index.WithDocumentID(strconv.FormatUint(uint64(p.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: index product %d: %w", p.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch: index product %d: %s", p.ID, res.Status())
	}
	return nil
}

func (x *ESIndex) DeleteProduct(ctx context.Context, id uint) error {
	res, err := x.es.Delete(
		x.index,
		strconv.FormatUint(uint64(id), 10),
		x.es.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: delete product %d: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("elasticsearch: delete product %d: %s", id, res.Status())
	}
	return nil
}

func (x *ESIndex) SearchProductIDs(ctx context.Context, q string, from, size int) (int64, []uint, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(buildQuery(q, from, size)); err != nil {
		return 0, nil, err
	}

	res, err := x.es.Search(
		x.es.Search.WithContext(ctx),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("elasticsearch: search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("elasticsearch: search: %s", res.Status())
	}

	return decodeHits(res.Body)
}

func buildQuery(q string, from, size int) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"match": map[string]any{
				"name": map[string]any{
					"query":     q,
					"fuzziness": "AUTO",
				},
			},
		},
		"from":    from,
		"size":    size,
		"_source": []string{"id"},
	}
}

func decodeHits(r io.Reader) (int64, []uint, error) {
	var body struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source productDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return 0, nil, fmt.Errorf("elasticsearch: decode: %w", err)
	}

	ids := make([]uint, 0, len(body.Hits.Hits))
	for _, h := range body.Hits.Hits {
		ids = append(ids, h.Source.ID)
	}
	return body.Hits.Total.Value, ids, nil
}
