package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/product_rating/internal/events"
	"github.com/Skotchmaster/product_rating/internal/logging"
	"github.com/Skotchmaster/product_rating/internal/models"
	"github.com/Skotchmaster/product_rating/internal/repo"
	"github.com/Skotchmaster/product_rating/internal/search"
	"github.com/Skotchmaster/product_rating/internal/util"
)

const (
	priceMaxDigits     = 7
	priceDecimalPlaces = 2

	msgNameTaken = "product with this name already exists."

	sideEffectTimeout = 5 * time.Second
)

var productOrdering = map[string]string{
	"id":         "id",
	"name":       "name",
	"price":      "price",
	"rating":     "rating",
	"updated_at": "updated_at",
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	Index  search.Index
	Topic  string
}

type ProductInput struct {
	Name   *string          `json:"name"   validate:"omitnil,min=1,max=255"`
	Price  *decimal.Decimal `json:"price"  validate:"-"`
	Rating *float64         `json:"rating" validate:"omitnil,gte=0,lte=5"`
}

func decodeProduct(fields fieldSet, p Payload, partial bool) (ProductInput, *ValidationError) {
	verr := NewValidationError()
	var in ProductInput

	if raw, ok := fields.take(p, "name", partial, verr); ok {
		if v, err := parseString(raw); err != nil {
			verr.Add("name", err.Error())
		} else {
			in.Name = &v
		}
	}
	if raw, ok := fields.take(p, "price", partial, verr); ok {
		if v, err := parseDecimal(raw); err != nil {
			verr.Add("price", err.Error())
		} else if msg := checkDecimal(v, priceMaxDigits, priceDecimalPlaces); msg != "" {
			verr.Add("price", msg)
		} else {
			in.Price = &v
		}
	}
	if raw, ok := fields.take(p, "rating", partial, verr); ok {
		if v, err := parseFloat(raw); err != nil {
			verr.Add("rating", err.Error())
		} else {
			in.Rating = &v
		}
	}

	validateStruct(in, verr)
	return in, verr
}

func (in ProductInput) apply(prod *models.Product) {
	if in.Name != nil {
		prod.Name = *in.Name
	}
	if in.Price != nil {
		prod.Price = *in.Price
	}
	if in.Rating != nil {
		prod.Rating = *in.Rating
	}
}

func checkProductName(ctx context.Context, tx *repo.GormRepo, in ProductInput, excludeID uint, verr *ValidationError) error {
	if in.Name == nil || verr.Has("name") {
		return nil
	}
	taken, err := tx.ProductNameTaken(ctx, *in.Name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		verr.Add("name", msgNameTaken)
	}
	return nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	prod, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return prod, nil
}

func (s *CatalogService) GetProducts(ctx context.Context, ordering string, page util.Page) (int64, []models.Product, error) {
	order := util.ParseOrdering(ordering, productOrdering)
	return s.Repo.GetProducts(ctx, order, page.Offset(), page.Limit())
}

func (s *CatalogService) CreateProduct(ctx context.Context, p Payload) (*models.Product, error) {
	var prod models.Product
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		in, verr := decodeProduct(productSerializer, p, false)
		if err := checkProductName(ctx, tx, in, 0, verr); err != nil {
			return err
		}
		if !verr.Empty() {
			return verr
		}

		in.apply(&prod)
		return duplicate(tx.CreateProduct(ctx, &prod), "name", msgNameTaken)
	})
	if err != nil {
		return nil, err
	}

	s.productChanged(ctx, events.ProductCreated, &prod)
	return &prod, nil
}

// UpdateProduct replaces the writable fields, or only the supplied ones
// when partial is set.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, p Payload, partial bool) (*models.Product, error) {
	var prod *models.Product
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		prod, err = tx.GetProduct(ctx, id)
		if err != nil {
			return notFound(err)
		}

		in, verr := decodeProduct(productSerializer, p, partial)
		if err := checkProductName(ctx, tx, in, prod.ID, verr); err != nil {
			return err
		}
		if !verr.Empty() {
			return verr
		}

		in.apply(prod)
		return duplicate(tx.SaveProduct(ctx, prod), "name", msgNameTaken)
	})
	if err != nil {
		return nil, err
	}

	s.productChanged(ctx, events.ProductUpdated, prod)
	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		return tx.DeleteProduct(ctx, id)
	})
	if err != nil {
		return notFound(err)
	}

	s.productDeleted(ctx, id)
	return nil
}

// StoreAverageRating writes the mean of the product's ratings, rounded to
// two places, onto the product.
func (s *CatalogService) StoreAverageRating(ctx context.Context, id uint) (float64, error) {
	var stored float64
	var prod *models.Product
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		prod, err = tx.GetProduct(ctx, id)
		if err != nil {
			return notFound(err)
		}

		avg, err := tx.AverageRating(ctx, prod.ID)
		if err != nil {
			return err
		}
		if !avg.Valid {
			verr := NonFieldError(ErrNoRatings.Error())
			verr.Cause = ErrNoRatings
			return verr
		}

		// rounds the exact binary value, half to even on true ties
		raw := json.RawMessage(strconv.FormatFloat(avg.Float64, 'f', 2, 64))
		in, verr := decodeProduct(productRatingSerializer, Payload{"rating": raw}, false)
		if !verr.Empty() {
			return verr
		}

		stored = *in.Rating
		return tx.SetProductRating(ctx, prod, stored)
	})
	if err != nil {
		return 0, err
	}

	s.productChanged(ctx, events.ProductRatingStored, prod)
	return stored, nil
}

// SearchProducts matches product names through the search index, falling
// back to the database when no index is configured or it fails.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, page util.Page) (int64, []models.Product, error) {
	if q == "" {
		return 0, []models.Product{}, nil
	}

	if s.Index != nil {
		total, ids, err := s.Index.SearchProductIDs(ctx, q, page.Offset(), page.Limit())
		if err == nil {
			items, err := s.Repo.GetProductsByIDs(ctx, ids)
			if err != nil {
				return 0, nil, err
			}
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index_failed", "svc", "catalog.search_products", "error", err)
	}

	return s.Repo.SearchProducts(ctx, q, page.Offset(), page.Limit())
}

func (s *CatalogService) productChanged(ctx context.Context, typ string, prod *models.Product) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	s.publish(ctx, strconv.FormatUint(uint64(prod.ID), 10), map[string]any{
		"type":      typ,
		"productID": prod.ID,
		"name":      prod.Name,
		"price":     prod.Price.StringFixed(2),
		"rating":    prod.Rating,
	})

	if s.Index != nil {
		if err := s.Index.IndexProduct(ctx, prod); err != nil {
			logging.FromContext(ctx).Error("search_index_failed", "svc", "catalog", "productID", prod.ID, "error", err)
		}
	}
}

func (s *CatalogService) productDeleted(ctx context.Context, id uint) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	s.publish(ctx, strconv.FormatUint(uint64(id), 10), map[string]any{
		"type":      events.ProductDeleted,
		"productID": id,
	})

	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Error("search_index_failed", "svc", "catalog", "productID", id, "error", err)
		}
	}
}

func (s *CatalogService) publish(ctx context.Context, key string, event map[string]any) {
	publish(ctx, s.Events, s.Topic, key, event)
}

func publish(ctx context.Context, pub events.Publisher, topic, key string, event map[string]any) {
	if pub == nil {
		return
	}
	if topic == "" {
		topic = events.TopicCatalog
	}
	if err := pub.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_failed", "topic", topic, "type", event["type"], "key", key, "error", err)
	}
}
