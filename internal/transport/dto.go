package transport

import (
	"net/url"
	"strconv"
	"time"

	"github.com/Skotchmaster/product_rating/internal/models"
	"github.com/Skotchmaster/product_rating/internal/util"
)

type ProductResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Rating    float64   `json:"rating"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewProductResponse(p *models.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price.StringFixed(2),
		Rating:    p.Rating,
		UpdatedAt: p.UpdatedAt,
	}
}

func NewProductResponses(items []models.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(items))
	for i := range items {
		out = append(out, NewProductResponse(&items[i]))
	}
	return out
}

type RatingResponse struct {
	ID      uint `json:"id"`
	User    uint `json:"user"`
	Product uint `json:"product"`
	Rating  int  `json:"rating"`
}

func NewRatingResponse(r *models.Rating) RatingResponse {
	return RatingResponse{ID: r.ID, User: r.UserID, Product: r.ProductID, Rating: r.Rating}
}

func NewRatingResponses(items []models.Rating) []RatingResponse {
	out := make([]RatingResponse, 0, len(items))
	for i := range items {
		out = append(out, NewRatingResponse(&items[i]))
	}
	return out
}

type StoredRatingResponse struct {
	Status string  `json:"status"`
	Rating float64 `json:"rating"`
}

type DetailResponse struct {
	Detail string `json:"detail"`
}

type PageResponse[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NewPage wraps one page of results. self is the absolute URL of the
// current request; next and previous links keep its other query params.
func NewPage[T any](results []T, total int64, page util.Page, self *url.URL) PageResponse[T] {
	resp := PageResponse[T]{Count: total, Results: results}
	if page.HasNext(total) {
		resp.Next = pageLink(self, page.Number+1)
	}
	if page.HasPrev() {
		resp.Previous = pageLink(self, page.Number-1)
	}
	return resp
}

func pageLink(self *url.URL, number int) *string {
	u := *self
	q := u.Query()
	if number <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}
