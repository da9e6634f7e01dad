package httpserver

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/product_rating/internal/logging"
	"github.com/Skotchmaster/product_rating/internal/service"
	"github.com/Skotchmaster/product_rating/internal/transport"
	"github.com/Skotchmaster/product_rating/internal/util"
)

const msgAverageStored = "average rating stored"

type ProductHTTP struct {
	Svc         *service.CatalogService
	PageSize    int
	MaxPageSize int
}

func (h *ProductHTTP) page(c echo.Context) (util.Page, error) {
	return util.ParsePage(c.QueryParam("page"), c.QueryParam("page_size"), h.PageSize, h.MaxPageSize)
}

func selfURL(c echo.Context) *url.URL {
	u := *c.Request().URL
	u.Scheme = c.Scheme()
	u.Host = c.Request().Host
	return &u
}

func (h *ProductHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list")

	page, err := h.page(c)
	if err != nil {
		l.Warn("list_products_error", "status", 404, "reason", "invalid page", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, msgInvalidPage)
	}

	total, items, err := h.Svc.GetProducts(ctx, c.QueryParam("ordering"), page)
	if err != nil {
		return writeServiceError(c, l, "list_products", err)
	}
	if !page.InRange(total) {
		l.Warn("list_products_error", "status", 404, "reason", "page out of range", "page", page.Number, "total", total)
		return echo.NewHTTPError(http.StatusNotFound, msgInvalidPage)
	}

	return c.JSON(http.StatusOK, transport.NewPage(transport.NewProductResponses(items), total, page, selfURL(c)))
}

func (h *ProductHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	page, err := h.page(c)
	if err != nil {
		l.Warn("search_products_error", "status", 404, "reason", "invalid page", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, msgInvalidPage)
	}

	total, items, err := h.Svc.SearchProducts(ctx, c.QueryParam("q"), page)
	if err != nil {
		return writeServiceError(c, l, "search_products", err)
	}
	if !page.InRange(total) {
		return echo.NewHTTPError(http.StatusNotFound, msgInvalidPage)
	}

	return c.JSON(http.StatusOK, transport.NewPage(transport.NewProductResponses(items), total, page, selfURL(c)))
}

func (h *ProductHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get")

	id, ok := parseID(c)
	if !ok {
		l.Warn("get_product_error", "status", 404, "reason", "id is not a positive integer", "id", c.Param("id"))
		return echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	}

	prod, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return writeServiceError(c, l, "get_product", err)
	}
	return c.JSON(http.StatusOK, transport.NewProductResponse(prod))
}

func (h *ProductHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	p, err := readPayload(c)
	if err != nil {
		l.Warn("create_product_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	prod, err := h.Svc.CreateProduct(ctx, p)
	if err != nil {
		return writeServiceError(c, l, "create_product", err)
	}

	l.Info("create_product_success", "product_id", prod.ID)
	return c.JSON(http.StatusCreated, transport.NewProductResponse(prod))
}

func (h *ProductHTTP) UpdateProduct(c echo.Context) error {
	return h.update(c, false)
}

func (h *ProductHTTP) PatchProduct(c echo.Context) error {
	return h.update(c, true)
}

func (h *ProductHTTP) update(c echo.Context, partial bool) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update", "partial", partial)

	id, ok := parseID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	}
	p, err := readPayload(c)
	if err != nil {
		l.Warn("update_product_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	prod, err := h.Svc.UpdateProduct(ctx, id, p, partial)
	if err != nil {
		return writeServiceError(c, l, "update_product", err)
	}

	l.Info("update_product_success", "product_id", prod.ID)
	return c.JSON(http.StatusOK, transport.NewProductResponse(prod))
}

func (h *ProductHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, ok := parseID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return writeServiceError(c, l, "delete_product", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHTTP) StoreAverageRating(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.store_average_rating")

	id, ok := parseID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	}

	avg, err := h.Svc.StoreAverageRating(ctx, id)
	if err != nil {
		return writeServiceError(c, l, "store_average_rating", err)
	}

	l.Info("store_average_rating_success", "product_id", id, "rating", avg)
	return c.JSON(http.StatusOK, transport.StoredRatingResponse{Status: msgAverageStored, Rating: avg})
}
