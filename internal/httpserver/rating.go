package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/product_rating/internal/logging"
	"github.com/Skotchmaster/product_rating/internal/middleware/auth"
	"github.com/Skotchmaster/product_rating/internal/service"
	"github.com/Skotchmaster/product_rating/internal/transport"
	"github.com/Skotchmaster/product_rating/internal/util"
)

type RatingHTTP struct {
	Svc         *service.RatingService
	PageSize    int
	MaxPageSize int
}

func (h *RatingHTTP) GetRatings(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "rating.list")

	page, err := util.ParsePage(c.QueryParam("page"), c.QueryParam("page_size"), h.PageSize, h.MaxPageSize)
	if err != nil {
		l.Warn("list_ratings_error", "status", 404, "reason", "invalid page", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, msgInvalidPage)
	}

	total, items, err := h.Svc.ListRatings(ctx, page)
	if err != nil {
		return writeServiceError(c, l, "list_ratings", err)
	}
	if !page.InRange(total) {
		l.Warn("list_ratings_error", "status", 404, "reason", "page out of range", "page", page.Number, "total", total)
		return echo.NewHTTPError(http.StatusNotFound, msgInvalidPage)
	}

	return c.JSON(http.StatusOK, transport.NewPage(transport.NewRatingResponses(items), total, page, selfURL(c)))
}

func (h *RatingHTTP) GetRating(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "rating.get")

	id, ok := parseID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	}
	r, err := h.Svc.GetRating(ctx, id)
	if err != nil {
		return writeServiceError(c, l, "get_rating", err)
	}
	return c.JSON(http.StatusOK, transport.NewRatingResponse(r))
}

func (h *RatingHTTP) CreateRating(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "rating.create")

	p, err := readPayload(c)
	if err != nil {
		l.Warn("create_rating_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	r, err := h.Svc.CreateRating(ctx, p)
	if err != nil {
		return writeServiceError(c, l, "create_rating", err)
	}

	l.Info("create_rating_success", "rating_id", r.ID)
	return c.JSON(http.StatusCreated, transport.NewRatingResponse(r))
}

// UpdateRating is PUT. The caller must own the rating.
func (h *RatingHTTP) UpdateRating(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "rating.update")
	principal := auth.PrincipalFromContext(ctx)

	id, ok := parseID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	}
	p, err := readPayload(c)
	if err != nil {
		l.Warn("update_rating_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	r, err := h.Svc.UpdateRating(ctx, principal, id, p)
	if err != nil {
		return writeServiceError(c, l, "update_rating", err)
	}

	l.Info("update_rating_success", "rating_id", r.ID)
	return c.JSON(http.StatusOK, transport.NewRatingResponse(r))
}

func (h *RatingHTTP) PatchRating(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "rating.patch")

	id, ok := parseID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	}
	p, err := readPayload(c)
	if err != nil {
		l.Warn("patch_rating_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	r, err := h.Svc.PartialUpdateRating(ctx, id, p)
	if err != nil {
		return writeServiceError(c, l, "patch_rating", err)
	}

	l.Info("patch_rating_success", "rating_id", r.ID)
	return c.JSON(http.StatusOK, transport.NewRatingResponse(r))
}

func (h *RatingHTTP) DeleteRating(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "rating.delete")

	id, ok := parseID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, msgNotFound)
	}
	if err := h.Svc.DeleteRating(ctx, id); err != nil {
		return writeServiceError(c, l, "delete_rating", err)
	}

	l.Info("delete_rating_success", "rating_id", id)
	return c.NoContent(http.StatusNoContent)
}
