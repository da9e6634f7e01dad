package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/product_rating/internal/db"
	"github.com/Skotchmaster/product_rating/internal/logging"
	"github.com/Skotchmaster/product_rating/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/product_rating/internal/middleware/logging"
)

type Deps struct {
	DB       *gorm.DB
	Products *ProductHTTP
	Ratings  *RatingHTTP
	Auth     *auth.RequireLogin
}

// New builds the echo instance with the shared middleware stack and every
// route registered.
func New(logger *slog.Logger, d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = HTTPErrorHandler

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			logging.FromContext(c.Request().Context()).Error("readiness_failed", "error", err)
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
		}
		return c.NoContent(http.StatusOK)
	})

	requireLogin := d.Auth.Middleware()

	products := e.Group("/products", requireLogin)
	products.GET("", d.Products.GetProducts)
	products.POST("", d.Products.CreateProduct)
	products.GET("/search", d.Products.SearchProducts)
	products.GET("/:id", d.Products.GetProduct)
	products.PUT("/:id", d.Products.UpdateProduct)
	products.PATCH("/:id", d.Products.PatchProduct)
	products.DELETE("/:id", d.Products.DeleteProduct)
	products.GET("/:id/store-average-rating", d.Products.StoreAverageRating)

	ratings := e.Group("/ratings", requireLogin)
	ratings.GET("", d.Ratings.GetRatings)
	ratings.POST("", d.Ratings.CreateRating)
	ratings.GET("/:id", d.Ratings.GetRating)
	ratings.PUT("/:id", d.Ratings.UpdateRating)
	ratings.PATCH("/:id", d.Ratings.PatchRating)
	ratings.DELETE("/:id", d.Ratings.DeleteRating)
}
