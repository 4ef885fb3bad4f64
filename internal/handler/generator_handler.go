package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"genmarket/internal/model"
	"genmarket/internal/repository"
	"genmarket/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// GeneratorHandler serves the public storefront listing endpoints
type GeneratorHandler struct {
	generators repository.GeneratorRepository
}

func NewGeneratorHandler(generators repository.GeneratorRepository) *GeneratorHandler {
	return &GeneratorHandler{generators: generators}
}

// listingView decorates a listing with read-side derived fields
type listingView struct {
	*model.Generator
	FormattedPrice string `json:"formatted_price"`
	ListingAge     string `json:"listing_age"`
}

func newListingView(gen *model.Generator, now time.Time) listingView {
	return listingView{
		Generator:      gen,
		FormattedPrice: model.FormattedPrice(gen.Price),
		ListingAge:     model.ListingAge(gen.CreatedAt, now),
	}
}

func listingViews(gens []model.Generator, now time.Time) []listingView {
	views := make([]listingView, len(gens))
	for i := range gens {
		views[i] = newListingView(&gens[i], now)
	}
	return views
}

// List handles GET /api/generators: browse for-sale listings
func (h *GeneratorHandler) List(c echo.Context) error {
	log := logger.FromContext(c)

	q := repository.PublicListingQuery{
		Page:      queryInt(c, "page", 1),
		Limit:     queryInt(c, "limit", 12),
		Search:    c.QueryParam("search"),
		Brand:     c.QueryParam("brand"),
		Location:  c.QueryParam("location"),
		MinPrice:  queryInt64Ptr(c, "minPrice"),
		MaxPrice:  queryInt64Ptr(c, "maxPrice"),
		MinHours:  queryInt64Ptr(c, "minHours"),
		MaxHours:  queryInt64Ptr(c, "maxHours"),
		SortBy:    c.QueryParam("sortBy"),
		SortOrder: c.QueryParam("sortOrder"),
	}

	listings, total, err := h.generators.ListPublic(c.Request().Context(), q)
	if err != nil {
		log.Error("Failed to list generators", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"error":   "Failed to fetch generators",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"generators": listingViews(listings, time.Now()),
			"pagination": pagination(q.Page, q.Limit, total),
		},
	})
}

// Get handles GET /api/generators/:id: one for-sale listing with related
// and same-seller suggestions
func (h *GeneratorHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"error":   "Invalid generator ID format",
		})
	}

	gen, err := h.generators.FindByID(c.Request().Context(), uint(id))
	if err != nil {
		log.Error("Failed to fetch generator", zap.Uint64("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"error":   "Failed to fetch generator",
		})
	}
	if gen == nil {
		return c.JSON(http.StatusNotFound, echo.Map{
			"success": false,
			"error":   "Generator not found",
		})
	}

	// Only for-sale listings are public
	if gen.Status != model.StatusForSale {
		return c.JSON(http.StatusNotFound, echo.Map{
			"success": false,
			"error":   "Generator not available",
		})
	}

	// View counting is best-effort and never blocks the response;
	// a crash may lose an increment.
	go func(genID uint) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.generators.IncrementViews(ctx, genID); err != nil {
			log.Warn("Failed to increment view count", zap.Uint("id", genID), zap.Error(err))
		}
	}(gen.ID)

	related, err := h.generators.Related(c.Request().Context(), gen, 4)
	if err != nil {
		log.Warn("Failed to fetch related listings", zap.Error(err))
	}
	sellerOther, err := h.generators.SellerOther(c.Request().Context(), gen, 3)
	if err != nil {
		log.Warn("Failed to fetch seller listings", zap.Error(err))
	}

	now := time.Now()
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"generator":           newListingView(gen, now),
			"related":             listingViews(related, now),
			"sellerOtherListings": listingViews(sellerOther, now),
		},
	})
}

// TrackClick handles POST /api/generators/:id with action "whatsapp_click"
func (h *GeneratorHandler) TrackClick(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"error":   "Invalid generator ID format",
		})
	}

	var body struct {
		Action string `json:"action"`
	}
	if err := c.Bind(&body); err != nil || body.Action != "whatsapp_click" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"error":   "Invalid action",
		})
	}

	if err := h.generators.IncrementWhatsAppClicks(c.Request().Context(), uint(id)); err != nil {
		log.Error("Failed to track WhatsApp click", zap.Uint64("id", id), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"error":   "Failed to track click",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func queryInt(c echo.Context, name string, defaultValue int) int {
	if value := c.QueryParam(name); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func queryInt64Ptr(c echo.Context, name string) *int64 {
	if value := c.QueryParam(name); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return &parsed
		}
	}
	return nil
}

func pagination(page, limit int, total int64) echo.Map {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return echo.Map{
		"currentPage": page,
		"totalPages":  totalPages,
		"totalCount":  total,
		"limit":       limit,
		"hasNextPage": page < totalPages,
		"hasPrevPage": page > 1,
	}
}
