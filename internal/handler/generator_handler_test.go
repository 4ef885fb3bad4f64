package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"genmarket/internal/model"
	"genmarket/internal/repository"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func forSaleGenerator(id uint) *model.Generator {
	return &model.Generator{
		ID:           id,
		Brand:        "Kirloskar",
		Model:        "KG1-62.5AS",
		Price:        450000,
		HoursRun:     1200,
		LocationText: "Pune, Maharashtra",
		Status:       model.StatusForSale,
		SellerID:     9,
		CreatedAt:    time.Now().Add(-72 * time.Hour),
	}
}

func TestGeneratorList_PassesFiltersThrough(t *testing.T) {
	repo := new(MockGeneratorRepository)
	repo.On("ListPublic", mock.Anything, mock.MatchedBy(func(q repository.PublicListingQuery) bool {
		return q.Page == 2 &&
			q.Limit == 5 &&
			q.Brand == "Kirloskar" &&
			q.MinPrice != nil && *q.MinPrice == 100000 &&
			q.SortBy == "price_asc"
	})).Return([]model.Generator{*forSaleGenerator(1)}, int64(11), nil)

	h := NewGeneratorHandler(repo)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet,
		"/api/generators?page=2&limit=5&brand=Kirloskar&minPrice=100000&sortBy=price_asc", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, h.List(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Generators []struct {
				FormattedPrice string `json:"formatted_price"`
				ListingAge     string `json:"listing_age"`
			} `json:"generators"`
			Pagination struct {
				CurrentPage int   `json:"currentPage"`
				TotalPages  int   `json:"totalPages"`
				TotalCount  int64 `json:"totalCount"`
				HasNextPage bool  `json:"hasNextPage"`
				HasPrevPage bool  `json:"hasPrevPage"`
			} `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data.Generators, 1)
	assert.Equal(t, "₹4,50,000", body.Data.Generators[0].FormattedPrice)
	assert.NotEmpty(t, body.Data.Generators[0].ListingAge)
	assert.Equal(t, 2, body.Data.Pagination.CurrentPage)
	assert.Equal(t, 3, body.Data.Pagination.TotalPages)
	assert.Equal(t, int64(11), body.Data.Pagination.TotalCount)
	assert.True(t, body.Data.Pagination.HasNextPage)
	assert.True(t, body.Data.Pagination.HasPrevPage)
	repo.AssertExpectations(t)
}

func TestGeneratorList_DefaultsPageAndLimit(t *testing.T) {
	repo := new(MockGeneratorRepository)
	repo.On("ListPublic", mock.Anything, mock.MatchedBy(func(q repository.PublicListingQuery) bool {
		return q.Page == 1 && q.Limit == 12
	})).Return([]model.Generator{}, int64(0), nil)

	h := NewGeneratorHandler(repo)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/generators", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, h.List(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	repo.AssertExpectations(t)
}

func TestGeneratorGet_ReturnsDetailWithSuggestions(t *testing.T) {
	gen := forSaleGenerator(42)
	repo := new(MockGeneratorRepository)
	repo.On("FindByID", mock.Anything, uint(42)).Return(gen, nil)
	repo.On("Related", mock.Anything, gen, 4).Return([]model.Generator{*forSaleGenerator(43)}, nil)
	repo.On("SellerOther", mock.Anything, gen, 3).Return([]model.Generator{}, nil)
	repo.On("IncrementViews", mock.Anything, uint(42)).Return(nil).Maybe()

	h := NewGeneratorHandler(repo)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("42")

	require.NoError(t, h.Get(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	data := body["data"].(map[string]interface{})
	assert.NotNil(t, data["generator"])
	assert.Len(t, data["related"], 1)
	assert.Len(t, data["sellerOtherListings"], 0)
}

func TestGeneratorGet_HidesNonForSaleListings(t *testing.T) {
	for _, status := range []string{
		model.StatusPendingReview,
		model.StatusSold,
		model.StatusRejected,
		model.StatusFailedParsing,
	} {
		gen := forSaleGenerator(42)
		gen.Status = status
		repo := new(MockGeneratorRepository)
		repo.On("FindByID", mock.Anything, uint(42)).Return(gen, nil)

		h := NewGeneratorHandler(repo)
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("42")

		require.NoError(t, h.Get(c))
		assert.Equal(t, http.StatusNotFound, rec.Code, "status %s", status)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "Generator not available", body["error"], "status %s", status)
		repo.AssertNotCalled(t, "IncrementViews", mock.Anything, mock.Anything)
	}
}

func TestGeneratorGet_UnknownID(t *testing.T) {
	repo := new(MockGeneratorRepository)
	repo.On("FindByID", mock.Anything, uint(999)).Return(nil, nil)

	h := NewGeneratorHandler(repo)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("999")

	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGeneratorGet_BadID(t *testing.T) {
	h := NewGeneratorHandler(new(MockGeneratorRepository))
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-number")

	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTrackClick(t *testing.T) {
	t.Run("whatsapp_click increments the counter", func(t *testing.T) {
		repo := new(MockGeneratorRepository)
		repo.On("IncrementWhatsAppClicks", mock.Anything, uint(42)).Return(nil)

		h := NewGeneratorHandler(repo)
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":"whatsapp_click"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("42")

		require.NoError(t, h.TrackClick(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		repo.AssertExpectations(t)
	})

	t.Run("unknown action is rejected", func(t *testing.T) {
		repo := new(MockGeneratorRepository)

		h := NewGeneratorHandler(repo)
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":"like"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues("42")

		require.NoError(t, h.TrackClick(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		repo.AssertNotCalled(t, "IncrementWhatsAppClicks", mock.Anything, mock.Anything)
	})
}
