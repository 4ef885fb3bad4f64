package handler

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"time"

	"genmarket/internal/model"
	"genmarket/internal/repository"
	"genmarket/pkg/config"
	"genmarket/pkg/jwtutil"
	"genmarket/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AdminHandler serves admin authentication, the review queue and
// manual listing entry
type AdminHandler struct {
	generators repository.GeneratorRepository
	users      repository.UserRepository
	jwtUtil    *jwtutil.JWTUtil
	password   string
	tokenTTL   time.Duration
}

func NewAdminHandler(generators repository.GeneratorRepository, users repository.UserRepository, jwtUtil *jwtutil.JWTUtil, cfg *config.Config) *AdminHandler {
	return &AdminHandler{
		generators: generators,
		users:      users,
		jwtUtil:    jwtUtil,
		password:   cfg.Admin.Password,
		tokenTTL:   cfg.Admin.JWTExpiration,
	}
}

// Login handles POST /api/admin/auth
func (h *AdminHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)

	var body struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil || body.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"error":   "Password is required",
		})
	}

	if subtle.ConstantTimeCompare([]byte(body.Password), []byte(h.password)) != 1 {
		log.Warn("Failed admin login attempt")
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"success": false,
			"error":   "Invalid password",
		})
	}

	token, err := h.jwtUtil.GenerateAdminToken()
	if err != nil {
		log.Error("Failed to generate admin token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"error":   "Failed to create session",
		})
	}

	expiresAt := time.Now().Add(h.tokenTTL)
	c.SetCookie(&http.Cookie{
		Name:     "admin-token",
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"token":      token,
			"role":       "admin",
			"expires_at": expiresAt.UTC(),
		},
	})
}

// ListGenerators handles GET /api/admin/generators: the review queue,
// defaulting to pending listings, with per-status counts for the dashboard
func (h *AdminHandler) ListGenerators(c echo.Context) error {
	log := logger.FromContext(c)

	status := c.QueryParam("status")
	if status == "" {
		status = model.StatusPendingReview
	}

	q := repository.AdminListingQuery{
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", 10),
		Status: status,
		Search: c.QueryParam("search"),
	}

	listings, total, err := h.generators.ListAdmin(c.Request().Context(), q)
	if err != nil {
		log.Error("Failed to list generators for review", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"error":   "Failed to fetch generators",
		})
	}

	statusStats, err := h.generators.CountByStatus(c.Request().Context())
	if err != nil {
		log.Error("Failed to count generators by status", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"error":   "Failed to fetch generators",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"generators":  listings,
			"statusStats": statusStats,
			"pagination":  pagination(q.Page, q.Limit, total),
		},
	})
}

// Review handles PUT /api/admin/generators/:id: approve or reject a
// pending listing
func (h *AdminHandler) Review(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"error":   "Invalid generator ID format",
		})
	}

	var body struct {
		Action     string `json:"action"`
		Reason     string `json:"reason"`
		ApprovedBy *uint  `json:"approved_by"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}
	if body.Action != "approve" && body.Action != "reject" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"error":   "Action must be approve or reject",
		})
	}

	gen, err := h.generators.FindByID(c.Request().Context(), uint(id))
	if err != nil {
		log.Error("Failed to fetch generator for review", zap.Uint64("id", id), zap.Error(err))
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
	if gen.Status != model.StatusPendingReview {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"error":   "Generator is not pending review",
		})
	}

	switch body.Action {
	case "approve":
		err = h.generators.Approve(c.Request().Context(), gen, body.ApprovedBy)
	case "reject":
		err = h.generators.Reject(c.Request().Context(), gen, body.Reason)
	}
	if err != nil {
		log.Error("Failed to review generator",
			zap.Uint64("id", id),
			zap.String("action", body.Action),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"error":   "Failed to update generator",
		})
	}

	log.Info("Listing reviewed",
		zap.Uint("generator_id", gen.ID),
		zap.String("action", body.Action),
		zap.String("status", gen.Status))

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"generator": gen},
	})
}

type manualListingRequest struct {
	Brand          string   `json:"brand"`
	Model          string   `json:"model"`
	Price          int64    `json:"price"`
	HoursRun       int64    `json:"hours_run"`
	LocationText   string   `json:"location_text"`
	Description    string   `json:"description"`
	SellerWhatsApp string   `json:"seller_whatsapp"`
	SellerName     string   `json:"seller_name"`
	ImageURLs      []string `json:"image_urls"`
}

func (r *manualListingRequest) validate() string {
	switch {
	case r.Brand == "":
		return "Brand is required"
	case r.Model == "":
		return "Model is required"
	case r.Price <= 0:
		return "Price must be greater than zero"
	case r.HoursRun < 0:
		return "Hours run cannot be negative"
	case r.LocationText == "":
		return "Location is required"
	case r.SellerWhatsApp == "":
		return "Seller WhatsApp number is required"
	default:
		return ""
	}
}

// CreateManual handles POST /api/admin/generators/manual: an admin-entered
// listing that skips the review queue and goes straight to for_sale
func (h *AdminHandler) CreateManual(c echo.Context) error {
	log := logger.FromContext(c)

	var body manualListingRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"error":   "Invalid request body",
		})
	}
	if msg := body.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"error":   msg,
		})
	}

	seller, err := h.users.FindOrCreate(c.Request().Context(), body.SellerWhatsApp, body.SellerName)
	if err != nil {
		log.Error("Failed to resolve seller for manual listing",
			zap.String("whatsapp_id", body.SellerWhatsApp),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"error":   "Failed to create listing",
		})
	}

	images := make([]model.GeneratorImage, 0, len(body.ImageURLs))
	for i, url := range body.ImageURLs {
		if url == "" {
			continue
		}
		images = append(images, model.GeneratorImage{URL: url, Position: i})
	}

	description := body.Description
	if description == "" {
		description = "No description provided."
	}

	gen := &model.Generator{
		Brand:        body.Brand,
		Model:        body.Model,
		Price:        body.Price,
		HoursRun:     body.HoursRun,
		LocationText: body.LocationText,
		Description:  description,
		Images:       images,
		Status:       model.StatusForSale,
		SellerID:     seller.ID,
		AuditTrail: model.AuditTrail{
			WhatsAppMessageID:   "manual_" + uuid.New().String(),
			OriginalMessageText: "Manually entered by admin",
			ParsedAt:            time.Now().UTC(),
		},
	}

	if err := h.generators.Create(c.Request().Context(), gen); err != nil {
		log.Error("Failed to create manual listing", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"error":   "Failed to create listing",
		})
	}

	if err := h.users.IncrementListings(c.Request().Context(), seller); err != nil {
		log.Warn("Failed to increment seller listing count",
			zap.Uint("seller_id", seller.ID),
			zap.Error(err))
	}

	log.Info("Manual listing created",
		zap.Uint("generator_id", gen.ID),
		zap.String("brand", gen.Brand),
		zap.Uint("seller_id", seller.ID))

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"data":    echo.Map{"generator": gen},
	})
}
