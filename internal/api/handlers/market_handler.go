package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"auction-house/internal/domain"
	"auction-house/internal/services"
	"auction-house/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// maxDurationSeconds is the longest duration a time.Duration can hold.
const maxDurationSeconds = math.MaxInt64 / int64(time.Second)

type MarketHandler struct {
	house           *services.AuctionHouse
	defaultDuration time.Duration
	log             logger.Logger
}

type CreateListingRequest struct {
	SellerID        string          `json:"seller_id"`
	SellerName      string          `json:"seller_name"`
	Item            domain.Item     `json:"item"`
	Price           decimal.Decimal `json:"price"`
	DurationSeconds int64           `json:"duration_seconds"`
}

type CreateListingResponse struct {
	ListingID uint64 `json:"listing_id"`
}

type ActorRequest struct {
	ActorID string `json:"actor_id"`
}

func NewMarketHandler(house *services.AuctionHouse, defaultDuration time.Duration, log logger.Logger) *MarketHandler {
	return &MarketHandler{
		house:           house,
		defaultDuration: defaultDuration,
		log:             log,
	}
}

// Register mounts the market routes on g.
func (h *MarketHandler) Register(g *echo.Group) {
	g.POST("/listings", h.CreateListing)
	g.GET("/listings", h.ListActive)
	g.GET("/listings/search", h.Search)
	g.GET("/listings/price", h.FilterByPrice)
	g.GET("/listings/category/:category", h.FilterByCategory)
	g.GET("/listings/:id", h.GetListing)
	g.POST("/listings/:id/buy", h.Buy)
	g.POST("/listings/:id/cancel", h.Cancel)
	g.DELETE("/admin/listings/:id", h.AdminRemove)
	g.GET("/sellers/top", h.TopSellers)
	g.GET("/sellers/:id/listings", h.ListBySeller)
	g.GET("/sellers/:id/sold", h.ListSold)
	g.GET("/sellers/:id/history", h.History)
	g.POST("/actors/:id/returns", h.DeliverReturns)
	g.GET("/stats", h.Stats)
}

func (h *MarketHandler) CreateListing(c echo.Context) error {
	var req CreateListingRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error("Failed to bind request", "error", err)
		return c.JSON(http.StatusBadRequest, errorBody("Invalid request body"))
	}
	if req.SellerID == "" {
		return c.JSON(http.StatusBadRequest, errorBody("seller_id is required"))
	}

	duration := h.defaultDuration
	if req.DurationSeconds > maxDurationSeconds || req.DurationSeconds < -maxDurationSeconds {
		return c.JSON(http.StatusBadRequest, errorBody("duration_seconds out of range"))
	}
	if req.DurationSeconds != 0 {
		duration = time.Duration(req.DurationSeconds) * time.Second
	}

	id, err := h.house.Create(c.Request().Context(), req.SellerID, req.SellerName, req.Item, req.Price, duration)
	if err != nil {
		return h.fail(c, "Failed to create listing", err)
	}

	return c.JSON(http.StatusCreated, CreateListingResponse{ListingID: id})
}

func (h *MarketHandler) GetListing(c echo.Context) error {
	id, err := listingID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid listing id"))
	}

	listing, ok := h.house.Get(id)
	if !ok {
		return c.JSON(http.StatusNotFound, errorBody(domain.ErrNotFound.Error()))
	}
	return c.JSON(http.StatusOK, h.view(listing))
}

func (h *MarketHandler) Buy(c echo.Context) error {
	id, err := listingID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid listing id"))
	}
	var req ActorRequest
	if err := c.Bind(&req); err != nil || req.ActorID == "" {
		return c.JSON(http.StatusBadRequest, errorBody("actor_id is required"))
	}

	if err := h.house.Buy(c.Request().Context(), req.ActorID, id); err != nil {
		return h.fail(c, "Failed to buy listing", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Listing purchased"})
}

func (h *MarketHandler) Cancel(c echo.Context) error {
	id, err := listingID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid listing id"))
	}
	var req ActorRequest
	if err := c.Bind(&req); err != nil || req.ActorID == "" {
		return c.JSON(http.StatusBadRequest, errorBody("actor_id is required"))
	}

	if err := h.house.Cancel(c.Request().Context(), req.ActorID, id); err != nil {
		return h.fail(c, "Failed to cancel listing", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Listing cancelled"})
}

func (h *MarketHandler) AdminRemove(c echo.Context) error {
	id, err := listingID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid listing id"))
	}

	removed := h.house.AdminRemove(c.Request().Context(), id)
	return c.JSON(http.StatusOK, map[string]bool{"removed": removed})
}

func (h *MarketHandler) ListActive(c echo.Context) error {
	return c.JSON(http.StatusOK, h.views(h.house.ListActive()))
}

func (h *MarketHandler) ListBySeller(c echo.Context) error {
	return c.JSON(http.StatusOK, h.views(h.house.ListBySeller(c.Param("id"))))
}

func (h *MarketHandler) ListSold(c echo.Context) error {
	return c.JSON(http.StatusOK, h.views(h.house.ListSold(c.Param("id"))))
}

func (h *MarketHandler) History(c echo.Context) error {
	return c.JSON(http.StatusOK, h.views(h.house.History(c.Param("id"))))
}

func (h *MarketHandler) Search(c echo.Context) error {
	return c.JSON(http.StatusOK, h.views(h.house.Search(c.QueryParam("q"))))
}

func (h *MarketHandler) FilterByCategory(c echo.Context) error {
	return c.JSON(http.StatusOK, h.views(h.house.FilterByCategory(c.Param("category"))))
}

func (h *MarketHandler) FilterByPrice(c echo.Context) error {
	lo, err := decimal.NewFromString(c.QueryParam("min"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid min price"))
	}
	hi, err := decimal.NewFromString(c.QueryParam("max"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid max price"))
	}

	return c.JSON(http.StatusOK, h.views(h.house.FilterByPrice(lo, hi)))
}

func (h *MarketHandler) Stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.house.Stats())
}

func (h *MarketHandler) TopSellers(c echo.Context) error {
	n := 10
	if raw := c.QueryParam("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, errorBody("Invalid n"))
		}
		n = parsed
	}

	return c.JSON(http.StatusOK, h.house.TopSellers(n))
}

func (h *MarketHandler) DeliverReturns(c echo.Context) error {
	delivered, err := h.house.DeliverPendingReturns(c.Request().Context(), c.Param("id"))
	if err != nil {
		h.log.Error("Failed to deliver pending returns", "actor_id", c.Param("id"), "error", err)
		return c.JSON(http.StatusInternalServerError, errorBody("Failed to deliver pending returns"))
	}
	return c.JSON(http.StatusOK, map[string]int{"delivered": delivered})
}

func (h *MarketHandler) fail(c echo.Context, msg string, err error) error {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error(msg, "error", err)
	} else {
		h.log.Info(msg, "error", err)
	}
	return c.JSON(status, errorBody(err.Error()))
}

func (h *MarketHandler) view(listing *domain.Listing) domain.ListingView {
	v := listing.View()
	v.Category = h.house.CategoryOf(listing)
	return v
}

func (h *MarketHandler) views(listings []*domain.Listing) []domain.ListingView {
	out := make([]domain.ListingView, 0, len(listings))
	for _, l := range listings {
		out = append(out, h.view(l))
	}
	return out
}

// StatusFor maps marketplace error kinds to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyResolved):
		return http.StatusConflict
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrCapacity):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

func listingID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
