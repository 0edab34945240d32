package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/plotbid/plotbid/internal/domain/bids"
	"github.com/plotbid/plotbid/internal/domain/properties"
	"github.com/plotbid/plotbid/internal/predictor"
	"github.com/plotbid/plotbid/pkg/auth"
)

// Handler exposes the auction core over HTTP
type Handler struct {
	auctionService  *bids.Service
	propertyService *properties.Service
	pricePredictor  predictor.Predictor
}

// NewHandler creates a new API handler
func NewHandler(auctionService *bids.Service, propertyService *properties.Service, pricePredictor predictor.Predictor) *Handler {
	return &Handler{
		auctionService:  auctionService,
		propertyService: propertyService,
		pricePredictor:  pricePredictor,
	}
}

type propertyRequest struct {
	Location    string          `json:"location"`
	Address     string          `json:"address" binding:"required"`
	Size        string          `json:"size"`
	Bedrooms    int             `json:"bedrooms"`
	Bathrooms   int             `json:"bathrooms"`
	ActualPrice decimal.Decimal `json:"actual_price"`
	OwnerName   *string         `json:"owner_name"`
	DateListed  *string         `json:"date_listed"`
	Description *string         `json:"description"`
}

type propertyResponse struct {
	ID            string          `json:"id"`
	Location      string          `json:"location"`
	Address       string          `json:"address"`
	Size          string          `json:"size"`
	Bedrooms      int             `json:"bedrooms"`
	Bathrooms     int             `json:"bathrooms"`
	ActualPrice   decimal.Decimal `json:"actual_price"`
	OwnerName     *string         `json:"owner_name,omitempty"`
	DateListed    *string         `json:"date_listed,omitempty"`
	Description   *string         `json:"description,omitempty"`
	BiddingClosed bool            `json:"bidding_closed"`
	ClosedReason  string          `json:"closed_reason"`
}

type bidRequest struct {
	PropertyID string `json:"property_id" binding:"required"`
	Amount     string `json:"amount" binding:"required"`
}

type bidResponse struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	BidderID   *string   `json:"bidder_id,omitempty"`
	Amount     string    `json:"amount"`
	Status     string    `json:"status"`
	Notified   bool      `json:"notified"`
	CreatedAt  time.Time `json:"created_at"`
}

type propertyBidsResponse struct {
	HighestBid   *bidResponse  `json:"highest_bid"`
	TotalCount   int           `json:"total_count"`
	Bids         []bidResponse `json:"bids"`
	Closed       bool          `json:"closed"`
	ClosedReason string        `json:"closed_reason"`
}

// CreateProperty handles POST /api/properties
func (h *Handler) CreateProperty(c *gin.Context) {
	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dateListed, err := parseDate(req.DateListed)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date_listed must be YYYY-MM-DD"})
		return
	}

	property, err := h.propertyService.CreateProperty(c.Request.Context(), properties.CreatePropertyCommand{
		Location:    req.Location,
		Address:     req.Address,
		Size:        req.Size,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		ActualPrice: req.ActualPrice,
		OwnerName:   req.OwnerName,
		DateListed:  dateListed,
		Description: req.Description,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	out, err := h.mapProperty(c, property)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// GetProperty handles GET /api/properties/:id
func (h *Handler) GetProperty(c *gin.Context) {
	propertyID, ok := parseID(c, "id")
	if !ok {
		return
	}

	property, err := h.propertyService.GetProperty(c.Request.Context(), propertyID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	out, err := h.mapProperty(c, property)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ListProperties handles GET /api/properties
func (h *Handler) ListProperties(c *gin.Context) {
	list, err := h.propertyService.ListProperties(c.Request.Context(), properties.ListPropertiesQuery{
		Limit:  intQuery(c, "limit", 20),
		Offset: intQuery(c, "offset", 0),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]propertyResponse, len(list))
	for i, p := range list {
		mapped, err := h.mapProperty(c, p)
		if err != nil {
			h.writeError(c, err)
			return
		}
		out[i] = mapped
	}
	c.JSON(http.StatusOK, gin.H{"properties": out})
}

// UpdateProperty handles PUT /api/properties/:id
func (h *Handler) UpdateProperty(c *gin.Context) {
	propertyID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req propertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	property, err := h.propertyService.UpdateProperty(c.Request.Context(), properties.UpdatePropertyCommand{
		PropertyID:  propertyID,
		Location:    req.Location,
		Address:     req.Address,
		Size:        req.Size,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		OwnerName:   req.OwnerName,
		Description: req.Description,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	out, err := h.mapProperty(c, property)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// DeleteProperty handles DELETE /api/properties/:id
func (h *Handler) DeleteProperty(c *gin.Context) {
	propertyID, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.propertyService.DeleteProperty(c.Request.Context(), propertyID); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SubmitBid handles POST /api/bids. The caller's identity, when present, is
// attached to the bid; anonymous bids are accepted.
func (h *Handler) SubmitBid(c *gin.Context) {
	var req bidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	propertyID, err := uuid.Parse(req.PropertyID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid property_id"})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bids.ErrInvalidAmount.Error()})
		return
	}

	var bidderID *uuid.UUID
	if id, ok := auth.UserID(c); ok {
		bidderID = &id
	}

	bid, err := h.auctionService.SubmitBid(c.Request.Context(), bids.SubmitBidCommand{
		PropertyID: propertyID,
		BidderID:   bidderID,
		Amount:     amount,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, mapBid(bid))
}

// GetPropertyBids handles GET /api/properties/:id/bids
func (h *Handler) GetPropertyBids(c *gin.Context) {
	propertyID, ok := parseID(c, "id")
	if !ok {
		return
	}

	report, err := h.auctionService.GetPropertyBids(c.Request.Context(), propertyID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := propertyBidsResponse{
		TotalCount:   report.TotalCount,
		Bids:         make([]bidResponse, len(report.Bids)),
		Closed:       report.Closed,
		ClosedReason: string(report.ClosedReason),
	}
	if report.Highest != nil {
		highest := mapBid(report.Highest)
		out.HighestBid = &highest
	}
	for i, b := range report.Bids {
		out.Bids[i] = mapBid(b)
	}

	c.JSON(http.StatusOK, out)
}

// GetAllBids handles GET /api/bids
func (h *Handler) GetAllBids(c *gin.Context) {
	list, err := h.auctionService.GetAllBids(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bids": mapBids(list)})
}

// GetUserBids handles GET /api/users/:id/bids
func (h *Handler) GetUserBids(c *gin.Context) {
	bidderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	list, err := h.auctionService.GetUserBids(c.Request.Context(), bidderID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bids": mapBids(list)})
}

// BidAction handles POST /api/bids/:id/:action where action is accept,
// reject, reset or mark-notified.
func (h *Handler) BidAction(c *gin.Context) {
	bidID, ok := parseID(c, "id")
	if !ok {
		return
	}

	rawAction := c.Param("action")
	if rawAction == "mark-notified" {
		if err := h.auctionService.MarkNotified(c.Request.Context(), bidID); err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"notified": true})
		return
	}

	action, err := bids.ParseAction(rawAction)
	if err != nil {
		h.writeError(c, err)
		return
	}

	newStatus, err := h.auctionService.DecideBid(c.Request.Context(), bidID, action)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": string(newStatus)})
}

// PredictPrice handles POST /api/predict-price
func (h *Handler) PredictPrice(c *gin.Context) {
	var features predictor.Features
	if err := c.ShouldBindJSON(&features); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	price, err := h.pricePredictor.Predict(c.Request.Context(), features)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "prediction unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"predicted_price": price})
}

// writeError maps domain errors to HTTP status codes
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, properties.ErrPropertyNotFound), errors.Is(err, bids.ErrBidNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, bids.ErrAuctionClosed),
		errors.Is(err, bids.ErrBidBelowFloor),
		errors.Is(err, bids.ErrNotHighestBid),
		errors.Is(err, bids.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, bids.ErrInvalidAmount),
		errors.Is(err, bids.ErrInvalidAction),
		errors.Is(err, properties.ErrInvalidPrice),
		errors.Is(err, properties.ErrMissingAddress):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, bids.ErrContention):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handler) mapProperty(c *gin.Context, p *properties.Property) (propertyResponse, error) {
	out := propertyResponse{
		ID:          p.ID.String(),
		Location:    p.Location,
		Address:     p.Address,
		Size:        p.Size,
		Bedrooms:    p.Bedrooms,
		Bathrooms:   p.Bathrooms,
		ActualPrice: p.ActualPrice,
		OwnerName:   p.OwnerName,
		Description: p.Description,
	}
	if p.DateListed != nil {
		d := p.DateListed.Format("2006-01-02")
		out.DateListed = &d
	}
	closure, err := h.auctionService.GetClosure(c.Request.Context(), p)
	if err != nil {
		return propertyResponse{}, err
	}
	out.BiddingClosed = closure.Closed
	out.ClosedReason = string(closure.Reason)
	return out, nil
}

func mapBid(b *bids.Bid) bidResponse {
	out := bidResponse{
		ID:         b.ID.String(),
		PropertyID: b.PropertyID.String(),
		Amount:     b.Amount.StringFixed(2),
		Status:     string(b.Status),
		Notified:   b.Notified,
		CreatedAt:  b.CreatedAt,
	}
	if b.BidderID != nil {
		id := b.BidderID.String()
		out.BidderID = &id
	}
	return out
}

func mapBids(list []*bids.Bid) []bidResponse {
	out := make([]bidResponse, len(list))
	for i, b := range list {
		out[i] = mapBid(b)
	}
	return out
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}

func parseDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
