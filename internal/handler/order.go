package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taxi/internal/domain"
	"taxi/internal/middleware"
	"taxi/internal/service"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	orderService *service.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// CreateOrderRequest is the HTTP request body for creating an order.
type CreateOrderRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message,omitempty"`
}

// CreateAnonymousOrderRequest is the HTTP request body for an order without
// an account.
type CreateAnonymousOrderRequest struct {
	Phone   string `json:"phone"`
	Name    string `json:"name"`
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message,omitempty"`
}

// CalculateRequest is the HTTP request body for a fare estimate.
type CalculateRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// OrderResponse is the HTTP response for order data.
type OrderResponse struct {
	ID          int64  `json:"id"`
	From        string `json:"from"`
	To          string `json:"to"`
	PassengerID string `json:"passenger_id"`
	DriverID    string `json:"driver_id,omitempty"`
	DistanceKm  int    `json:"distance_km"`
	Price       int    `json:"price"`
	Message     string `json:"message,omitempty"`
	Status      string `json:"status"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	return OrderResponse{
		ID:          o.ID,
		From:        o.From.Line(),
		To:          o.To.Line(),
		PassengerID: o.PassengerID,
		DriverID:    o.DriverID,
		DistanceKm:  o.DistanceKm,
		Price:       o.Price,
		Message:     o.Message,
		Status:      string(o.Status),
	}
}

func orderIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid order id"})
		return 0, false
	}
	return id, true
}

// Create handles POST /v1/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), middleware.AccessToken(c), req.From, req.To, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(order))
}

// CreateAnonymous handles POST /v1/orders/anonymous
func (h *OrderHandler) CreateAnonymous(c *gin.Context) {
	var req CreateAnonymousOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.Phone == "" || req.Name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "phone and name are required"})
		return
	}

	order, err := h.orderService.CreateAnonymous(c.Request.Context(), req.Phone, req.Name, req.From, req.To, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toOrderResponse(order))
}

// Calculate handles POST /v1/orders/calculate
func (h *OrderHandler) Calculate(c *gin.Context) {
	var req CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	estimate, err := h.orderService.Calculate(c.Request.Context(), req.From, req.To)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"distance": estimate.DistanceKm,
		"price":    estimate.Price,
	})
}

// Get handles GET /v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := h.orderService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

// GetLast handles GET /v1/orders/last
func (h *OrderHandler) GetLast(c *gin.Context) {
	order, err := h.orderService.GetLast(c.Request.Context(), middleware.AccessToken(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

// List handles GET /v1/orders
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.orderService.ListForUser(c.Request.Context(), middleware.AccessToken(c))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, toOrderResponse(o))
	}
	c.JSON(http.StatusOK, response)
}

// Take handles POST /v1/orders/:id/take
func (h *OrderHandler) Take(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := h.orderService.Take(c.Request.Context(), middleware.AccessToken(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

// Close handles POST /v1/orders/:id/close
func (h *OrderHandler) Close(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := h.orderService.Close(c.Request.Context(), middleware.AccessToken(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}

// Cancel handles POST /v1/orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := h.orderService.Cancel(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOrderResponse(order))
}
