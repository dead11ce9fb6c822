package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taxi/internal/domain"
	"taxi/internal/service"
)

// DriverHandler handles HTTP requests for driver matching.
type DriverHandler struct {
	matchingService *service.MatchingService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(matchingService *service.MatchingService) *DriverHandler {
	return &DriverHandler{matchingService: matchingService}
}

// RankedOrderResponse is one entry of the distance-ranked order list.
type RankedOrderResponse struct {
	Order          OrderResponse `json:"order"`
	DistanceMeters int           `json:"distance_meters"`
	EtaMinutes     int           `json:"eta_minutes"`
}

// NearbyOrders handles GET /v1/drivers/orders?status=NEW&address=...
// It returns orders with the given status sorted ascending by distance from
// the driver's address.
func (h *DriverHandler) NearbyOrders(c *gin.Context) {
	status, ok := domain.ParseOrderStatus(c.DefaultQuery("status", string(domain.OrderStatusNew)))
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid order status"})
		return
	}

	address := c.Query("address")
	if address == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "address is required"})
		return
	}

	ranked, err := h.matchingService.RankByDistance(c.Request.Context(), status, address)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RankedOrderResponse, 0, len(ranked))
	for _, r := range ranked {
		response = append(response, RankedOrderResponse{
			Order:          toOrderResponse(r.Order),
			DistanceMeters: int(r.Distance),
			EtaMinutes:     r.EtaMinutes,
		})
	}
	c.JSON(http.StatusOK, response)
}
