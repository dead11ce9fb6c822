package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taxi/internal/domain"
	"taxi/internal/middleware"
	"taxi/internal/service"
)

// UserHandler handles HTTP requests for accounts and sessions.
type UserHandler struct {
	accountService *service.AccountService
	authService    *service.AuthService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(accountService *service.AccountService, authService *service.AuthService) *UserHandler {
	return &UserHandler{
		accountService: accountService,
		authService:    authService,
	}
}

// RegisterPassengerRequest is the HTTP request body for passenger registration.
type RegisterPassengerRequest struct {
	Phone       string `json:"phone"`
	Password    string `json:"password"`
	Name        string `json:"name"`
	HomeAddress string `json:"home_address"`
}

// RegisterDriverRequest is the HTTP request body for driver registration.
type RegisterDriverRequest struct {
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	CarType   string `json:"car_type"`
	CarModel  string `json:"car_model"`
	CarNumber string `json:"car_number"`
}

// LoginRequest is the HTTP request body for logging in.
type LoginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// UpdateUserRequest is the HTTP request body for a profile update.
type UpdateUserRequest struct {
	Phone       string `json:"phone"`
	Password    string `json:"password,omitempty"`
	Name        string `json:"name"`
	HomeAddress string `json:"home_address,omitempty"`
	CarType     string `json:"car_type,omitempty"`
	CarModel    string `json:"car_model,omitempty"`
	CarNumber   string `json:"car_number,omitempty"`
}

// UserResponse is the HTTP response for user data.
type UserResponse struct {
	ID          string `json:"id"`
	Role        string `json:"role"`
	Phone       string `json:"phone"`
	Name        string `json:"name"`
	HomeAddress string `json:"home_address,omitempty"`
	CarType     string `json:"car_type,omitempty"`
	CarModel    string `json:"car_model,omitempty"`
	CarNumber   string `json:"car_number,omitempty"`
}

func toUserResponse(u *domain.User) UserResponse {
	resp := UserResponse{
		ID:    u.ID,
		Role:  string(u.Role),
		Phone: u.Phone,
		Name:  u.Name,
	}
	if u.HomeAddress != nil {
		resp.HomeAddress = u.HomeAddress.Line()
	}
	if u.Car != nil {
		resp.CarType = u.Car.Type
		resp.CarModel = u.Car.Model
		resp.CarNumber = u.Car.Number
	}
	return resp
}

// RegisterPassenger handles POST /v1/users/passengers
func (h *UserHandler) RegisterPassenger(c *gin.Context) {
	var req RegisterPassengerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.Phone == "" || req.Password == "" || req.Name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "phone, password and name are required"})
		return
	}

	user, err := h.accountService.RegisterPassenger(c.Request.Context(), req.Phone, req.Password, req.Name, req.HomeAddress)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(user))
}

// RegisterDriver handles POST /v1/users/drivers
func (h *UserHandler) RegisterDriver(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.Phone == "" || req.Password == "" || req.Name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "phone, password and name are required"})
		return
	}

	car := domain.Car{Type: req.CarType, Model: req.CarModel, Number: req.CarNumber}
	user, err := h.accountService.RegisterDriver(c.Request.Context(), req.Phone, req.Password, req.Name, car)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(user))
}

// Login handles POST /v1/sessions
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"access_token": token})
}

// GetProfile handles GET /v1/users/me
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.authService.Resolve(c.Request.Context(), middleware.AccessToken(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// UpdateProfile handles PUT /v1/users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	user, err := h.accountService.Update(c.Request.Context(), middleware.AccessToken(c), service.UpdateRequest{
		Phone:           req.Phone,
		Password:        req.Password,
		Name:            req.Name,
		HomeAddressLine: req.HomeAddress,
		Car:             domain.Car{Type: req.CarType, Model: req.CarModel, Number: req.CarNumber},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// DeleteProfile handles DELETE /v1/users/me
func (h *UserHandler) DeleteProfile(c *gin.Context) {
	user, err := h.accountService.Delete(c.Request.Context(), middleware.AccessToken(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}
