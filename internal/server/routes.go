package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/zulandar/concierge/internal/models"
	"github.com/zulandar/concierge/internal/store"
	"go.uber.org/zap"
)

// Chatter answers guest messages.
type Chatter interface {
	Route(ctx context.Context, sessionID, message string) string
}

// Backend is the persistence read and updated by the dashboard.
type Backend interface {
	Rooms(ctx context.Context) ([]models.Room, error)
	MenuItems(ctx context.Context) ([]models.MenuItem, error)
	Orders(ctx context.Context, limit int) ([]models.Order, error)
	ServiceRequests(ctx context.Context, limit int) ([]models.ServiceRequest, error)
	OrdersAfter(ctx context.Context, afterID uint) ([]models.Order, error)
	ServiceRequestsAfter(ctx context.Context, afterID uint) ([]models.ServiceRequest, error)
	MarkOrderServed(ctx context.Context, id uint) error
	CompleteServiceRequest(ctx context.Context, id uint) error
	SetRoomAvailability(ctx context.Context, number int, available bool) error
}

// listLimit bounds the orders and requests shown on the dashboard.
const listLimit = 100

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse is the reply to POST /chat. SessionID echoes the request's
// session, or the one minted for it.
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

// registerRoutes sets up every route on the engine.
func registerRoutes(engine *gin.Engine, opts Opts) {
	engine.GET("/", handleHealth())
	engine.POST("/chat", rateLimit(opts.RateLimitPerMinute, opts.RateLimitBurst, opts.Logger), handleChat(opts.Router))

	engine.GET("/dashboard", handleDashboard(opts))
	engine.POST("/dashboard/orders/:id/served", handleOrderServed(opts.Backend, true))
	engine.POST("/dashboard/requests/:id/complete", handleRequestComplete(opts.Backend, true))
	engine.POST("/dashboard/rooms/:number/availability", handleRoomAvailability(opts.Backend, true))

	api := engine.Group("/api")
	api.GET("/rooms", handleRooms(opts.Backend))
	api.GET("/menu", handleMenu(opts.Backend))
	api.GET("/orders", handleOrders(opts.Backend))
	api.GET("/service-requests", handleServiceRequests(opts.Backend))
	api.POST("/orders/:id/served", handleOrderServed(opts.Backend, false))
	api.POST("/service-requests/:id/complete", handleRequestComplete(opts.Backend, false))
	api.POST("/rooms/:number/availability", handleRoomAvailability(opts.Backend, false))
	api.GET("/events", handleSSE(opts.Backend, opts.PollInterval))
}

func handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Concierge backend running"})
	}
}

func handleChat(router Chatter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if req.SessionID == "" {
			req.SessionID = uuid.NewString()
		}
		reply := router.Route(c.Request.Context(), req.SessionID, req.Message)
		c.JSON(http.StatusOK, ChatResponse{Response: reply, SessionID: req.SessionID})
	}
}

func handleRooms(b Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		rooms, err := b.Rooms(c.Request.Context())
		if err != nil {
			internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, rooms)
	}
}

func handleMenu(b Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := b.MenuItems(c.Request.Context())
		if err != nil {
			internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func handleOrders(b Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := b.Orders(c.Request.Context(), listLimit)
		if err != nil {
			internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

func handleServiceRequests(b Backend) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqs, err := b.ServiceRequests(c.Request.Context(), listLimit)
		if err != nil {
			internalError(c, err)
			return
		}
		c.JSON(http.StatusOK, reqs)
	}
}

func handleOrderServed(b Backend, redirect bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		if err := b.MarkOrderServed(c.Request.Context(), id); err != nil {
			updateError(c, err)
			return
		}
		respondUpdated(c, redirect, gin.H{"id": id, "status": models.OrderServed})
	}
}

func handleRequestComplete(b Backend, redirect bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		if err := b.CompleteServiceRequest(c.Request.Context(), id); err != nil {
			updateError(c, err)
			return
		}
		respondUpdated(c, redirect, gin.H{"id": id, "status": models.RequestCompleted})
	}
}

// availabilityForm is the body of the room availability update. Form
// posts from the dashboard and JSON bodies are both accepted.
type availabilityForm struct {
	Available *bool `json:"available" form:"available"`
}

func handleRoomAvailability(b Backend, redirect bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		number, err := strconv.Atoi(c.Param("number"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room number"})
			return
		}
		var form availabilityForm
		if err := c.ShouldBind(&form); err != nil || form.Available == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "available is required"})
			return
		}
		if err := b.SetRoomAvailability(c.Request.Context(), number, *form.Available); err != nil {
			updateError(c, err)
			return
		}
		respondUpdated(c, redirect, gin.H{"room_number": number, "is_available": *form.Available})
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

func respondUpdated(c *gin.Context, redirect bool, body gin.H) {
	if redirect {
		c.Redirect(http.StatusSeeOther, "/dashboard")
		return
	}
	c.JSON(http.StatusOK, body)
}

func updateError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	internalError(c, err)
}

func internalError(c *gin.Context, err error) {
	c.Error(err)
	if logger, ok := c.Get(loggerKey); ok {
		logger.(*zap.Logger).Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
