package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/concierge/internal/dialogue"
	"github.com/zulandar/concierge/internal/models"
)

// DashboardView is everything the dashboard page renders.
type DashboardView struct {
	HotelName       string
	Rooms           []models.Room
	AvailableRooms  int
	Orders          []OrderRow
	Requests        []models.ServiceRequest
	PendingOrders   int
	PendingRequests int
}

// OrderRow is an order with its total formatted for display.
type OrderRow struct {
	models.Order
	Total  string
	Served bool
}

// loadDashboard gathers the dashboard view from the backend.
func loadDashboard(ctx context.Context, b Backend, hotel, currency string) (*DashboardView, error) {
	rooms, err := b.Rooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("dashboard rooms: %w", err)
	}
	orders, err := b.Orders(ctx, listLimit)
	if err != nil {
		return nil, fmt.Errorf("dashboard orders: %w", err)
	}
	reqs, err := b.ServiceRequests(ctx, listLimit)
	if err != nil {
		return nil, fmt.Errorf("dashboard requests: %w", err)
	}

	view := &DashboardView{HotelName: hotel, Rooms: rooms, Requests: reqs}
	for _, r := range rooms {
		if r.IsAvailable {
			view.AvailableRooms++
		}
	}
	view.Orders = make([]OrderRow, len(orders))
	for i, o := range orders {
		served := o.Status == models.OrderServed
		if !served {
			view.PendingOrders++
		}
		view.Orders[i] = OrderRow{Order: o, Total: currency + dialogue.FormatPrice(o.TotalAmount), Served: served}
	}
	for _, r := range reqs {
		if r.Status == models.RequestPending {
			view.PendingRequests++
		}
	}
	return view, nil
}

func handleDashboard(opts Opts) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := loadDashboard(c.Request.Context(), opts.Backend, opts.HotelName, opts.Currency)
		if err != nil {
			internalError(c, err)
			return
		}
		c.HTML(http.StatusOK, "dashboard.html", view)
	}
}
