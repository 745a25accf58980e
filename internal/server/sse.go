package server

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
)

// orderEvent is sent when a new order is committed.
type orderEvent struct {
	ID          uint    `json:"id"`
	RoomNumber  int     `json:"room_number"`
	Items       string  `json:"items"`
	TotalAmount float64 `json:"total_amount"`
}

// requestEvent is sent when a new service request is raised.
type requestEvent struct {
	ID          uint   `json:"id"`
	RoomNumber  int    `json:"room_number"`
	RequestType string `json:"request_type"`
}

// handleSSE streams new orders and service requests to the dashboard.
func handleSSE(b Backend, interval time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
		c.Writer.Flush()

		ctx := c.Request.Context()

		// Only alert on rows created after the stream opened.
		var lastOrder, lastRequest uint
		if orders, err := b.Orders(ctx, 1); err == nil && len(orders) > 0 {
			lastOrder = orders[0].ID
		}
		if reqs, err := b.ServiceRequests(ctx, 1); err == nil && len(reqs) > 0 {
			lastRequest = reqs[0].ID
		}

		ticker := time.NewTicker(interval)
		heartbeat := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		defer heartbeat.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				writeSSE(c.Writer, "heartbeat", map[string]string{
					"timestamp": time.Now().UTC().Format(time.RFC3339),
				})
				c.Writer.Flush()
			case <-ticker.C:
				if orders, err := b.OrdersAfter(ctx, lastOrder); err == nil {
					for _, o := range orders {
						writeSSE(c.Writer, "order", orderEvent{
							ID: o.ID, RoomNumber: o.RoomNumber, Items: o.Items, TotalAmount: o.TotalAmount,
						})
						lastOrder = o.ID
					}
				}
				if reqs, err := b.ServiceRequestsAfter(ctx, lastRequest); err == nil {
					for _, r := range reqs {
						writeSSE(c.Writer, "service_request", requestEvent{
							ID: r.ID, RoomNumber: r.RoomNumber, RequestType: r.RequestType,
						})
						lastRequest = r.ID
					}
				}
				c.Writer.Flush()
			}
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
