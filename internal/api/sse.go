package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"innkeeper/internal/events"
)

// streamBookingEvents serves the pipeline lifecycle feed over SSE. With an
// email query parameter the stream is scoped to that recipient's topic;
// without one it carries every booking topic. Optional order_id and
// event_type parameters filter the delivered events.
func (s *Server) streamBookingEvents(c *gin.Context) {
	writer := c.Writer
	headers := writer.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	flusher, ok := writer.(http.Flusher)
	if !ok {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "streaming not supported"})
		return
	}

	if s.bus == nil {
		io.WriteString(writer, `data: {"status":"no_bus_available"}`+"\n\n")
		flusher.Flush()
		return
	}

	pattern := "booking:*"
	if email := strings.TrimSpace(c.Query("email")); email != "" {
		pattern = events.TopicFor(email)
	}
	orderID := strings.TrimSpace(c.Query("order_id"))
	eventType := strings.TrimSpace(c.Query("event_type"))

	id, ch := s.bus.Subscribe(pattern)
	defer s.bus.Unsubscribe(id)

	if _, err := io.WriteString(writer, "retry: 2000\n\n"); err != nil {
		return
	}
	if _, err := fmt.Fprintf(writer, "data: {\"status\":\"connected\",\"pattern\":%q}\n\n", pattern); err != nil {
		return
	}
	flusher.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-ch:
			if !open {
				return
			}
			if orderID != "" && ev.OrderID != orderID {
				continue
			}
			if eventType != "" && string(ev.Type) != eventType {
				continue
			}
			if err := writeBookingEvent(writer, ev); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeBookingEvent(w io.Writer, ev events.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
