package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteTelegramMetric records one monitored telegram for throughput analysis.
//
// The write is non-blocking; data is batched and sent asynchronously. Tags
// stay low-cardinality (direction and telegram type only - never addresses).
//
// Parameters:
//   - direction: "Incoming" or "Outgoing"
//   - telegramType: e.g. "GroupValueWrite"
//
// Example:
//
//	client.WriteTelegramMetric("Incoming", "GroupValueWrite")
func (c *Client) WriteTelegramMetric(direction string, telegramType string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"knx_telegrams",
		map[string]string{
			"direction":    direction,
			"telegramtype": telegramType,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteBufferMetric records the telegram buffer's fill level.
//
// Parameters:
//   - size: Number of records currently held
//   - capacity: Current buffer capacity
func (c *Client) WriteBufferMetric(size, capacity int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"monitor_buffer",
		nil,
		map[string]interface{}{
			"size":     size,
			"capacity": capacity,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
