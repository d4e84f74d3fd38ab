package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WritePoint queues one point. Tags should be low cardinality.
// Writes on a closed client are dropped.
//
//	client.WritePoint("nlog_lifecycle",
//	    map[string]string{"instance": "default", "event": "changed"},
//	    map[string]any{"installed": true},
//	    time.Now())
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any, at time.Time) {
	if !c.IsConnected() {
		return
	}
	if at.IsZero() {
		at = time.Now()
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, at))
}
