package telemetry

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteActionEvent records that a choreography action of the given kind
// fired ("move", "lights", "finished").
//
// The write is non-blocking; data is batched and sent asynchronously.
func (c *Client) WriteActionEvent(kind string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"choreo_actions",
		map[string]string{
			"robot_id": c.robotID,
			"kind":     kind,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteCommandState records the latched command output after a fold.
//
// Recorded once per scripted action rather than per tick, so dashboards
// show the shape of the performance without a point every 50 ms.
//
// Parameters:
//   - linear: latched forward speed in m/s
//   - angular: latched rotation rate in rad/s
//   - lightOverride: whether the light ring is under script control
func (c *Client) WriteCommandState(linear, angular float64, lightOverride bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"command_state",
		map[string]string{
			"robot_id": c.robotID,
		},
		map[string]interface{}{
			"linear_m_s":     linear,
			"angular_rad_s":  angular,
			"light_override": lightOverride,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods. The
// robot_id tag is added automatically.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	merged := map[string]string{"robot_id": c.robotID}
	for k, v := range tags {
		merged[k] = v
	}

	point := write.NewPoint(measurement, merged, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
