package client

import "context"

// Health checks the aggregated health of the creatormatch service.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var status HealthStatus
	if err := c.doAllowDegraded(ctx, "health", "GET", "/health", &status); err != nil {
		return HealthStatus{}, err
	}
	return status, nil
}
