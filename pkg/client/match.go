package client

import "context"

// Match submits an assignment brief and returns its ranked creator matches.
func (c *Client) Match(ctx context.Context, req MatchRequest) (MatchResponse, error) {
	var resp MatchResponse
	if err := c.do(ctx, "match", "POST", "/matches", req, &resp); err != nil {
		return MatchResponse{}, err
	}
	return resp, nil
}
