package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// AuthoringClient talks to the authoring CMS, an external collaborator that
// owns releases and test sets.
type AuthoringClient interface {
	ListReleaseTestSetIDs(ctx context.Context, releaseID int64) ([]int64, error)
}

func NewHTTPAuthoringClient(baseURL string) *HTTPAuthoringClient {
	return &HTTPAuthoringClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type HTTPAuthoringClient struct {
	baseURL string
	client  *http.Client
}

func (c *HTTPAuthoringClient) ListReleaseTestSetIDs(
	ctx context.Context,
	releaseID int64,
) ([]int64, error) {
	url := fmt.Sprintf("%s/releases/%d/test-sets", c.baseURL, releaseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("authoring api returned %d for release %d", resp.StatusCode, releaseID)
	}

	var body struct {
		TestSetIDs []int64 `json:"test_set_ids"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.TestSetIDs, nil
}
