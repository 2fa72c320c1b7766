package transcode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"
)

// Submitter is the single operation the pipeline needs from the transcoding
// service. Separated out so tests can fake submissions without a network.
type Submitter interface {
	SubmitJob(ctx context.Context, req *JobRequest) (string, error)
}

// Client talks to the external transcoding service's REST API.
type Client struct {
	endpoint string
	project  string
	region   string
	http     *http.Client
}

// NewClient returns a Client for the configured project and region.
func NewClient(endpoint, project, region string) *Client {
	return &Client{
		endpoint: endpoint,
		project:  project,
		region:   region,
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

type jobResource struct {
	Name  string `json:"name"`
	State string `json:"state,omitempty"`
}

// SubmitJob creates the job and returns the service-assigned job identifier
// (the final segment of the returned resource name).
func (c *Client) SubmitJob(ctx context.Context, req *JobRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/projects/%s/locations/%s/jobs", c.endpoint, c.project, c.region)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build job submission request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("job submission failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read job submission response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("transcoding service returned %d: %s", resp.StatusCode, respBody)
	}

	var job jobResource
	if err := json.Unmarshal(respBody, &job); err != nil {
		return "", fmt.Errorf("failed to decode job submission response: %w", err)
	}

	jobID := path.Base(job.Name)
	if jobID == "" || jobID == "." || jobID == "/" {
		return "", fmt.Errorf("transcoding service returned no job name")
	}
	return jobID, nil
}
