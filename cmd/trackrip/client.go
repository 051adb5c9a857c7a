package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"trackrip/internal/api"
)

// errDaemonDown marks transport-level failures, as opposed to errors the
// daemon itself returned. Read-only commands fall back to the job state
// directory when they see it.
var errDaemonDown = errors.New("daemon unreachable")

// daemonClient talks to the trackripd HTTP API.
type daemonClient struct {
	base string
	http *http.Client
}

type submitPayload struct {
	SourceRef     string            `json:"sourceRef"`
	TargetFormat  string            `json:"targetFormat,omitempty"`
	DisplayTitle  string            `json:"displayTitle,omitempty"`
	DisplayArtist string            `json:"displayArtist,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type jobResponse struct {
	Job api.JobView `json:"job"`
}

type jobListResponse struct {
	Jobs []api.JobView `json:"jobs"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func newDaemonClient(bind string) *daemonClient {
	return &daemonClient{
		base: "http://" + bind,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *daemonClient) Submit(ctx context.Context, payload submitPayload) (api.JobView, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return api.JobView{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/jobs", bytes.NewReader(body))
	if err != nil {
		return api.JobView{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var decoded jobResponse
	if err := c.do(req, http.StatusAccepted, &decoded); err != nil {
		return api.JobView{}, err
	}
	return decoded.Job, nil
}

func (c *daemonClient) Describe(ctx context.Context, id string) (api.JobView, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/jobs/"+id, nil)
	if err != nil {
		return api.JobView{}, err
	}
	var decoded jobResponse
	if err := c.do(req, http.StatusOK, &decoded); err != nil {
		return api.JobView{}, err
	}
	return decoded.Job, nil
}

func (c *daemonClient) List(ctx context.Context) ([]api.JobView, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/jobs", nil)
	if err != nil {
		return nil, err
	}
	var decoded jobListResponse
	if err := c.do(req, http.StatusOK, &decoded); err != nil {
		return nil, err
	}
	return decoded.Jobs, nil
}

func (c *daemonClient) do(req *http.Request, want int, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w at %s: %v", errDaemonDown, c.base, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != want {
		var failure errorResponse
		if json.Unmarshal(data, &failure) == nil && failure.Error != "" {
			return fmt.Errorf("daemon: %s", failure.Error)
		}
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
