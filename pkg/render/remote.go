package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Remote renders through an HTTP rendering service. The service accepts a
// JSON body with the diagram type and source and responds with SVG.
type Remote struct {
	// BaseURL is the service root, without a trailing slash.
	BaseURL string
	// Client defaults to a client with a 60 second timeout.
	Client *http.Client
}

// renderRequest is the wire format the rendering service accepts.
type renderRequest struct {
	DiagramType string `json:"diagram_type"`
	Source      string `json:"source"`
}

// Render implements [Renderer]. Server-side failures (5xx) and transport
// errors come back wrapped in [RetryableError]; client-side rejections
// (4xx, typically unsupported syntax) are permanent.
func (r *Remote) Render(ctx context.Context, diagramType, source string) ([]byte, error) {
	body, err := json.Marshal(renderRequest{DiagramType: diagramType, Source: source})
	if err != nil {
		return nil, fmt.Errorf("encode render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/svg+xml")

	resp, err := r.client().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RetryableError{Err: fmt.Errorf("render request: %w", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("read render response: %w", err)}
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, &RetryableError{Err: fmt.Errorf("renderer returned %s: %s", resp.Status, truncate(data, 200))}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("renderer rejected the diagram (%s): %s", resp.Status, truncate(data, 200))
	}
	return data, nil
}

func (r *Remote) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return &http.Client{Timeout: 60 * time.Second}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
