// Package acl is the anti-corruption layer between the editor and the
// external analysis backend (schema analysis, cleaning, join execution,
// export). It translates wire payloads into the shapes the application layer
// consumes and shields the editor from backend instability with a circuit
// breaker.
package acl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"relate-backend/application/ports"
	pkgerrors "relate-backend/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ClientConfig holds the HTTP and breaker tuning for the analysis client.
type ClientConfig struct {
	BaseURL          string
	Timeout          time.Duration
	BreakerInterval  time.Duration
	BreakerTimeout   time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultClientConfig returns conservative defaults
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:          baseURL,
		Timeout:          30 * time.Second,
		BreakerInterval:  30 * time.Second,
		BreakerTimeout:   60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// AnalysisClient implements ports.AnalysisGateway over HTTP.
type AnalysisClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewAnalysisClient creates the gateway client
func NewAnalysisClient(cfg ClientConfig, logger *zap.Logger) *AnalysisClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "analysis-backend",
		Interval: cfg.BreakerInterval,
		Timeout:  cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &AnalysisClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		logger:  logger,
	}
}

// FetchSchema retrieves datasets, columns, key hints, and suggestions
func (c *AnalysisClient) FetchSchema(ctx context.Context, dashboardID string) (*ports.SchemaResponse, error) {
	var out ports.SchemaResponse
	path := fmt.Sprintf("/api/dashboards/%s/schema", url.PathEscape(dashboardID))
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TriggerCleaning runs server-side cleaning and returns logs plus refreshed schema
func (c *AnalysisClient) TriggerCleaning(ctx context.Context, dashboardID string, options map[string]ports.CleanOptions) (*ports.CleanResult, error) {
	var out ports.CleanResult
	path := fmt.Sprintf("/api/dashboards/%s/clean", url.PathEscape(dashboardID))
	body := map[string]any{"options": options}
	if err := c.postJSON(ctx, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitMerge posts the merge request built from the relationship store
func (c *AnalysisClient) SubmitMerge(ctx context.Context, req *ports.MergeRequest) (*ports.MergeResult, error) {
	var out ports.MergeResult
	path := fmt.Sprintf("/api/dashboards/%s/merge", url.PathEscape(req.DashboardID))
	if err := c.postJSON(ctx, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Export downloads a finished merge result
func (c *AnalysisClient) Export(ctx context.Context, resultID string) (*ports.ExportDownload, error) {
	path := fmt.Sprintf("/api/merges/%s/export", url.PathEscape(resultID))

	result, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return &ports.ExportDownload{
			ContentType: resp.Header.Get("Content-Type"),
			Filename:    filenameFromDisposition(resp.Header.Get("Content-Disposition")),
			Body:        body,
		}, nil
	})
	if err != nil {
		return nil, pkgerrors.NewCollaborator("export download failed", err)
	}
	return result.(*ports.ExportDownload), nil
}

// ── HTTP plumbing ───────────────────────────────────────────────────────────

func (c *AnalysisClient) getJSON(ctx context.Context, path string, out any) error {
	return c.roundTrip(ctx, http.MethodGet, path, nil, out)
}

func (c *AnalysisClient) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return pkgerrors.NewInternal("failed to encode request", err)
	}
	return c.roundTrip(ctx, http.MethodPost, path, payload, out)
}

func (c *AnalysisClient) roundTrip(ctx context.Context, method, path string, payload []byte, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(msg))
		}
		if out == nil {
			return nil, nil
		}
		return nil, json.NewDecoder(resp.Body).Decode(out)
	})
	if err != nil {
		c.logger.Warn("analysis backend call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return pkgerrors.NewCollaborator("analysis backend call failed", err)
	}
	return nil
}

func filenameFromDisposition(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params["filename"]
}
