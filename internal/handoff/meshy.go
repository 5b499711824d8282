package handoff

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/internal/viewer"
)

// Image-to-3D service errors.
var (
	ErrMissingAPIKey = errors.New("image-to-3D API key not set")
	ErrTaskFailed    = errors.New("image-to-3D task failed")
	ErrNoModel       = errors.New("task finished without a GLB model")
)

// Service defaults.
const (
	DefaultAPIBase      = "https://api.meshy.ai/openapi/v1"
	DefaultPollInterval = 2 * time.Second
)

// TaskStatus is the lifecycle state reported by the service.
type TaskStatus string

const (
	StatusPending    TaskStatus = "PENDING"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusSucceeded  TaskStatus = "SUCCEEDED"
	StatusFailed     TaskStatus = "FAILED"
	StatusExpired    TaskStatus = "EXPIRED"
)

// Done reports whether the task will not change any more.
func (s TaskStatus) Done() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusExpired
}

// Task is the service's view of one image-to-3D job.
type Task struct {
	ID        string            `json:"id"`
	Status    TaskStatus        `json:"status"`
	Progress  int               `json:"progress"`
	ModelURLs map[string]string `json:"model_urls"`
	Message   string            `json:"message"`
	TaskError *struct {
		Message string `json:"message"`
	} `json:"task_error"`
}

// GLB returns the binary glTF download URL, if any.
func (t *Task) GLB() string {
	return t.ModelURLs["glb"]
}

func (t *Task) failure() string {
	if t.TaskError != nil && t.TaskError.Message != "" {
		return t.TaskError.Message
	}
	return t.Message
}

// Config holds client configuration.
type Config struct {
	APIBase      string
	APIKey       string
	PollInterval time.Duration
	HTTPClient   *http.Client
}

// Client talks to the Meshy image-to-3D API.
type Client struct {
	config Config
	http   *http.Client
	log    *zap.Logger
}

// NewClient creates a client. Empty fields take the service defaults.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{config: cfg, http: hc, log: logger.Named("meshy")}, nil
}

// HTTPClient returns the client used for API and download requests.
func (c *Client) HTTPClient() *http.Client { return c.http }

// CreateTask submits an image (public URL or data URI) and returns the task ID.
func (c *Client) CreateTask(ctx context.Context, imageURL string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"image_url":  imageURL,
		"enable_pbr": true,
	})
	if err != nil {
		return "", err
	}
	var out struct {
		Result string `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, "/image-to-3d", body, &out); err != nil {
		return "", fmt.Errorf("creating task: %w", err)
	}
	c.log.Info("task created", zap.String("task", out.Result))
	return out.Result, nil
}

// Task fetches the current state of a task.
func (c *Client) Task(ctx context.Context, id string) (*Task, error) {
	var t Task
	if err := c.do(ctx, http.MethodGet, "/image-to-3d/"+id, nil, &t); err != nil {
		return nil, fmt.Errorf("checking task %s: %w", id, err)
	}
	if t.ID == "" {
		t.ID = id
	}
	return &t, nil
}

// Wait polls a task until it succeeds, fails or expires, or ctx ends. progress,
// if non-nil, sees every intermediate state. On success the returned task has a
// GLB URL.
func (c *Client) Wait(ctx context.Context, id string, progress func(*Task)) (*Task, error) {
	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	for {
		t, err := c.Task(ctx, id)
		if err != nil {
			return nil, err
		}
		if progress != nil {
			progress(t)
		}
		c.log.Debug("task polled",
			zap.String("task", id),
			zap.String("status", string(t.Status)),
			zap.Int("progress", t.Progress),
		)

		switch t.Status {
		case StatusSucceeded:
			if t.GLB() == "" {
				return t, ErrNoModel
			}
			return t, nil
		case StatusFailed, StatusExpired:
			return t, fmt.Errorf("%w: %s %s", ErrTaskFailed, t.Status, t.failure())
		}

		select {
		case <-ctx.Done():
			return t, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Generate runs a whole image-to-3D job and downloads the result.
func (c *Client) Generate(ctx context.Context, imageURL string, progress func(*Task)) (viewer.LoadRequest, error) {
	id, err := c.CreateTask(ctx, imageURL)
	if err != nil {
		return viewer.LoadRequest{}, err
	}
	t, err := c.Wait(ctx, id, progress)
	if err != nil {
		return viewer.LoadRequest{}, err
	}
	return Fetch(ctx, c.http, t.GLB())
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	url := c.config.APIBase + path
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &apiErr)
		return &StatusError{Method: method, URL: url, StatusCode: resp.StatusCode, Message: apiErr.Message}
	}
	return json.Unmarshal(data, out)
}
