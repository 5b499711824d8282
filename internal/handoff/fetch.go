// Package handoff brings models produced elsewhere into the viewer: it downloads
// a model URL and drives the remote image-to-3D service that produces one.
package handoff

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/decode"
	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/internal/viewer"
)

// DefaultModelName is the file name given to downloaded models. Generated models
// are binary glTF.
const DefaultModelName = "model.glb"

// MaxModelSize caps a download.
const MaxModelSize = 512 << 20

// ErrTooLarge is returned when a download exceeds MaxModelSize.
var ErrTooLarge = errors.New("model download too large")

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Fetch downloads url and wraps the body as a load request named "model.glb".
// When the payload is recognizably another supported format the extension
// follows the content instead.
func Fetch(ctx context.Context, client *http.Client, url string) (viewer.LoadRequest, error) {
	if client == nil {
		client = http.DefaultClient
	}
	log := logger.Named("handoff")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return viewer.LoadRequest{}, fmt.Errorf("building request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return viewer.LoadRequest{}, fmt.Errorf("fetching model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return viewer.LoadRequest{}, &StatusError{Method: http.MethodGet, URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxModelSize+1))
	if err != nil {
		return viewer.LoadRequest{}, fmt.Errorf("reading model: %w", err)
	}
	if len(data) > MaxModelSize {
		return viewer.LoadRequest{}, fmt.Errorf("%w: over %d bytes", ErrTooLarge, MaxModelSize)
	}

	name := DefaultModelName
	if ext, ok := decode.Sniff(data); ok {
		name = "model" + ext
	}
	log.Info("model fetched",
		zap.String("url", url),
		zap.String("name", name),
		zap.Int("bytes", len(data)),
	)
	return viewer.LoadRequest{Name: name, Size: int64(len(data)), Data: data}, nil
}
