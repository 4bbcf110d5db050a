// Package connectivity answers whether the model endpoint is reachable.
package connectivity

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Checker reports whether the network is currently usable
type Checker interface {
	Online(ctx context.Context) bool
}

// Static is a Checker with a fixed answer
type Static bool

func (s Static) Online(context.Context) bool {
	return bool(s)
}

// Probe checks connectivity with a HEAD request. Any HTTP response, whatever
// its status, counts as online; only transport failures count as offline.
type Probe struct {
	URL        string
	HTTPClient *http.Client
}

// NewProbe returns a Probe against url with the given timeout
func NewProbe(url string, timeout time.Duration) *Probe {
	return &Probe{
		URL: url,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *Probe) Online(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		slog.Warn("Invalid connectivity probe URL", "url", p.URL, "err", err)
		return false
	}
	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		slog.Debug("Connectivity probe failed", "url", p.URL, "err", err)
		return false
	}
	resp.Body.Close()
	return true
}
