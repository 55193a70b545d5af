package client

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	qbittorrent "github.com/autobrr/go-qbittorrent"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/s0up4200/qbitdrop/pkg/httphelpers"
)

const addEndpoint = "/api/v2/torrents/add"

// torrents/add lives under /api/v2, which qBittorrent introduced with Web API 2.0
var minWebAPIVersion = semver.MustParse("2.0.0")

// QBitClient implements TorrentClient for qBittorrent
type QBitClient struct {
	baseURL string
	http    *http.Client
	api     *qbittorrent.Client
	log     zerolog.Logger
}

// Status describes the daemon behind a QBitClient
type Status struct {
	Version       string `json:"version"`
	WebAPIVersion string `json:"webApiVersion"`
}

// NewQBitClient creates a client for the qBittorrent Web UI at baseURL.
// A zero timeout leaves requests without a deadline.
func NewQBitClient(baseURL string, timeout time.Duration) *QBitClient {
	baseURL = strings.TrimRight(baseURL, "/")
	logger := log.With().Str("module", "qbittorrent").Logger()

	qb := qbittorrent.NewClient(qbittorrent.Config{
		Host:    baseURL,
		Timeout: timeoutSeconds(timeout),
		Log:     stdlog.New(logger.With().Str("source", "go-qbittorrent").Logger(), "", 0),
	})

	logger.Debug().Str("url", baseURL).Dur("timeout", timeout).Msg("created qbittorrent client")
	return &QBitClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		api:     qb,
		log:     logger,
	}
}

// timeoutSeconds rounds up to whole seconds, the only unit go-qbittorrent takes.
// Zero stays zero; go-qbittorrent then applies its own default.
func timeoutSeconds(timeout time.Duration) int {
	if timeout <= 0 {
		return 0
	}
	return int((timeout + time.Second - 1) / time.Second)
}

// AddTorrent posts a single torrents/add request. It is never retried.
func (c *QBitClient) AddTorrent(ctx context.Context, torrentURL, savePath string) error {
	form := url.Values{}
	form.Set("urls", torrentURL)
	form.Set("savepath", savePath)

	endpoint := c.baseURL + addEndpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create add request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach qbittorrent at %s: %w", c.baseURL, err)
	}
	defer httphelpers.DrainAndClose(resp)

	c.log.Debug().
		Str("savePath", savePath).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("torrents/add responded")

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	return nil
}

// Status queries the application and Web API versions through go-qbittorrent
func (c *QBitClient) Status(ctx context.Context) (*Status, error) {
	version, err := c.api.GetAppVersionCtx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get app version: %w", err)
	}

	webAPIVersion, err := c.api.GetWebAPIVersionCtx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get web api version: %w", err)
	}

	return &Status{
		Version:       strings.TrimSpace(version),
		WebAPIVersion: strings.TrimSpace(webAPIVersion),
	}, nil
}

// SupportsTorrentsAdd reports whether the daemon serves /api/v2/torrents/add.
// Unparsable versions are given the benefit of the doubt.
func (s *Status) SupportsTorrentsAdd() bool {
	v, err := semver.NewVersion(s.WebAPIVersion)
	if err != nil {
		return true
	}
	return !v.LessThan(minWebAPIVersion)
}
