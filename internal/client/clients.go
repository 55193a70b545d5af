// Package client provides the connection to the torrent daemon the facade forwards to
package client

import (
	"context"
	"errors"
)

// ErrUnexpectedStatus is wrapped with the daemon's status line when it rejects a request
var ErrUnexpectedStatus = errors.New("unexpected status from qbittorrent")

// TorrentClient defines what the HTTP facade needs from a torrent daemon
type TorrentClient interface {
	// AddTorrent asks the daemon to download url into savePath
	AddTorrent(ctx context.Context, url, savePath string) error

	// Status returns the daemon's application and Web API versions
	Status(ctx context.Context) (*Status, error)
}
