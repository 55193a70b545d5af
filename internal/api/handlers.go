package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"
)

const (
	addSucceededMessage = "Torrent added successfully"
	addFailedMessage    = "Failed to add torrent"

	statusTimeout = 10 * time.Second
)

func (s *Server) handleAddTorrent(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAddTorrentRequest(w, r)
	if err != nil {
		var reqErr *requestError
		if !errors.As(err, &reqErr) {
			reqErr = rejectRequest(http.StatusBadRequest, "%v", err)
		}
		hlog.FromRequest(r).Debug().Err(err).Int("status", reqErr.status).Msg("rejected add torrent request")
		RespondText(w, reqErr.status, reqErr.msg)
		return
	}

	savePath := s.cfg.SavePath(req.Directory)
	logger := hlog.FromRequest(r).With().
		Str("url", req.URL).
		Str("directory", string(req.Directory)).
		Str("savePath", savePath).
		Logger()

	logger.Info().Msg("adding torrent")

	// the add runs to completion even if the caller goes away
	ctx := context.WithoutCancel(r.Context())

	start := time.Now()
	err = s.client.AddTorrent(ctx, req.URL, savePath)
	s.metrics.ObserveAdd(req.Directory, time.Since(start), err)

	if err != nil {
		logger.Error().Err(err).Msg("failed to add torrent")
		RespondText(w, http.StatusInternalServerError, addFailedMessage)
		return
	}

	logger.Info().Dur("took", time.Since(start)).Msg("torrent added")
	RespondText(w, http.StatusOK, addSucceededMessage)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), statusTimeout)
	defer cancel()

	status, err := s.client.Status(ctx)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("qbittorrent status check failed")
		RespondError(w, http.StatusServiceUnavailable, "qBittorrent is unreachable")
		return
	}

	RespondJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
