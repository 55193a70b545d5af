package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/s0up4200/qbitdrop/internal/config"
)

const maxRequestBodySize = 2 << 20

// AddTorrentRequest is the body of POST /api/qbittorrent/add
type AddTorrentRequest struct {
	URL       string           `json:"url"`
	Directory config.Directory `json:"directory"`
}

// requestError carries the status a rejected request body should be answered with
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func rejectRequest(status int, format string, args ...any) *requestError {
	return &requestError{status: status, msg: fmt.Sprintf(format, args...)}
}

// decodeAddTorrentRequest parses the JSON body. Every failure is a *requestError.
func decodeAddTorrentRequest(w http.ResponseWriter, r *http.Request) (*AddTorrentRequest, error) {
	if !isJSONContentType(r.Header.Get("Content-Type")) {
		return nil, rejectRequest(http.StatusUnsupportedMediaType, "Expected request with `Content-Type: application/json`")
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, rejectRequest(http.StatusRequestEntityTooLarge, "Failed to buffer the request body: length limit exceeded")
		}
		return nil, rejectRequest(http.StatusBadRequest, "Failed to buffer the request body: %v", err)
	}

	var raw struct {
		URL       *string           `json:"url"`
		Directory *config.Directory `json:"directory"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, rejectRequest(http.StatusBadRequest, "Failed to parse the request body as JSON: %v", err)
		}
		return nil, rejectRequest(http.StatusUnprocessableEntity, "Failed to deserialize the JSON body into the target type: %v", err)
	}

	switch {
	case raw.URL == nil:
		return nil, rejectRequest(http.StatusUnprocessableEntity, "Failed to deserialize the JSON body into the target type: missing field `url`")
	case raw.Directory == nil:
		return nil, rejectRequest(http.StatusUnprocessableEntity, "Failed to deserialize the JSON body into the target type: missing field `directory`")
	}

	return &AddTorrentRequest{URL: *raw.URL, Directory: *raw.Directory}, nil
}

func isJSONContentType(value string) bool {
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return false
	}
	return mediaType == "application/json" ||
		(strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json"))
}
