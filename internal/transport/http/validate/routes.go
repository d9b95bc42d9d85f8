package validate

import (
	"encoding/json"
	"mime"
	"net/http"

	"github.com/pkg/errors"

	"github.com/fleshka4/dex-bridge/internal/transport/http/dto"
)

// MaxBodyBytes caps the size of a /routes body.
const MaxBodyBytes = 1 << 20

// RoutesRequestValidate validates /routes request and returns dto.
func RoutesRequestValidate(w http.ResponseWriter, r *http.Request) (*dto.RoutesRequest, int, error) {
	if r.Method != http.MethodPost {
		return nil, http.StatusMethodNotAllowed, errors.New("method not allowed")
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return nil, http.StatusUnsupportedMediaType, errors.New("content type must be application/json")
		}
	}

	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()

	var req dto.RoutesRequest
	if err := decoder.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, errors.New("body too large")
		}
		return nil, http.StatusBadRequest, errors.Wrap(err, "bad json body")
	}
	if req.Args.TokenInAddress == "" || req.Args.TokenOutAddress == "" {
		return nil, http.StatusBadRequest, errors.New("missing token addresses")
	}
	return &req, 0, nil
}
