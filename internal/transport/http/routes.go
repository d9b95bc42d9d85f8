package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/fleshka4/dex-bridge/internal/apperrors"
	servicedto "github.com/fleshka4/dex-bridge/internal/service/dto"
	"github.com/fleshka4/dex-bridge/internal/transport/http/dto"
	"github.com/fleshka4/dex-bridge/internal/transport/http/validate"
)

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	req, code, err := validate.RoutesRequestValidate(w, r)
	if err != nil {
		if code == 0 {
			code = http.StatusBadRequest
		}
		http.Error(w, err.Error(), code)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	out, err := s.svc.ComputeRoutes(ctx, servicedto.RoutesRequest{
		Args:   req.Args,
		Routes: req.Routes,
	})
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidArgument),
			errors.Is(err, apperrors.ErrUnknownPoolType),
			errors.Is(err, apperrors.ErrMalformedRoute),
			errors.Is(err, apperrors.ErrCurrencyMismatch):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, context.DeadlineExceeded):
			http.Error(w, "request timed out", http.StatusGatewayTimeout)
		default:
			s.logger.Error("compute routes", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	resp := dto.RoutesResponse{Routes: make([]dto.Route, 0, len(out.Routes)), Trade: dto.FromTrade(out.Trade)}
	for _, route := range out.Routes {
		resp.Routes = append(resp.Routes, dto.FromRoute(route))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response write error", zap.Error(err))
	}
}
