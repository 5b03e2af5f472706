package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"StockMind/internal/domain"
)

// triggerRun handles GET|POST /api/cron/daily-report. When a cron secret is
// configured the caller must present it as a Bearer token.
func (s *Server) triggerRun(w http.ResponseWriter, r *http.Request) {
	if !s.authorizedCron(r) {
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized", "invalid cron secret"))
		return
	}
	if s.runner == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("unavailable", "daily run is not configured"))
		return
	}

	// The run outlives a dropped client connection but not its own budget.
	ctx := context.WithoutCancel(r.Context())
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	summary, err := s.runner.Run(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrBulkLoad) {
			s.logger.Error("triggered run failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorBody("bulk_load_failed", err.Error()))
			return
		}
		writeError(w, s.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) authorizedCron(r *http.Request) bool {
	if s.cronSecret == "" {
		return true
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cronSecret)) == 1
}
