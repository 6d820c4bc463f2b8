package runtime

import (
	"net/http"
	"strings"

	"github.com/drblury/clickflow/internal/runtime/jsoncodec"
)

// StartIntrospectServer registers the handler introspection endpoint when
// enabled. The actual listener is started by Start alongside the router.
func (s *Service) StartIntrospectServer() {
	if !s.Conf.IntrospectEnabled {
		return
	}

	port := s.Conf.IntrospectPort
	if port == 0 {
		port = 8081
	}

	s.RegisterHTTPHandler(port, "/api/handlers", http.HandlerFunc(s.handleGetHandlers))
}

func (s *Service) handleGetHandlers(w http.ResponseWriter, r *http.Request) {
	s.handlersMu.RLock()
	defer s.handlersMu.RUnlock()

	w.Header().Set("Content-Type", "application/json")

	if s.Conf != nil && len(s.Conf.IntrospectCORSOrigins) > 0 {
		origin := r.Header.Get("Origin")
		allowedOrigin := s.getAllowedCORSOrigin(origin)
		if allowedOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
	}

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := jsoncodec.Encode(w, s.handlers); err != nil {
		s.Logger.Error("Failed to encode handlers", err, nil)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// getAllowedCORSOrigin checks if the request origin is allowed and returns
// the Access-Control-Allow-Origin value to send back.
func (s *Service) getAllowedCORSOrigin(requestOrigin string) string {
	if s.Conf == nil {
		return ""
	}
	for _, allowed := range s.Conf.IntrospectCORSOrigins {
		if allowed == "*" {
			return "*"
		}
		if strings.EqualFold(allowed, requestOrigin) {
			return requestOrigin
		}
	}
	return ""
}
