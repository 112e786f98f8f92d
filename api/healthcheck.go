package api

import "net/http"

// healthCheckHandler reports that the server is up along with the
// translation setup it serves.
func (s *server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	status := s.service.Status()

	s.writeJson(w, http.StatusOK, apiResponse{ //nolint:errcheck
		Success: true,
		Message: "OK",
		Data: map[string]any{
			"dialect":       status.Dialect,
			"default_field": status.DefaultField,
			"known_fields":  status.KnownFields,
			"preprocessors": status.Preprocessors,
			"recording":     status.Recording,
			"preview":       status.Preview,
		},
	}, nil)
}
