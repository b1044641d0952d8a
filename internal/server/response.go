package server

import (
	"encoding/json"
	"net/http"

	"github.com/alchemix/bar-server/internal/constants"
)

// sendJSONResponse sends a JSON response with the specified status code
func (s *Server) sendJSONResponse(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// sendErrorResponse sends a JSON error response
func (s *Server) sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
