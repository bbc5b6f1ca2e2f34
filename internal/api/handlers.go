// Package api provides HTTP handlers for the Soft Reset generation endpoints.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/softreset-app/softreset/internal/genai"
	"github.com/softreset-app/softreset/internal/models"
)

func (s *Server) breatheHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.breatheHandler: processing request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.breatheHandler: method not allowed", "method", r.Method)
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.ErrorResponse{Error: "Method not allowed"})
		return
	}

	var req models.BreatheRequest
	if err := decodeRequestBody(r, &req); err != nil {
		slog.Warn("Server.breatheHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid JSON format"})
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.breatheHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	resp, err := s.assembler.GenerateBreathe(r.Context(), req)
	if err != nil {
		s.writeGenerationError(w, "breatheHandler", err)
		return
	}

	slog.Info("Server.breatheHandler: responding", "modelUsed", resp.ModelUsed, "note", resp.Note)
	writeJSONResponse(w, http.StatusOK, resp)
}

func (s *Server) reflectHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.reflectHandler: processing request", "method", r.Method, "path", r.URL.Path)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.reflectHandler: method not allowed", "method", r.Method)
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.ErrorResponse{Error: "Method not allowed"})
		return
	}

	var req models.ReflectRequest
	if err := decodeRequestBody(r, &req); err != nil {
		slog.Warn("Server.reflectHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid JSON format"})
		return
	}
	if err := req.Validate(); err != nil {
		slog.Warn("Server.reflectHandler: validation failed", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.ErrorResponse{Error: "Missing dump text"})
		return
	}

	resp, err := s.assembler.GenerateReflect(r.Context(), req)
	if err != nil {
		s.writeGenerationError(w, "reflectHandler", err)
		return
	}

	slog.Info("Server.reflectHandler: responding", "modelUsed", resp.ModelUsed, "chars", len(resp.Text))
	writeJSONResponse(w, http.StatusOK, resp)
}

// writeGenerationError maps pipeline errors onto the HTTP surface. Content
// quality problems never reach here; only input rejection and propagated
// upstream failures do.
func (s *Server) writeGenerationError(w http.ResponseWriter, handler string, err error) {
	var upstream *genai.UpstreamError
	switch {
	case errors.Is(err, models.ErrMissingDump):
		slog.Warn("Server."+handler+": missing required text", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.ErrorResponse{Error: "Missing dump text"})
	case errors.As(err, &upstream):
		slog.Error("Server."+handler+": upstream request failed", "status", upstream.StatusCode, "model", upstream.Model)
		writeJSONResponse(w, upstream.StatusCode, models.ErrorResponse{Error: "API request failed", Details: upstream.Body})
	case errors.Is(err, genai.ErrAllModelsFailed):
		slog.Error("Server." + handler + ": all candidate models failed")
		writeJSONResponse(w, http.StatusInternalServerError, models.ErrorResponse{Error: "All models failed"})
	default:
		slog.Error("Server."+handler+": generation failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Unexpected server error"})
	}
}

func (s *Server) reflectionsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.reflectionsHandler: processing request", "method", r.Method)
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.ErrorResponse{Error: "Method not allowed"})
		return
	}
	if s.store == nil {
		writeJSONResponse(w, http.StatusOK, models.Success([]models.ReflectionRecord{}))
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	records, err := s.store.ListReflections(r.Context(), limit)
	if err != nil {
		slog.Error("Server.reflectionsHandler: failed to list reflections", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list reflections"})
		return
	}
	if records == nil {
		records = []models.ReflectionRecord{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(records))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.ErrorResponse{Error: "Method not allowed"})
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"service": "softreset"}))
}
