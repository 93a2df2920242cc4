package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/hjoshifonteva/DebugAssistant/internal/command"
	"github.com/hjoshifonteva/DebugAssistant/internal/dispatch"
)

type commandRequest struct {
	SessionID string `json:"session_id"`
	Source    string `json:"source"`
	Text      string `json:"text"`
}

type commandResponse struct {
	CommandID string `json:"command_id"`
	Accepted  bool   `json:"accepted"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "empty_command", "command text is required")
		return
	}
	if req.Source == "" {
		req.Source = "api"
	}
	if req.SessionID != "" {
		_ = s.sessions.Touch(req.SessionID)
	}

	cmd := dispatch.NewCommand(req.SessionID, req.Source, req.Text)
	if !s.dispatcher.Submit(cmd) {
		respondError(w, http.StatusServiceUnavailable, "queue_full", "command queue is full, try again")
		return
	}
	respondJSON(w, http.StatusAccepted, commandResponse{CommandID: cmd.ID, Accepted: true})
}

type classifyRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "empty_command", "text is required")
		return
	}
	respondJSON(w, http.StatusOK, command.Classify(req.Text))
}

type analyzeRequest struct {
	Code    string `json:"code"`
	Error   string `json:"error"`
	Context string `json:"context"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		respondError(w, http.StatusBadRequest, "empty_code", "code is required")
		return
	}

	report, err := s.ai.AnalyzeCode(r.Context(), req.Code, req.Error, req.Context)
	if err != nil {
		s.metrics.ObserveAIRequest("error")
		respondError(w, http.StatusBadGateway, "analysis_failed", err.Error())
		return
	}
	s.metrics.ObserveAIRequest("ok")
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	records, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "history_unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

type sayRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSay(w http.ResponseWriter, r *http.Request) {
	var req sayRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "empty_text", "text is required")
		return
	}
	s.speech.Enqueue(req.Text)
	respondJSON(w, http.StatusAccepted, s.speech.Status())
}

type interruptRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleInterrupt(w http.ResponseWriter, r *http.Request) {
	var req interruptRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	s.speech.Interrupt()
	if s.metrics != nil {
		s.metrics.SpeechInterrupts.Inc()
	}
	if req.SessionID != "" {
		_ = s.sessions.Interrupt(req.SessionID)
	}
	respondJSON(w, http.StatusOK, s.speech.Status())
}

func (s *Server) handleResume(w http.ResponseWriter, _ *http.Request) {
	s.speech.Resume()
	respondJSON(w, http.StatusOK, s.speech.Status())
}

type adjustRequest struct {
	Delta float64 `json:"delta"`
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	s.speech.AdjustVolume(req.Delta)
	respondJSON(w, http.StatusOK, s.speech.Status())
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	s.speech.AdjustRate(int(req.Delta))
	respondJSON(w, http.StatusOK, s.speech.Status())
}

func (s *Server) handleSpeechStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.speech.Status())
}
