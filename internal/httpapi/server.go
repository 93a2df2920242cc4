package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/hjoshifonteva/DebugAssistant/internal/ai"
	"github.com/hjoshifonteva/DebugAssistant/internal/config"
	"github.com/hjoshifonteva/DebugAssistant/internal/dispatch"
	"github.com/hjoshifonteva/DebugAssistant/internal/history"
	"github.com/hjoshifonteva/DebugAssistant/internal/observability"
	"github.com/hjoshifonteva/DebugAssistant/internal/protocol"
	"github.com/hjoshifonteva/DebugAssistant/internal/session"
)

// Dispatcher is the slice of the command pipeline the API needs.
type Dispatcher interface {
	Submit(cmd dispatch.Command) bool
	Hub() *dispatch.Hub
}

type Server struct {
	cfg        config.Config
	sessions   *session.Manager
	dispatcher Dispatcher
	speech     dispatch.Speech
	ai         ai.Client
	store      history.Store
	metrics    *observability.Metrics
	upgrader   websocket.Upgrader
}

func New(cfg config.Config, sessions *session.Manager, dispatcher Dispatcher, sp dispatch.Speech, client ai.Client, store history.Store, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:        cfg,
		sessions:   sessions,
		dispatcher: dispatcher,
		speech:     sp,
		ai:         client,
		store:      store,
		metrics:    metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Default: only allow browser websocket connections from the
				// same origin, so other websites cannot drive the desktop if
				// the assistant is ever exposed beyond localhost.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/session", s.handleCreateSession)
	r.Post("/v1/session/{id}/end", s.handleEndSession)
	r.Get("/v1/session/{id}", s.handleGetSession)

	r.Post("/v1/command", s.handleCommand)
	r.Post("/v1/classify", s.handleClassify)
	r.Post("/v1/analyze", s.handleAnalyze)
	r.Get("/v1/history", s.handleHistory)

	r.Post("/v1/speech/say", s.handleSay)
	r.Post("/v1/speech/interrupt", s.handleInterrupt)
	r.Post("/v1/speech/resume", s.handleResume)
	r.Post("/v1/speech/volume", s.handleVolume)
	r.Post("/v1/speech/rate", s.handleRate)
	r.Get("/v1/speech/status", s.handleSpeechStatus)

	r.Get("/v1/events", s.handleEvents)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ready",
		"active_sessions": s.sessions.ActiveCount(),
		"speech":          s.speech.Status(),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req session.CreateRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Source) == "" {
		req.Source = "api"
	}

	sess := s.sessions.Create(req.Source)
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	}
	s.metrics.ObserveSessionEvent("created")

	respondJSON(w, http.StatusCreated, session.CreateResponse{
		SessionID:       sess.ID,
		Source:          sess.Source,
		Status:          sess.Status,
		StartedAt:       sess.StartedAt,
		LastActivityAt:  sess.LastActivityAt,
		InactivityTTLMS: s.cfg.SessionInactivityTimeout.Milliseconds(),
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if strings.TrimSpace(id) == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}

	sess, err := s.sessions.End(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.ActiveSessions.Set(float64(s.sessions.ActiveCount()))
	}
	s.metrics.ObserveSessionEvent("ended")
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

// handleEvents upgrades to a websocket that mirrors dispatcher and speech
// events, and accepts commands and speech controls from the client.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.ObserveSessionEvent("ws_connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, unsub := s.dispatcher.Hub().Subscribe()
	defer unsub()

	// Error feedback for this connection only; hub events are shared.
	outbound := make(chan any, 64)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		write := func(msg any) bool {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				cancel()
				return false
			}
			if t, ok := messageTypeOf(msg); ok {
				s.metrics.ObserveWSMessage("outbound", string(t))
			}
			return true
		}
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-events:
				if !ok || !write(msg) {
					return
				}
			case msg := <-outbound:
				if !write(msg) {
					return
				}
			}
		}
	}()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			errEvent := protocol.ErrorEvent{
				Type:   protocol.TypeErrorEvent,
				Code:   "invalid_client_message",
				Detail: err.Error(),
			}
			select {
			case outbound <- errEvent:
			default:
				// Keep websocket writes single-threaded; drop when saturated.
			}
			continue
		}
		if t, ok := messageTypeOf(parsed); ok {
			s.metrics.ObserveWSMessage("inbound", string(t))
		}

		switch msg := parsed.(type) {
		case protocol.ClientCommand:
			sid := msg.SessionID
			if sid == "" {
				sid = sessionID
			}
			s.dispatcher.Submit(dispatch.Command{
				SessionID: sid,
				Source:    "ws",
				Text:      msg.Text,
			})
		case protocol.ClientControl:
			sid := msg.SessionID
			if sid == "" {
				sid = sessionID
			}
			s.applyControl(msg.Action, sid)
		}
	}

	cancel()
	<-writerDone
	s.metrics.ObserveSessionEvent("ws_disconnected")
}

func (s *Server) applyControl(action, sessionID string) {
	switch action {
	case "interrupt":
		s.speech.Interrupt()
		if s.metrics != nil {
			s.metrics.SpeechInterrupts.Inc()
		}
		if sessionID != "" {
			_ = s.sessions.Interrupt(sessionID)
		}
	case "resume":
		s.speech.Resume()
	case "volume_up":
		s.speech.AdjustVolume(0.1)
	case "volume_down":
		s.speech.AdjustVolume(-0.1)
	case "rate_up":
		s.speech.AdjustRate(25)
	case "rate_down":
		s.speech.AdjustRate(-25)
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.ClientCommand:
		return m.Type, true
	case protocol.ClientControl:
		return m.Type, true
	case protocol.CommandAccepted:
		return m.Type, true
	case protocol.IntentResolved:
		return m.Type, true
	case protocol.CommandResult:
		return m.Type, true
	case protocol.SpeechState:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
