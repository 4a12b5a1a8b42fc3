package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nmelo/flickrbot/internal/activity"
	"github.com/nmelo/flickrbot/internal/config"
	"github.com/nmelo/flickrbot/internal/observability"
)

// apologyMessage is the generic failure reply sent by the turn error
// boundary before the conversation's dialog state is discarded.
const apologyMessage = "Oops. Something went wrong!"

// TurnHandler is the conversation core the adapter drives.
type TurnHandler interface {
	OnTurn(ctx context.Context, in activity.Activity) ([]activity.Activity, error)
	ClearConversation(ctx context.Context, conversationID string) error
}

type Server struct {
	cfg       config.Config
	bot       TurnHandler
	metrics   *observability.Metrics
	storeMode string
	upgrader  websocket.Upgrader
}

func New(cfg config.Config, bot TurnHandler, metrics *observability.Metrics, storeMode string) *Server {
	return &Server{
		cfg:       cfg,
		bot:       bot,
		metrics:   metrics,
		storeMode: storeMode,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket chats from the same origin
				// unless explicitly opened up.
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

	r.Post("/api/messages", s.handleMessages)
	r.Get("/api/messages/ws", s.handleChatWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"store_mode": s.storeMode,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ready",
		"store_mode": s.storeMode,
	})
}

// handleMessages is the inbound webhook: one activity in, its replies out.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	in, err := activity.ParseInbound(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_activity", err.Error())
		return
	}

	replies := s.runTurn(r.Context(), in)
	respondJSON(w, http.StatusOK, replies)
}

// runTurn executes one turn and owns the error boundary: on failure the
// user gets a single apology and the conversation's dialog state is
// discarded.
func (s *Server) runTurn(ctx context.Context, in activity.Activity) []activity.Activity {
	replies, err := s.bot.OnTurn(ctx, in)
	if err != nil {
		log.Printf("turn failed for conversation %s: %v", in.Conversation.ID, err)
		s.metrics.TurnErrors.Inc()
		if clearErr := s.bot.ClearConversation(ctx, in.Conversation.ID); clearErr != nil {
			log.Printf("clearing conversation %s failed: %v", in.Conversation.ID, clearErr)
		}
		return []activity.Activity{activity.NewReply(in, apologyMessage)}
	}
	if replies == nil {
		replies = []activity.Activity{}
	}
	return replies
}

// handleChatWS is an emulator-style interactive chat: every text frame is a
// message activity (or bare message text), every reply comes back as a
// frame. Connecting synthesizes a conversationUpdate so the intro fires.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conversationID := strings.TrimSpace(r.URL.Query().Get("conversation_id"))
	if conversationID == "" {
		conversationID = uuid.NewString()
	}
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		userID = "user"
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	user := activity.Account{ID: userID, Name: userID}
	bot := activity.Account{ID: "flickrbot", Name: "flickrbot"}
	conversation := activity.Conversation{ID: conversationID}

	joined := activity.Activity{
		Type:         activity.TypeConversationUpdate,
		From:         user,
		Recipient:    bot,
		Conversation: conversation,
		MembersAdded: []activity.Account{user},
	}
	if !s.writeReplies(conn, s.runTurn(r.Context(), joined)) {
		return
	}

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Minute))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(10 * time.Minute))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		_ = conn.SetReadDeadline(time.Now().Add(10 * time.Minute))

		in, err := activity.ParseInbound(data)
		if err != nil {
			// Bare text frames are a convenience for interactive clients.
			in = activity.Activity{
				Type: activity.TypeMessage,
				Text: string(data),
			}
		}
		in.From = user
		in.Recipient = bot
		in.Conversation = conversation

		if !s.writeReplies(conn, s.runTurn(r.Context(), in)) {
			return
		}
	}
}

func (s *Server) writeReplies(conn *websocket.Conn, replies []activity.Activity) bool {
	for _, reply := range replies {
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(reply); err != nil {
			return false
		}
	}
	return true
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
