package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"diagnostic-lead-service/internal/app"
	"diagnostic-lead-service/internal/domain"
)

// WSHandler drives one diagnostic session per websocket connection.
type WSHandler struct {
	service  *app.DiagnosticService
	logger   logrus.FieldLogger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.DiagnosticService, logger logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ServeWS upgrades the request and runs the session loop. A sessionId query
// parameter resumes an existing session instead of beginning a new one.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	sessionID := r.URL.Query().Get("sessionId")
	if quizID == "" && sessionID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx := r.Context()
	var current app.SessionView
	if sessionID != "" {
		current, err = h.service.Session(ctx, sessionID)
	} else {
		current, err = h.service.Begin(ctx, quizID)
	}
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	log := h.logger.WithField("session", current.ID)

	send := make(chan outboundMessage, 8)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("ws write failed")
				return
			}
		}
	}()

	send <- outboundMessage{Type: "session", Payload: current}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		for _, msg := range h.handle(ctx, current.ID, inbound) {
			send <- msg
		}
	}

	close(send)
	<-writerDone
}

func (h *WSHandler) handle(ctx context.Context, id string, in inboundMessage) []outboundMessage {
	var (
		v   app.SessionView
		err error
	)
	switch in.Type {
	case "start":
		v, err = h.service.Start(ctx, id)
	case "intake":
		var info domain.UserInfo
		if json.Unmarshal(in.Payload, &info) != nil {
			return []outboundMessage{errorText("invalid intake payload")}
		}
		v, err = h.service.SubmitIntake(ctx, id, info)
	case "answer":
		var req answerRequest
		if json.Unmarshal(in.Payload, &req) != nil || req.Value == nil {
			return []outboundMessage{errorText("invalid answer payload")}
		}
		feedback, err := h.service.Answer(ctx, id, *req.Value)
		if err != nil {
			return []outboundMessage{errorMessage(err)}
		}
		return []outboundMessage{{Type: "feedback", Payload: feedback}}
	case "next":
		v, err = h.service.Next(ctx, id)
	case "back":
		v, err = h.service.Back(ctx, id)
	default:
		return []outboundMessage{errorText("unsupported message type")}
	}
	if err != nil {
		return []outboundMessage{errorMessage(err)}
	}
	out := []outboundMessage{{Type: "session", Payload: v}}
	if v.State == app.StateCompleted && v.Result != nil && in.Type == "next" {
		out = append(out, outboundMessage{Type: "result", Payload: v.Result})
	}
	return out
}

func errorMessage(err error) outboundMessage {
	resp := errorResponse{Error: err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	return outboundMessage{Type: "error", Payload: resp}
}

func errorText(message string) outboundMessage {
	return outboundMessage{Type: "error", Payload: errorResponse{Error: message}}
}
