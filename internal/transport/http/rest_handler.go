package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"diagnostic-lead-service/internal/app"
	"diagnostic-lead-service/internal/domain"
)

// RESTHandler exposes the diagnostic use cases as JSON endpoints.
type RESTHandler struct {
	service *app.DiagnosticService
	logger  logrus.FieldLogger
}

func NewRESTHandler(service *app.DiagnosticService, logger logrus.FieldLogger) *RESTHandler {
	return &RESTHandler{service: service, logger: logger}
}

type answerRequest struct {
	Value *decimal.Decimal `json:"value"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ListQuizzes handles GET /v1/quizzes
func (h *RESTHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.Quizzes(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quizzes": quizzes})
}

// GetQuiz handles GET /v1/quizzes/{quizId}
func (h *RESTHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	def, err := h.service.Quiz(r.Context(), mux.Vars(r)["quizId"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// BeginSession handles POST /v1/quizzes/{quizId}/sessions
func (h *RESTHandler) BeginSession(w http.ResponseWriter, r *http.Request) {
	v, err := h.service.Begin(r.Context(), mux.Vars(r)["quizId"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// GetSession handles GET /v1/sessions/{id}
func (h *RESTHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.service.Session(r.Context(), mux.Vars(r)["id"]))
}

// Start handles POST /v1/sessions/{id}/start
func (h *RESTHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.service.Start(r.Context(), mux.Vars(r)["id"]))
}

// SubmitIntake handles POST /v1/sessions/{id}/intake
func (h *RESTHandler) SubmitIntake(w http.ResponseWriter, r *http.Request) {
	var info domain.UserInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h.respond(w, r)(h.service.SubmitIntake(r.Context(), mux.Vars(r)["id"], info))
}

// Answer handles POST /v1/sessions/{id}/answer
func (h *RESTHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Value == nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	feedback, err := h.service.Answer(r.Context(), mux.Vars(r)["id"], *req.Value)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feedback)
}

// Next handles POST /v1/sessions/{id}/next
func (h *RESTHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.service.Next(r.Context(), mux.Vars(r)["id"]))
}

// Back handles POST /v1/sessions/{id}/back
func (h *RESTHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)(h.service.Back(r.Context(), mux.Vars(r)["id"]))
}

// Result handles GET /v1/sessions/{id}/result
func (h *RESTHandler) Result(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Result(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *RESTHandler) respond(w http.ResponseWriter, r *http.Request) func(app.SessionView, error) {
	return func(v app.SessionView, err error) {
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func (h *RESTHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	}
	resp := errorResponse{Error: err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	writeJSON(w, status, resp)
}

func statusFor(err error) int {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case app.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrSessionNotCompleted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrOptionNotFound):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
