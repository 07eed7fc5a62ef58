package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"diagnostic-lead-service/internal/app"
	"diagnostic-lead-service/internal/metrics"
)

// NewRouter mounts the REST API, the websocket endpoint and the operational routes.
// m may be nil, in which case /metrics is not served.
func NewRouter(service *app.DiagnosticService, m *metrics.Metrics, logger logrus.FieldLogger) http.Handler {
	r := mux.NewRouter()
	if m != nil {
		r.Use(m.Middleware)
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	rest := NewRESTHandler(service, logger)
	ws := NewWSHandler(service, logger)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/quizzes", rest.ListQuizzes).Methods(http.MethodGet)
	v1.HandleFunc("/quizzes/{quizId}", rest.GetQuiz).Methods(http.MethodGet)
	v1.HandleFunc("/quizzes/{quizId}/sessions", rest.BeginSession).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}", rest.GetSession).Methods(http.MethodGet)
	v1.HandleFunc("/sessions/{id}/start", rest.Start).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/intake", rest.SubmitIntake).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/answer", rest.Answer).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/next", rest.Next).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/back", rest.Back).Methods(http.MethodPost)
	v1.HandleFunc("/sessions/{id}/result", rest.Result).Methods(http.MethodGet)

	r.HandleFunc("/ws", ws.ServeWS).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	return r
}
