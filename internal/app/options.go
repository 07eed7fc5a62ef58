package app

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"diagnostic-lead-service/internal/domain"
	"diagnostic-lead-service/internal/share"
)

// DefaultLeadTimeout bounds each CRM call when no timeout is configured.
const DefaultLeadTimeout = 8 * time.Second

// Recorder receives the service's business events (metrics).
type Recorder interface {
	SessionBegun(quizID string)
	SessionCompleted(quizID, level string)
	LeadSync(op string, status domain.SyncStatus)
}

type noopRecorder struct{}

func (noopRecorder) SessionBegun(string)                {}
func (noopRecorder) SessionCompleted(string, string)    {}
func (noopRecorder) LeadSync(string, domain.SyncStatus) {}

// Option configures a DiagnosticService.
type Option func(*DiagnosticService)

// WithLeadClient enables CRM synchronisation. Without it both calls are skipped.
func WithLeadClient(c LeadClient) Option {
	return func(s *DiagnosticService) { s.leads = c }
}

// WithResultStore enables best-effort persistence of completed results.
func WithResultStore(r ResultStore) Option {
	return func(s *DiagnosticService) { s.results = r }
}

// WithLeadTimeout bounds each CRM call.
func WithLeadTimeout(d time.Duration) Option {
	return func(s *DiagnosticService) {
		if d > 0 {
			s.leadTimeout = d
		}
	}
}

// WithShareBuilder sets how share links are built.
func WithShareBuilder(b *share.Builder) Option {
	return func(s *DiagnosticService) { s.share = b }
}

// WithLogger sets the structured logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *DiagnosticService) { s.logger = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *DiagnosticService) { s.recorder = r }
}

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *DiagnosticService) { s.now = now }
}

// WithIDGenerator is used by tests for predictable session IDs.
func WithIDGenerator(gen func() string) Option {
	return func(s *DiagnosticService) { s.newID = gen }
}

func defaultLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func defaultID() string {
	return uuid.NewString()
}
