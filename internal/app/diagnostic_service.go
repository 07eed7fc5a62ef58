package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"diagnostic-lead-service/internal/crm"
	"diagnostic-lead-service/internal/domain"
	"diagnostic-lead-service/internal/scoring"
	"diagnostic-lead-service/internal/share"
)

// SessionRepository abstracts how diagnostic sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, session *Session) error
}

// QuizRepository loads quiz definitions (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error)
	ListQuizIDs(ctx context.Context) ([]string, error)
}

// LeadClient is the external CRM contract: one create at intake, one update at completion.
type LeadClient interface {
	CreateLead(ctx context.Context, info domain.UserInfo, sourceTag string) (string, error)
	UpdateLead(ctx context.Context, id, description string) error
}

// ResultStore persists completed results. Writes are best-effort.
type ResultStore interface {
	SaveResult(ctx context.Context, result domain.StoredResult) error
}

// DiagnosticService contains the diagnostic use cases.
type DiagnosticService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	leads    LeadClient
	results  ResultStore
	share    *share.Builder
	recorder Recorder
	logger   logrus.FieldLogger
	validate *validator.Validate

	leadTimeout time.Duration
	now         func() time.Time
	newID       func() string

	locks *sessionLocks
}

func NewDiagnosticService(sessions SessionRepository, quizzes QuizRepository, opts ...Option) *DiagnosticService {
	s := &DiagnosticService{
		sessions:    sessions,
		quizzes:     quizzes,
		recorder:    noopRecorder{},
		logger:      defaultLogger(),
		validate:    newIntakeValidator(),
		leadTimeout: DefaultLeadTimeout,
		now:         time.Now,
		newID:       defaultID,
		locks:       newSessionLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SessionView is what a client needs to render the current step.
type SessionView struct {
	ID            string           `json:"id"`
	QuizID        string           `json:"quizId"`
	State         State            `json:"state"`
	CurrentIndex  int              `json:"currentIndex"`
	QuestionCount int              `json:"questionCount"`
	Progress      int              `json:"progress"`
	Question      *domain.Question `json:"question,omitempty"`
	Selected      *decimal.Decimal `json:"selected,omitempty"`
	CanNext       bool             `json:"canNext"`
	CanBack       bool             `json:"canBack"`
	LeadSync      domain.LeadSync  `json:"leadSync"`
	Result        *domain.Result   `json:"result,omitempty"`
}

// AnswerFeedback echoes the selected option so the client can show its interpretation.
type AnswerFeedback struct {
	QuestionID     int             `json:"questionId"`
	Value          decimal.Decimal `json:"value"`
	Label          string          `json:"label"`
	Interpretation string          `json:"interpretation"`
	Session        SessionView     `json:"session"`
}

// Quizzes lists every available quiz variant.
func (s *DiagnosticService) Quizzes(ctx context.Context) ([]domain.QuizSummary, error) {
	ids, err := s.quizzes.ListQuizIDs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.QuizSummary, 0, len(ids))
	for _, id := range ids {
		def, err := s.quizzes.GetQuiz(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, def.Summary())
	}
	return out, nil
}

// Quiz returns one quiz definition.
func (s *DiagnosticService) Quiz(ctx context.Context, quizID string) (domain.QuizDefinition, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

// Begin opens a new session on quizID. Restarting a diagnostic always goes through Begin.
func (s *DiagnosticService) Begin(ctx context.Context, quizID string) (SessionView, error) {
	def, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return SessionView{}, err
	}
	session := NewSession(s.newID(), def.ID, s.now())
	if err := s.sessions.Save(ctx, session); err != nil {
		return SessionView{}, fmt.Errorf("save session: %w", err)
	}
	s.recorder.SessionBegun(def.ID)
	s.logger.WithFields(logrus.Fields{"session": session.ID, "quiz": def.ID}).Info("session begun")
	return view(def, session), nil
}

// Session returns the current view of a session.
func (s *DiagnosticService) Session(ctx context.Context, id string) (SessionView, error) {
	session, def, err := s.load(ctx, id)
	if err != nil {
		return SessionView{}, err
	}
	return view(def, session), nil
}

// Start moves the session from the intro to the intake form.
func (s *DiagnosticService) Start(ctx context.Context, id string) (SessionView, error) {
	return s.mutate(ctx, id, func(_ context.Context, def domain.QuizDefinition, session *Session) (sideEffect, error) {
		return nil, session.Start(s.now())
	})
}

// SubmitIntake validates the visitor's identity, opens the first question and creates the
// CRM lead. The transition is stored before the CRM is called, so a failed save never
// leads to a second lead; a CRM failure is recorded on the session and never blocks.
func (s *DiagnosticService) SubmitIntake(ctx context.Context, id string, info domain.UserInfo) (SessionView, error) {
	info = normalizeIntake(info)
	if err := validateIntake(s.validate, info); err != nil {
		return SessionView{}, err
	}
	return s.mutate(ctx, id, func(_ context.Context, def domain.QuizDefinition, session *Session) (sideEffect, error) {
		if err := session.SubmitIntake(info, s.now()); err != nil {
			return nil, err
		}
		if s.leads == nil {
			session.LeadSync.Create = domain.SyncSkipped
			s.recorder.LeadSync("create", domain.SyncSkipped)
			return nil, nil
		}
		session.LeadSync.Create = domain.SyncPending
		return s.createLead, nil
	})
}

// Answer records the visitor's pick for the current question.
func (s *DiagnosticService) Answer(ctx context.Context, id string, value decimal.Decimal) (AnswerFeedback, error) {
	var (
		opt        domain.Option
		questionID int
	)
	v, err := s.mutate(ctx, id, func(_ context.Context, def domain.QuizDefinition, session *Session) (sideEffect, error) {
		var err error
		opt, err = session.Answer(def, value, s.now())
		if err != nil {
			return nil, err
		}
		q, _ := def.Question(session.CurrentIndex)
		questionID = q.ID
		return nil, nil
	})
	if err != nil {
		return AnswerFeedback{}, err
	}
	return AnswerFeedback{
		QuestionID:     questionID,
		Value:          opt.Value,
		Label:          opt.Label,
		Interpretation: opt.Interpretation,
		Session:        v,
	}, nil
}

// Next advances the session. Leaving the last question completes it: the score is
// computed once and stored with the session, then the lead is updated and the result
// persisted.
func (s *DiagnosticService) Next(ctx context.Context, id string) (SessionView, error) {
	return s.mutate(ctx, id, func(_ context.Context, def domain.QuizDefinition, session *Session) (sideEffect, error) {
		moved, err := session.Next(def, s.now())
		if err != nil || !moved || session.State != StateCompleted {
			return nil, err
		}
		if !s.complete(def, session) {
			return nil, nil
		}
		return s.finishCompletion, nil
	})
}

// Back returns to the previous question on variants that allow it.
func (s *DiagnosticService) Back(ctx context.Context, id string) (SessionView, error) {
	return s.mutate(ctx, id, func(_ context.Context, def domain.QuizDefinition, session *Session) (sideEffect, error) {
		_, err := session.Back(def, s.now())
		return nil, err
	})
}

// Result returns the outcome of a completed session.
func (s *DiagnosticService) Result(ctx context.Context, id string) (domain.Result, error) {
	session, _, err := s.load(ctx, id)
	if err != nil {
		return domain.Result{}, err
	}
	if session.State != StateCompleted || session.Result == nil {
		return domain.Result{}, domain.ErrSessionNotCompleted
	}
	return *session.Result, nil
}

func (s *DiagnosticService) load(ctx context.Context, id string) (*Session, domain.QuizDefinition, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, domain.QuizDefinition{}, err
	}
	def, err := s.quizzes.GetQuiz(ctx, session.QuizID)
	if err != nil {
		return nil, domain.QuizDefinition{}, err
	}
	return session, def, nil
}

// sideEffect is an external call made once a transition is stored. It records its
// outcome on the session, which is then saved again.
type sideEffect func(context.Context, domain.QuizDefinition, *Session)

// mutate runs fn under the session's lock and saves the session when fn succeeds. A side
// effect returned by fn only runs after that save, so retrying a failed call can never
// repeat it. Only this session is held while the side effect waits on the network.
func (s *DiagnosticService) mutate(ctx context.Context, id string, fn func(context.Context, domain.QuizDefinition, *Session) (sideEffect, error)) (SessionView, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	session, def, err := s.load(ctx, id)
	if err != nil {
		return SessionView{}, err
	}
	effect, err := fn(ctx, def, session)
	if err != nil {
		return SessionView{}, err
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return SessionView{}, fmt.Errorf("save session: %w", err)
	}
	if effect == nil {
		return view(def, session), nil
	}

	effect(ctx, def, session)
	if err := s.sessions.Save(ctx, session); err != nil {
		// the transition is already stored; only the sync outcome is lost
		s.logger.WithError(err).WithField("session", session.ID).Warn("save after lead sync failed")
	}
	return view(def, session), nil
}

func (s *DiagnosticService) createLead(ctx context.Context, def domain.QuizDefinition, session *Session) {
	if session.LeadSync.Create != domain.SyncPending || session.UserInfo == nil {
		return
	}
	log := s.logger.WithFields(logrus.Fields{"session": session.ID, "quiz": def.ID})

	callCtx, cancel := context.WithTimeout(ctx, s.leadTimeout)
	defer cancel()

	leadID, err := s.leads.CreateLead(callCtx, *session.UserInfo, def.SourceTag)
	if err != nil {
		session.LeadSync.Create = domain.SyncFailed
		session.LeadSync.CreateError = err.Error()
		s.recorder.LeadSync("create", domain.SyncFailed)
		log.WithError(err).Warn("lead creation failed")
		return
	}
	session.LeadID = leadID
	session.LeadSync.Create = domain.SyncOK
	s.recorder.LeadSync("create", domain.SyncOK)
	log.WithField("lead", leadID).Info("lead created")
}

// complete builds the result of a session that just reached the end. It reports whether
// the completion side effects are still to run.
func (s *DiagnosticService) complete(def domain.QuizDefinition, session *Session) bool {
	if session.Result != nil {
		return false
	}

	breakdown := scoring.Score(session.Answers, def.Questions)
	maxScore := def.MaxScore()
	percentage := scoring.Percentage(breakdown.Total, maxScore)
	level := scoring.Classify(breakdown.Total, def.Levels)

	result := domain.Result{
		SessionID:   session.ID,
		QuizID:      def.ID,
		Total:       breakdown.Total,
		MaxScore:    maxScore,
		Percentage:  percentage,
		Categories:  scoring.Categories(def, breakdown),
		Level:       level,
		Answers:     append([]domain.Answer(nil), session.Answers...),
		CompletedAt: s.now(),
		Share:       s.share.Links(def.ID, percentage, level),
	}
	if session.UserInfo != nil {
		result.UserInfo = *session.UserInfo
	}
	session.Result = &result

	if s.leads == nil || session.LeadID == "" {
		session.LeadSync.Update = domain.SyncSkipped
		s.recorder.LeadSync("update", domain.SyncSkipped)
	} else {
		session.LeadSync.Update = domain.SyncPending
	}
	return true
}

func (s *DiagnosticService) finishCompletion(ctx context.Context, def domain.QuizDefinition, session *Session) {
	result := *session.Result
	log := s.logger.WithFields(logrus.Fields{"session": session.ID, "quiz": def.ID})

	s.updateLead(ctx, def, session, result)
	s.saveResult(ctx, result, log)

	s.recorder.SessionCompleted(def.ID, result.Level.ID)
	log.WithFields(logrus.Fields{
		"total": result.Total.String(),
		"level": result.Level.ID,
	}).Info("session completed")
}

func (s *DiagnosticService) updateLead(ctx context.Context, def domain.QuizDefinition, session *Session, result domain.Result) {
	if session.LeadSync.Update != domain.SyncPending {
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, s.leadTimeout)
	defer cancel()

	if err := s.leads.UpdateLead(callCtx, session.LeadID, crm.Describe(def, result)); err != nil {
		session.LeadSync.Update = domain.SyncFailed
		session.LeadSync.UpdateError = err.Error()
		s.recorder.LeadSync("update", domain.SyncFailed)
		s.logger.WithError(err).WithField("lead", session.LeadID).Warn("lead update failed")
		return
	}
	session.LeadSync.Update = domain.SyncOK
	s.recorder.LeadSync("update", domain.SyncOK)
}

func (s *DiagnosticService) saveResult(ctx context.Context, result domain.Result, log logrus.FieldLogger) {
	if s.results == nil {
		return
	}
	if err := s.results.SaveResult(ctx, domain.NewStoredResult(result)); err != nil {
		log.WithError(err).Warn("result persistence failed")
	}
}

func view(def domain.QuizDefinition, session *Session) SessionView {
	v := SessionView{
		ID:            session.ID,
		QuizID:        session.QuizID,
		State:         session.State,
		CurrentIndex:  session.CurrentIndex,
		QuestionCount: len(def.Questions),
		Progress:      session.Progress(def),
		LeadSync:      session.LeadSync,
		Result:        session.Result,
	}
	if session.State != StateInProgress {
		return v
	}
	if q, err := def.Question(session.CurrentIndex); err == nil {
		v.Question = &q
	}
	if a, ok := session.CurrentAnswer(def); ok {
		value := a.Value
		v.Selected = &value
		v.CanNext = true
	}
	v.CanBack = def.AllowBack && session.CurrentIndex > 0
	return v
}

// IsNotFound reports whether err means the session or quiz does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrQuizNotFound)
}
