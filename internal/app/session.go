package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"trip_planner/internal/adapters/observability"
	"trip_planner/internal/dates"
	"trip_planner/internal/domain"
)

type State string

const (
	StateAwaitingGuess         State = "awaiting_guess"
	StateCheckingCompleteness  State = "checking_completeness"
	StateAwaitingAnswers       State = "awaiting_answers"
	StateValidated             State = "validated"
	DefaultMaxRounds                 = 3
	noticeGuests                     = "Please enter a number. Defaulting to 1 adult."
	noticeDate                       = "Could not parse the date. Please use a format like 'July 10' or '10th July'"
	noticeStay                       = "Please enter a number or duration (e.g., '7 days', '1 month'). Defaulting to 1 day."
)

var (
	ErrWrongState   = errors.New("session in wrong state")
	ErrNotValidated = errors.New("session not validated")
)

// Step is what a session hands back after each transition: the question to
// surface next, if any, and a notice about how the last answer was read.
type Step struct {
	State    State             `json:"state"`
	Question *domain.Question  `json:"question,omitempty"`
	Notice   string            `json:"notice,omitempty"`
	Feedback string            `json:"feedback,omitempty"`
	Query    *domain.TripQuery `json:"query,omitempty"`
}

type SessionOptions struct {
	// MaxRounds bounds how many times the question list is regenerated.
	MaxRounds int
	Now       func() time.Time
}

func (o SessionOptions) withDefaults() SessionOptions {
	if o.MaxRounds <= 0 {
		o.MaxRounds = DefaultMaxRounds
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Session drives one guess from the extractor to a validated TripQuery.
// It suspends on every question: Submit and Answer each return at once with
// the next Step. A Session belongs to a single caller and is not safe for
// concurrent use.
type Session struct {
	id        string
	state     State
	guess     domain.RawGuess
	pending   []domain.Question
	next      int
	round     int
	maxRounds int
	feedback  []string
	query     domain.TripQuery
	createdAt time.Time
	updatedAt time.Time

	validator *Validator
	now       func() time.Time
}

func NewSession(id string, opts SessionOptions) *Session {
	opts = opts.withDefaults()
	now := opts.Now()
	return &Session{
		id:        id,
		state:     StateAwaitingGuess,
		maxRounds: opts.MaxRounds,
		createdAt: now,
		updatedAt: now,
		validator: NewValidator(opts.Now),
		now:       opts.Now,
	}
}

func (s *Session) ID() string            { return s.id }
func (s *Session) State() State          { return s.state }
func (s *Session) Guess() domain.RawGuess { return s.guess }
func (s *Session) Feedback() []string    { return append([]string(nil), s.feedback...) }

// Current returns the question waiting for an answer.
func (s *Session) Current() (domain.Question, bool) {
	if s.state != StateAwaitingAnswers || s.next >= len(s.pending) {
		return domain.Question{}, false
	}
	return s.pending[s.next], true
}

// Query returns the validated query.
func (s *Session) Query() (domain.TripQuery, error) {
	if s.state != StateValidated {
		return domain.TripQuery{}, fmt.Errorf("%w: %s", ErrNotValidated, s.state)
	}
	return s.query, nil
}

// Submit takes the extractor's guess. Completeness is judged on the guess as
// written, before any coercion.
func (s *Session) Submit(raw domain.RawGuess) (Step, error) {
	if s.state != StateAwaitingGuess {
		return Step{}, s.wrongState("submit")
	}
	s.guess = raw
	s.state = StateCheckingCompleteness
	observability.ObserveSession("started")
	return s.advance("")
}

// Answer applies text to the current question and moves on.
func (s *Session) Answer(text string) (Step, error) {
	q, ok := s.Current()
	if !ok {
		return Step{}, s.wrongState("answer")
	}
	notice, feedback := s.apply(q, text)
	s.next++
	s.updatedAt = s.now()

	if s.next < len(s.pending) {
		st := s.step(notice)
		st.Feedback = feedback
		return st, nil
	}

	s.syncReturnDate()
	s.state = StateCheckingCompleteness
	st, err := s.advance(notice)
	st.Feedback = feedback
	return st, err
}

// ReopenNoFlights puts a validated session back into question mode with the
// follow-ups for an empty flight search.
func (s *Session) ReopenNoFlights() (Step, error) {
	if s.state != StateValidated {
		return Step{}, s.wrongState("reopen")
	}
	s.guess = s.query.Guess()
	s.pending, s.next = NoFlightsQuestions(s.query), 0
	s.round = 0
	s.state = StateAwaitingAnswers
	s.updatedAt = s.now()
	for _, q := range s.pending {
		observability.ObserveQuestion(fieldLabel(q.Field))
	}
	log.Debug().Str("session", s.id).Int("questions", len(s.pending)).Msg("reopened after empty flight search")
	return s.step(""), nil
}

func (s *Session) advance(notice string) (Step, error) {
	qs := FollowUpQuestions(s.guess.Literal())
	norm := s.validator.Normalize(s.guess)
	if len(qs) == 0 {
		// the surface looks complete; make sure coercion would not clear anything
		qs = FollowUpQuestions(norm.Literal())
	} else if norm.LengthOfStay.Int() > 0 {
		// text stays like "7 days" only resolve through coercion
		qs = slices.DeleteFunc(qs, func(q domain.Question) bool { return q.Field == domain.FieldLengthOfStay })
	}
	if len(qs) == 0 || s.round >= s.maxRounds {
		return s.finish(notice)
	}

	s.round++
	s.pending, s.next = qs, 0
	s.state = StateAwaitingAnswers
	for _, q := range qs {
		observability.ObserveQuestion(fieldLabel(q.Field))
	}
	log.Debug().Str("session", s.id).Int("round", s.round).Int("questions", len(qs)).Msg("clarification needed")
	return s.step(notice), nil
}

func (s *Session) finish(notice string) (Step, error) {
	q, err := s.validator.Coerce(s.guess)
	if err != nil {
		log.Error().Err(err).Str("session", s.id).Msg("final coercion failed")
		return Step{}, err
	}
	s.query = q
	s.guess = q.Guess()
	s.pending, s.next = nil, 0
	s.state = StateValidated
	s.updatedAt = s.now()
	observability.ObserveSession("validated")
	log.Info().Str("session", s.id).Int("rounds", s.round).Msg("trip query validated")
	return s.step(notice), nil
}

// apply routes the answer by the question text and updates that one field,
// plus the derived return date where the rules call for it.
func (s *Session) apply(q domain.Question, answer string) (notice, feedback string) {
	field, ok := RouteQuestion(q.Text)
	if !ok {
		s.feedback = append(s.feedback, answer)
		return "", answer
	}
	answer = strings.TrimSpace(answer)
	today := dates.Midnight(s.now())

	switch field {
	case domain.FieldDepartureLocation, domain.FieldArrivalLocation, domain.FieldHolidayType:
		s.guess.Set(field, domain.Text(answer))

	case domain.FieldAdultGuests:
		n, err := strconv.Atoi(answer)
		if err != nil {
			observability.ObserveAnswerFailure(string(field))
			n, notice = 1, noticeGuests
		}
		// zero or negative counts are kept as unknown and asked again
		s.guess.AdultGuests = domain.Int(max(n, 0))

	case domain.FieldDepartureDate:
		d, ok := dates.ParseDate(answer, today)
		if !ok {
			observability.ObserveAnswerFailure(string(field))
			log.Debug().Str("session", s.id).Str("answer", answer).Msg("departure date answer unparseable")
			return noticeDate, ""
		}
		s.guess.DepartureDate = domain.Text(dates.FormatDate(d))
		if stay := s.guess.LengthOfStay.Int(); stay > 0 {
			s.guess.ReturnDate = domain.Text(dates.FormatDate(dates.AddDays(d, stay)))
		}

	case domain.FieldLengthOfStay:
		dep, hasDep := s.departure(today)
		ref := today
		if hasDep {
			ref = dep
		}
		n := dates.CalculateDuration(answer, ref)
		if n <= 0 {
			v, err := strconv.Atoi(answer)
			switch {
			case err == nil && v > dates.MaxStay:
				// out of range stays fall back to unknown and are asked again
				observability.ObserveAnswerFailure(string(field))
				s.guess.LengthOfStay = domain.Int(0)
				s.guess.ReturnDate = domain.Absent()
				return "", ""
			case err == nil && v > 0:
				n = v
			default:
				observability.ObserveAnswerFailure(string(field))
				n, notice = 1, noticeStay
			}
		}
		s.guess.LengthOfStay = domain.Int(n)
		if hasDep {
			s.guess.ReturnDate = domain.Text(dates.FormatDate(dates.AddDays(dep, n)))
		}
	}
	return notice, ""
}

// departure reads the currently stored departure date, canonical or not.
func (s *Session) departure(today time.Time) (time.Time, bool) {
	raw := s.guess.DepartureDate.String()
	if d, ok := dates.ParseISO(raw); ok {
		return d, true
	}
	if !dates.HasDigit(raw) {
		return time.Time{}, false
	}
	return dates.ParseDate(raw, today)
}

func (s *Session) syncReturnDate() {
	dep, ok := s.departure(dates.Midnight(s.now()))
	stay := s.guess.LengthOfStay.Int()
	if ok && stay > 0 {
		s.guess.ReturnDate = domain.Text(dates.FormatDate(dates.AddDays(dep, stay)))
	}
}

func (s *Session) step(notice string) Step {
	st := Step{State: s.state, Notice: notice}
	if q, ok := s.Current(); ok {
		st.Question = &q
	}
	if s.state == StateValidated {
		q := s.query
		st.Query = &q
	}
	return st
}

func (s *Session) wrongState(op string) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrWrongState, op, s.state)
}

func fieldLabel(f domain.Field) string {
	if f == "" {
		return "open"
	}
	return string(f)
}

// Asker surfaces one step's question to a person and returns their answer.
type Asker interface {
	Ask(ctx context.Context, step Step) (string, error)
}

// Drive runs a session to completion by asking every question through a.
// It blocks on each answer; cancel ctx to abandon the session.
func Drive(ctx context.Context, s *Session, raw domain.RawGuess, a Asker) (domain.TripQuery, error) {
	st, err := s.Submit(raw)
	if err != nil {
		return domain.TripQuery{}, err
	}
	return ask(ctx, s, st, a)
}

// Resume drives a session that is already waiting for answers, such as one
// reopened after an empty flight search.
func Resume(ctx context.Context, s *Session, a Asker) (domain.TripQuery, error) {
	return ask(ctx, s, s.step(""), a)
}

func ask(ctx context.Context, s *Session, st Step, a Asker) (domain.TripQuery, error) {
	var err error
	for st.Question != nil {
		if err := ctx.Err(); err != nil {
			return domain.TripQuery{}, err
		}
		answer, aerr := a.Ask(ctx, st)
		if aerr != nil {
			return domain.TripQuery{}, fmt.Errorf("ask %q: %w", st.Question.Text, aerr)
		}
		if st, err = s.Answer(answer); err != nil {
			return domain.TripQuery{}, err
		}
	}
	return s.Query()
}

// Snapshot is the serializable state of a Session.
type Snapshot struct {
	ID        string            `json:"id"`
	State     State             `json:"state"`
	Guess     domain.RawGuess   `json:"guess"`
	Pending   []domain.Question `json:"pending,omitempty"`
	Next      int               `json:"next"`
	Round     int               `json:"round"`
	MaxRounds int               `json:"max_rounds"`
	Feedback  []string          `json:"feedback,omitempty"`
	Query     *domain.TripQuery `json:"query,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:        s.id,
		State:     s.state,
		Guess:     s.guess,
		Pending:   append([]domain.Question(nil), s.pending...),
		Next:      s.next,
		Round:     s.round,
		MaxRounds: s.maxRounds,
		Feedback:  s.Feedback(),
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
	if s.state == StateValidated {
		q := s.query
		snap.Query = &q
	}
	return snap
}

// RestoreSession rebuilds a session from snap. opts.MaxRounds is ignored in
// favor of the stored bound.
func RestoreSession(snap Snapshot, opts SessionOptions) (*Session, error) {
	switch snap.State {
	case StateAwaitingGuess, StateAwaitingAnswers, StateValidated:
	default:
		return nil, fmt.Errorf("%w: cannot restore %q", ErrWrongState, snap.State)
	}
	if snap.State == StateAwaitingAnswers && (snap.Next < 0 || snap.Next >= len(snap.Pending)) {
		return nil, fmt.Errorf("%w: question %d of %d", ErrWrongState, snap.Next, len(snap.Pending))
	}
	if snap.State == StateValidated && snap.Query == nil {
		return nil, fmt.Errorf("%w: validated snapshot without query", ErrWrongState)
	}
	if snap.MaxRounds > 0 {
		opts.MaxRounds = snap.MaxRounds
	}
	s := NewSession(snap.ID, opts)
	s.state = snap.State
	s.guess = snap.Guess
	s.pending = append([]domain.Question(nil), snap.Pending...)
	s.next = snap.Next
	s.round = snap.Round
	s.feedback = append([]string(nil), snap.Feedback...)
	s.createdAt, s.updatedAt = snap.CreatedAt, snap.UpdatedAt
	if snap.Query != nil {
		s.query = *snap.Query
	}
	return s, nil
}
