package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/examhall/examhall/internal/answers"
	"github.com/examhall/examhall/internal/backend"
	"github.com/examhall/examhall/internal/content"
	"github.com/examhall/examhall/internal/progress"
	"github.com/examhall/examhall/internal/scoring"
	syncx "github.com/examhall/examhall/internal/sync"
	"github.com/examhall/examhall/internal/timer"
)

type State int

const (
	StateSelectingSection State = iota // multi-section: picking a skill
	StateInSection                     // multi-section: answering within a section
	StateInProgress                    // unit exam: linear question navigation
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateSelectingSection:
		return "selecting_section"
	case StateInSection:
		return "in_section"
	case StateInProgress:
		return "in_progress"
	case StateSubmitted:
		return "submitted"
	}
	return "unknown"
}

var (
	ErrWrongState       = errors.New("operation not valid in current state")
	ErrUnknownSection   = errors.New("unknown section")
	ErrAlreadyComplete  = errors.New("section already complete")
	ErrAlreadySubmitted = errors.New("attempt already submitted")
)

// Hooks are optional host callbacks. The countdown warning and forced
// submissions happen on the timer goroutine, so a host UI attaches here
// rather than polling.
type Hooks struct {
	OnWarning   func(remainingSec int)
	OnSubmitted func(res scoring.Result)
	OnError     func(err error)
}

// Deps are the collaborators an orchestrator composes. All persistence flows
// through these; the orchestrator holds no SQL and no globals.
type Deps struct {
	Answers *answers.Store
	Queue   *answers.WriteQueue
	Tracker *progress.Tracker
	Engine  *scoring.Engine
	Results *scoring.ResultStore
	Events  *syncx.EventLog
	Timer   *timer.Controller
	Hooks   Hooks
	WarnSec int // countdown warning threshold; 0 means timer default
}

// Orchestrator drives one student's exam attempt. The active exam is injected
// at construction; there is no ambient "current exam" state anywhere.
type Orchestrator struct {
	deps      Deps
	studentID string
	exam      *content.Exam

	mu        sync.Mutex
	state     State
	sectionID string
	qIndex    int
	// Optimistic local answer state. Authoritative across reloads is the
	// backend; within a session this is the fallback of record when writes
	// fail silently.
	local     map[string]string
	completed map[string]bool
}

func New(deps Deps, studentID string, exam *content.Exam) *Orchestrator {
	if deps.Timer == nil {
		opts := []timer.Option{}
		if deps.WarnSec > 0 {
			opts = append(opts, timer.WithWarningThreshold(deps.WarnSec))
		}
		deps.Timer = timer.New(opts...)
	}
	return &Orchestrator{
		deps:      deps,
		studentID: studentID,
		exam:      exam,
		local:     map[string]string{},
		completed: map[string]bool{},
	}
}

// Start opens (or resumes) the attempt: ensures the result row exists in
// active status, reloads stored answers and completed sections, and for unit
// exams starts the global countdown. The backend is the source of truth on
// resume; whatever was persisted before a reload comes back here.
//
// A submitted attempt is terminal: starting over a completed result row is
// refused rather than silently re-running the exam.
func (o *Orchestrator) Start(ctx context.Context) error {
	prior, err := o.deps.Results.Get(ctx, o.studentID, o.exam.ID)
	if err != nil && !errors.Is(err, backend.ErrNotFound) {
		return fmt.Errorf("start session: %w", err)
	}
	if err == nil && prior.Status == scoring.StatusCompleted {
		return ErrAlreadySubmitted
	}

	if err := o.deps.Results.EnsureActive(ctx, o.studentID, o.exam.ID); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	stored, err := o.deps.Answers.GetAll(ctx, o.studentID, o.exam.ID)
	if err != nil {
		return fmt.Errorf("restore answers: %w", err)
	}
	done, err := o.deps.Tracker.Completed(ctx, o.studentID, o.exam.ID)
	if err != nil {
		return fmt.Errorf("restore progress: %w", err)
	}

	allDone := o.exam.Kind == content.KindTOEFL && coversAll(done, o.exam.SectionIDs())

	o.mu.Lock()
	o.local = stored
	o.completed = done
	switch {
	case allDone:
		o.state = StateSubmitted
	case o.exam.Kind == content.KindTOEFL:
		o.state = StateSelectingSection
	default:
		o.state = StateInProgress
		o.qIndex = 0
	}
	o.mu.Unlock()

	if allDone {
		// Every section finished but no completed result: the attempt was
		// interrupted between the last progress write and the result save.
		// Finish that submission now; on failure the state is already
		// Submitted so RetrySubmit stays available.
		return o.submit(ctx)
	}

	if o.exam.Kind != content.KindTOEFL {
		o.deps.Timer.Start(o.exam.DurationMin*60, o.warn, o.expireUnit)
	}

	o.logEvent(ctx, syncx.EventSessionStarted, "")
	return nil
}

// EnterSection begins one TOEFL section, starting its countdown. Re-entering
// a completed section is rejected; moving between sections replaces the timer.
func (o *Orchestrator) EnterSection(ctx context.Context, sectionID string) error {
	sec := o.exam.Section(sectionID)
	if sec == nil {
		return ErrUnknownSection
	}

	o.mu.Lock()
	if o.state != StateSelectingSection {
		o.mu.Unlock()
		return ErrWrongState
	}
	if o.completed[sectionID] {
		o.mu.Unlock()
		return ErrAlreadyComplete
	}
	o.state = StateInSection
	o.sectionID = sectionID
	o.mu.Unlock()

	dur := sec.DurationMin
	if dur == 0 {
		dur = o.exam.DurationMin
	}
	o.deps.Timer.Start(dur*60, o.warn, o.expireSection)
	return nil
}

// Answer records the student's response. Local state updates first; the
// persistent write is queued and serialized per question so rapid re-answers
// apply last-write-wins. Never blocks and never fails the caller.
func (o *Orchestrator) Answer(questionID, value string) error {
	o.mu.Lock()
	if o.state != StateInSection && o.state != StateInProgress {
		o.mu.Unlock()
		return ErrWrongState
	}
	o.local[questionID] = value
	o.mu.Unlock()

	o.deps.Queue.Enqueue(o.studentID, o.exam.ID, questionID, value)
	return nil
}

// CompleteSection finishes the current section, manually or via expiry (both
// land here; downstream effects are identical). When the completed set now
// covers every section the attempt submits; otherwise back to selection.
func (o *Orchestrator) CompleteSection(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StateInSection {
		o.mu.Unlock()
		return ErrWrongState
	}
	sectionID := o.sectionID
	required := o.exam.SectionIDs()
	wasComplete := coversAll(o.completed, required)
	o.completed[sectionID] = true
	nowComplete := coversAll(o.completed, required)
	o.sectionID = ""
	if nowComplete {
		o.state = StateSubmitted
	} else {
		o.state = StateSelectingSection
	}
	o.mu.Unlock()

	o.deps.Timer.Stop()

	// Persisting progress is best effort; the local set above already decided
	// the transition, which also guards against double-triggering submission
	// when completion is re-checked later.
	if err := o.deps.Tracker.MarkSectionComplete(ctx, o.studentID, o.exam.ID, sectionID); err != nil {
		log.Printf("progress write failed (kept local): %v", err)
	}
	o.logEvent(ctx, syncx.EventSectionCompleted, sectionID)

	if nowComplete && !wasComplete {
		return o.submit(ctx)
	}
	return nil
}

// Submit finalizes a unit exam attempt: the explicit last-question submit and
// the global-timer expiry both converge on this one path.
func (o *Orchestrator) Submit(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StateInProgress {
		o.mu.Unlock()
		return ErrWrongState
	}
	o.state = StateSubmitted
	o.mu.Unlock()

	o.deps.Timer.Stop()
	return o.submit(ctx)
}

// submit is the single result-writing path every submission funnels through.
// Result-write failures are returned: a silently missing result is the one
// failure a student must see and retry.
func (o *Orchestrator) submit(ctx context.Context) error {
	// Let queued answer writes land so scoring reads what the student saw.
	o.deps.Queue.Flush()

	stored, err := o.deps.Answers.GetAll(ctx, o.studentID, o.exam.ID)
	if err != nil {
		// Backend read failed at the worst moment; score the local state
		// rather than losing the attempt.
		log.Printf("reading answers for scoring failed, using session state: %v", err)
		o.mu.Lock()
		stored = make(map[string]string, len(o.local))
		for k, v := range o.local {
			stored[k] = v
		}
		o.mu.Unlock()
	}

	sections := o.deps.Engine.Score(o.exam, stored)
	res := scoring.Result{
		StudentID:   o.studentID,
		ExamID:      o.exam.ID,
		Status:      scoring.StatusCompleted,
		Sections:    sections,
		Total:       scoring.Scale(o.exam.Kind, sections),
		CompletedAt: time.Now().Unix(),
	}
	if err := o.deps.Results.Save(ctx, res); err != nil {
		return fmt.Errorf("save result: %w", err)
	}

	o.logEvent(ctx, syncx.EventExamSubmitted, "")
	if o.deps.Hooks.OnSubmitted != nil {
		o.deps.Hooks.OnSubmitted(res)
	}
	return nil
}

// RetrySubmit re-runs the result write after a failed submission. Scoring is
// recomputed from stored answers, so a retry lands the same totals.
func (o *Orchestrator) RetrySubmit(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StateSubmitted {
		o.mu.Unlock()
		return ErrWrongState
	}
	o.mu.Unlock()
	return o.submit(ctx)
}

// Exit leaves the attempt without submitting. The result row goes inactive so
// the attempt can resume later; persisted answers stay put.
func (o *Orchestrator) Exit(ctx context.Context) error {
	o.deps.Timer.Stop()

	o.mu.Lock()
	submitted := o.state == StateSubmitted
	if !submitted {
		if o.exam.Kind == content.KindTOEFL {
			o.state = StateSelectingSection
		} else {
			o.qIndex = 0
		}
	}
	o.sectionID = ""
	o.mu.Unlock()

	if submitted {
		return nil
	}
	if err := o.deps.Results.SetStatus(ctx, o.studentID, o.exam.ID, scoring.StatusInactive); err != nil {
		log.Printf("marking attempt inactive failed: %v", err)
	}
	o.logEvent(ctx, syncx.EventSessionExited, "")
	return nil
}

// Next advances linear unit navigation; reports whether it moved.
func (o *Orchestrator) Next() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateInProgress {
		return false
	}
	if o.qIndex+1 >= o.exam.QuestionCount() {
		return false
	}
	o.qIndex++
	return true
}

// Prev steps linear unit navigation back; reports whether it moved.
func (o *Orchestrator) Prev() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateInProgress || o.qIndex == 0 {
		return false
	}
	o.qIndex--
	return true
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) CurrentSection() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sectionID
}

func (o *Orchestrator) QuestionIndex() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.qIndex
}

// Remaining is the seconds left on the active countdown.
func (o *Orchestrator) Remaining() int { return o.deps.Timer.Remaining() }

// Answers is a copy of the session's local answer state.
func (o *Orchestrator) Answers() map[string]string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]string, len(o.local))
	for k, v := range o.local {
		out[k] = v
	}
	return out
}

// CompletedSections is a copy of the locally tracked completed set.
func (o *Orchestrator) CompletedSections() map[string]bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]bool, len(o.completed))
	for k, v := range o.completed {
		out[k] = v
	}
	return out
}

// warn relays the one-time countdown warning to the host.
func (o *Orchestrator) warn() {
	if o.deps.Hooks.OnWarning != nil {
		o.deps.Hooks.OnWarning(o.deps.Timer.Remaining())
	}
}

// expireSection forces the same completion transition as the manual action.
func (o *Orchestrator) expireSection() {
	if err := o.CompleteSection(context.Background()); err != nil && !errors.Is(err, ErrWrongState) {
		o.reportError(err)
	}
}

// expireUnit forces submission with whatever answers exist.
func (o *Orchestrator) expireUnit() {
	if err := o.Submit(context.Background()); err != nil && !errors.Is(err, ErrWrongState) {
		o.reportError(err)
	}
}

func (o *Orchestrator) reportError(err error) {
	if o.deps.Hooks.OnError != nil {
		o.deps.Hooks.OnError(err)
		return
	}
	log.Printf("session %s/%s: %v", o.studentID, o.exam.ID, err)
}

func (o *Orchestrator) logEvent(ctx context.Context, typ, detail string) {
	if o.deps.Events == nil {
		return
	}
	data := "{}"
	if detail != "" {
		data = fmt.Sprintf("{%q:%q}", "section_id", detail)
	}
	err := o.deps.Events.Append(ctx, syncx.Event{
		StudentID: o.studentID,
		Type:      typ,
		Key:       o.exam.ID,
		DataJSON:  data,
	})
	if err != nil {
		log.Printf("event log append failed: %v", err)
	}
}

func coversAll(done map[string]bool, required []string) bool {
	for _, id := range required {
		if !done[id] {
			return false
		}
	}
	return true
}
