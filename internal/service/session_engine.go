package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/calegray/manse/internal/catalogue"
	"github.com/calegray/manse/internal/db"
	"github.com/calegray/manse/internal/domain"
	"github.com/calegray/manse/internal/repository"
	"github.com/google/uuid"
)

// Phase is the lifecycle stage of an in-progress visit.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseInitializing   Phase = "initializing"
	PhaseShowingEntry   Phase = "showing_entry"
	PhaseActive         Phase = "active"
	PhaseGeneratingExit Phase = "generating_exit"
	PhaseShowingExit    Phase = "showing_exit"
	PhaseFinalized      Phase = "finalized"
)

// Fallback transition text shown when narrative generation fails or has not
// arrived yet.
const (
	DefaultEntryText = "You cross the threshold. The room settles around you."
	DefaultExitText  = "You close the door behind you. The room holds what you left."
)

var (
	ErrSessionInProgress = errors.New("a session is already in progress")
	ErrNoSession         = errors.New("no session in progress")
	ErrWrongPhase        = errors.New("operation not valid in current phase")
)

// SessionState is a point-in-time snapshot of the engine for display.
type SessionState struct {
	Phase     Phase
	Session   *domain.Session
	Instance  *domain.RoomInstance
	EntryText string
	ExitText  string
	Elapsed   time.Duration
}

// SessionEngine drives one visit at a time through
// initializing → showing_entry → active → generating_exit → showing_exit →
// finalized. Narrative text is generated fire-and-forget: the engine shows
// fallback text immediately and swaps in the generated text if it arrives
// while the session is still in the matching phase.
type SessionEngine struct {
	instances  repository.InstanceRepo
	sessions   repository.SessionRepo
	uow        db.UnitOfWork
	catalogue  *catalogue.Catalogue
	narrator   NarrativeGenerator
	transcript TranscriptResetter
	observer   UseCaseObserver
	clock      func() time.Time

	mu          sync.Mutex
	phase       Phase
	session     *domain.Session
	instance    *domain.RoomInstance
	genID       uint64
	entryText   string
	exitText    string
	activeSince *time.Time
	accumulated time.Duration
}

func NewSessionEngine(instances repository.InstanceRepo, sessions repository.SessionRepo, uow db.UnitOfWork, cat *catalogue.Catalogue, narrator NarrativeGenerator, observer UseCaseObserver) *SessionEngine {
	if observer == nil {
		observer = NoopUseCaseObserver{}
	}
	return &SessionEngine{
		instances: instances,
		sessions:  sessions,
		uow:       uow,
		catalogue: cat,
		narrator:  narrator,
		observer:  observer,
		clock:     func() time.Time { return time.Now().UTC() },
		phase:     PhaseIdle,
	}
}

// AttachTranscript registers the chat transcript to clear on Finalize.
func (e *SessionEngine) AttachTranscript(t TranscriptResetter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transcript = t
}

// State returns a snapshot safe to read outside the lock.
func (e *SessionEngine) State() SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return SessionState{
		Phase:     e.phase,
		Session:   e.session,
		Instance:  e.instance,
		EntryText: e.entryText,
		ExitText:  e.exitText,
		Elapsed:   e.elapsedLocked(),
	}
}

func (e *SessionEngine) elapsedLocked() time.Duration {
	d := e.accumulated
	if e.activeSince != nil {
		d += e.clock().Sub(*e.activeSince)
	}
	return d
}

// Start opens a session on the given instance. The session record is
// persisted first; if that write fails the visit is aborted and no instance
// is activated. Activation then flips other active instances off one at a
// time before flipping the target on.
func (e *SessionEngine) Start(ctx context.Context, instanceID string) (SessionState, error) {
	started := time.Now()
	state, err := e.start(ctx, instanceID)
	observe(ctx, e.observer, "session.start", started, err, map[string]any{"instance_id": instanceID})
	return state, err
}

func (e *SessionEngine) start(ctx context.Context, instanceID string) (SessionState, error) {
	e.mu.Lock()
	if e.phase != PhaseIdle && e.phase != PhaseFinalized {
		e.mu.Unlock()
		return SessionState{}, ErrSessionInProgress
	}
	e.phase = PhaseInitializing
	e.mu.Unlock()

	instance, err := e.instances.GetByID(ctx, instanceID)
	if err != nil {
		e.resetToIdle()
		return SessionState{}, err
	}

	roomName := instance.DefinitionID
	if def, ok := e.catalogue.ByID(instance.DefinitionID); ok {
		roomName = def.Name
	}

	now := e.clock()
	session := &domain.Session{
		ID:           uuid.New().String(),
		InstanceID:   instance.ID,
		DefinitionID: instance.DefinitionID,
		RoomName:     roomName,
		VariantName:  instance.VariantName,
		StartedAt:    now,
		CreatedAt:    now,
	}
	if err := e.sessions.Create(ctx, session); err != nil {
		e.resetToIdle()
		return SessionState{}, fmt.Errorf("persisting session: %w", err)
	}

	// Best effort: flips are independent writes, so a failure here can
	// leave zero active instances but never two.
	if err := e.activateOnly(ctx, instance); err != nil {
		e.resetToIdle()
		return SessionState{}, err
	}

	e.mu.Lock()
	e.session = session
	e.instance = instance
	e.phase = PhaseShowingEntry
	e.entryText = DefaultEntryText
	e.exitText = ""
	e.accumulated = 0
	e.activeSince = nil
	e.genID++
	gen := e.genID
	e.mu.Unlock()

	e.generateEntry(gen, instance)
	return e.State(), nil
}

func (e *SessionEngine) activateOnly(ctx context.Context, target *domain.RoomInstance) error {
	active, err := e.instances.ListActive(ctx)
	if err != nil {
		return err
	}
	now := e.clock()
	for _, other := range active {
		if other.ID == target.ID {
			continue
		}
		other.IsActive = false
		other.UpdatedAt = now
		if err := e.instances.Update(ctx, other); err != nil {
			return fmt.Errorf("deactivating %s: %w", other.ID, err)
		}
	}
	target.IsActive = true
	target.UpdatedAt = now
	return e.instances.Update(ctx, target)
}

func (e *SessionEngine) resetToIdle() {
	e.mu.Lock()
	e.phase = PhaseIdle
	e.session = nil
	e.instance = nil
	e.mu.Unlock()
}

func (e *SessionEngine) generateEntry(gen uint64, instance *domain.RoomInstance) {
	if e.narrator == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		text, err := e.narrator.EntryText(ctx, instance)
		if err != nil || text == "" {
			return
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		// A late result for a session that has moved on is discarded.
		if e.genID != gen || e.phase != PhaseShowingEntry {
			return
		}
		e.entryText = text
	}()
}

// EnterRoom acknowledges the entry text and starts the clock.
func (e *SessionEngine) EnterRoom() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseShowingEntry {
		return fmt.Errorf("%w: %s", ErrWrongPhase, e.phase)
	}
	now := e.clock()
	e.activeSince = &now
	e.phase = PhaseActive
	return nil
}

// Pause freezes elapsed accumulation without resetting it.
func (e *SessionEngine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseActive {
		return fmt.Errorf("%w: %s", ErrWrongPhase, e.phase)
	}
	if e.activeSince != nil {
		e.accumulated += e.clock().Sub(*e.activeSince)
		e.activeSince = nil
	}
	return nil
}

// Resume continues accumulation after a pause.
func (e *SessionEngine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseActive {
		return fmt.Errorf("%w: %s", ErrWrongPhase, e.phase)
	}
	if e.activeSince == nil {
		now := e.clock()
		e.activeSince = &now
	}
	return nil
}

// Complete ends the visit: one transaction persists the session end and
// observations, deactivates the instance, bumps familiarity and accrues
// mastery minutes. Exit narrative then generates fire-and-forget.
func (e *SessionEngine) Complete(ctx context.Context, observations []string) (SessionState, error) {
	started := time.Now()
	state, err := e.complete(ctx, observations)
	observe(ctx, e.observer, "session.complete", started, err, nil)
	return state, err
}

func (e *SessionEngine) complete(ctx context.Context, observations []string) (SessionState, error) {
	e.mu.Lock()
	if e.session == nil {
		e.mu.Unlock()
		return SessionState{}, ErrNoSession
	}
	if e.phase != PhaseActive {
		e.mu.Unlock()
		return SessionState{}, fmt.Errorf("%w: %s", ErrWrongPhase, e.phase)
	}
	if e.activeSince != nil {
		e.accumulated += e.clock().Sub(*e.activeSince)
		e.activeSince = nil
	}
	e.phase = PhaseGeneratingExit
	session := e.session
	e.mu.Unlock()

	now := e.clock()
	session.EndedAt = &now
	session.Observations = observations
	minutes := session.DurationSeconds() / 60

	var closed *domain.RoomInstance
	err := e.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txSessions := repository.NewSQLiteSessionRepo(tx)
		txInstances := repository.NewSQLiteInstanceRepo(tx)

		if err := txSessions.Update(ctx, session); err != nil {
			return err
		}
		instance, err := txInstances.GetByID(ctx, session.InstanceID)
		if err != nil {
			return err
		}
		instance.CloseVisit(minutes, now)
		instance.UpdatedAt = now
		if err := txInstances.Update(ctx, instance); err != nil {
			return err
		}
		closed = instance
		return nil
	})
	if err != nil {
		e.mu.Lock()
		e.phase = PhaseActive
		session.EndedAt = nil
		session.Observations = nil
		e.mu.Unlock()
		return SessionState{}, fmt.Errorf("closing session: %w", err)
	}

	e.mu.Lock()
	e.instance = closed
	e.exitText = DefaultExitText
	e.phase = PhaseShowingExit
	e.genID++
	gen := e.genID
	e.mu.Unlock()

	e.generateExit(gen, closed, minutes)
	return e.State(), nil
}

func (e *SessionEngine) generateExit(gen uint64, instance *domain.RoomInstance, minutes int) {
	if e.narrator == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		text, err := e.narrator.ExitText(ctx, instance, minutes)
		if err != nil || text == "" {
			return
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.genID != gen || e.phase != PhaseShowingExit {
			return
		}
		e.exitText = text
	}()
}

// Finalize releases session-scoped state, including the in-room chat
// transcript.
func (e *SessionEngine) Finalize() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseShowingExit {
		return fmt.Errorf("%w: %s", ErrWrongPhase, e.phase)
	}
	if e.transcript != nil {
		e.transcript.Reset()
	}
	e.phase = PhaseFinalized
	e.session = nil
	e.instance = nil
	e.entryText = ""
	e.exitText = ""
	e.accumulated = 0
	e.activeSince = nil
	e.genID++
	return nil
}
