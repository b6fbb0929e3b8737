package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/calegray/manse/internal/catalogue"
	"github.com/calegray/manse/internal/domain"
	"github.com/calegray/manse/internal/repository"
	"github.com/calegray/manse/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when told to.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type stubNarrator struct {
	entry   string
	exit    string
	err     error
	release chan struct{} // when non-nil, blocks until closed
}

func (n *stubNarrator) EntryText(ctx context.Context, _ *domain.RoomInstance) (string, error) {
	return n.wait(ctx, n.entry)
}

func (n *stubNarrator) ExitText(ctx context.Context, _ *domain.RoomInstance, _ int) (string, error) {
	return n.wait(ctx, n.exit)
}

func (n *stubNarrator) wait(ctx context.Context, text string) (string, error) {
	if n.release != nil {
		select {
		case <-n.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if n.err != nil {
		return "", n.err
	}
	return text, nil
}

func newTestEngine(t *testing.T, narrator NarrativeGenerator) (*SessionEngine, repository.InstanceRepo, repository.SessionRepo, *fakeClock) {
	t.Helper()
	database := testutil.NewTestDB(t)
	instances := repository.NewSQLiteInstanceRepo(database)
	sessions := repository.NewSQLiteSessionRepo(database)
	cat, err := catalogue.Load()
	require.NoError(t, err)

	engine := NewSessionEngine(instances, sessions, testutil.NewTestUoW(database), cat, narrator, nil)
	clock := newFakeClock()
	engine.clock = clock.Now
	return engine, instances, sessions, clock
}

func TestSessionEngine_FullVisit(t *testing.T) {
	engine, instances, sessions, clock := newTestEngine(t, nil)
	ctx := context.Background()

	inst := testutil.NewTestInstance("013", "Balcony Chair")
	require.NoError(t, instances.Create(ctx, inst))

	state, err := engine.Start(ctx, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, PhaseShowingEntry, state.Phase)
	assert.Equal(t, "Deep Carrel", state.Session.RoomName)
	assert.Equal(t, DefaultEntryText, state.EntryText)

	activated, err := instances.GetByID(ctx, inst.ID)
	require.NoError(t, err)
	assert.True(t, activated.IsActive)

	require.NoError(t, engine.EnterRoom())
	clock.Advance(25 * time.Minute)

	state, err = engine.Complete(ctx, []string{"felt calm"})
	require.NoError(t, err)
	assert.Equal(t, PhaseShowingExit, state.Phase)
	assert.Equal(t, DefaultExitText, state.ExitText)

	closed, err := sessions.GetByID(ctx, state.Session.ID)
	require.NoError(t, err)
	require.NotNil(t, closed.EndedAt)
	assert.Greater(t, closed.DurationSeconds(), 0)
	assert.Equal(t, []string{"felt calm"}, closed.Observations)

	after, err := instances.GetByID(ctx, inst.ID)
	require.NoError(t, err)
	assert.False(t, after.IsActive)
	assert.InDelta(t, 0.05, after.FamiliarityScore, 1e-9)
	assert.Equal(t, 25, after.TotalMinutes)
	require.NotNil(t, after.LastVisited)

	require.NoError(t, engine.Finalize())
	assert.Equal(t, PhaseFinalized, engine.State().Phase)
}

func TestSessionEngine_StartDeactivatesOthers(t *testing.T) {
	engine, instances, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	other := testutil.NewTestInstance("001", "Morning Mat", testutil.WithActive())
	target := testutil.NewTestInstance("013", "Balcony Chair")
	require.NoError(t, instances.Create(ctx, other))
	require.NoError(t, instances.Create(ctx, target))

	_, err := engine.Start(ctx, target.ID)
	require.NoError(t, err)

	active, err := instances.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1, "never two active instances")
	assert.Equal(t, target.ID, active[0].ID)
}

func TestSessionEngine_SecondStartRejected(t *testing.T) {
	engine, instances, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	inst := testutil.NewTestInstance("013", "Balcony Chair")
	require.NoError(t, instances.Create(ctx, inst))

	_, err := engine.Start(ctx, inst.ID)
	require.NoError(t, err)

	_, err = engine.Start(ctx, inst.ID)
	assert.ErrorIs(t, err, ErrSessionInProgress)
}

func TestSessionEngine_StartUnknownInstanceAbortsEntry(t *testing.T) {
	engine, instances, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	_, err := engine.Start(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, PhaseIdle, engine.State().Phase)

	active, err := instances.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active, "no instance activated when entry aborts")
}

func TestSessionEngine_PauseFreezesElapsed(t *testing.T) {
	engine, instances, _, clock := newTestEngine(t, nil)
	ctx := context.Background()

	inst := testutil.NewTestInstance("013", "Balcony Chair")
	require.NoError(t, instances.Create(ctx, inst))

	_, err := engine.Start(ctx, inst.ID)
	require.NoError(t, err)
	require.NoError(t, engine.EnterRoom())

	clock.Advance(10 * time.Minute)
	require.NoError(t, engine.Pause())
	clock.Advance(30 * time.Minute) // away from the room, clock keeps running
	assert.Equal(t, 10*time.Minute, engine.State().Elapsed)

	require.NoError(t, engine.Resume())
	clock.Advance(5 * time.Minute)
	assert.Equal(t, 15*time.Minute, engine.State().Elapsed)

	state, err := engine.Complete(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, PhaseShowingExit, state.Phase)
}

func TestSessionEngine_WrongPhaseOperations(t *testing.T) {
	engine, instances, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	inst := testutil.NewTestInstance("013", "Balcony Chair")
	require.NoError(t, instances.Create(ctx, inst))

	assert.ErrorIs(t, engine.EnterRoom(), ErrWrongPhase)
	_, err := engine.Complete(ctx, nil)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = engine.Start(ctx, inst.ID)
	require.NoError(t, err)

	// Still showing entry: cannot pause or complete yet.
	assert.ErrorIs(t, engine.Pause(), ErrWrongPhase)
	_, err = engine.Complete(ctx, nil)
	assert.ErrorIs(t, err, ErrWrongPhase)
	assert.ErrorIs(t, engine.Finalize(), ErrWrongPhase)
}

func TestSessionEngine_NarrativeArrives(t *testing.T) {
	narrator := &stubNarrator{entry: "The carrel smells of old paper.", exit: "You shelve the day."}
	engine, instances, _, _ := newTestEngine(t, narrator)
	ctx := context.Background()

	inst := testutil.NewTestInstance("013", "Balcony Chair")
	require.NoError(t, instances.Create(ctx, inst))

	_, err := engine.Start(ctx, inst.ID)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return engine.State().EntryText == narrator.entry
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, engine.EnterRoom())
	_, err = engine.Complete(ctx, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return engine.State().ExitText == narrator.exit
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSessionEngine_LateNarrativeDiscarded(t *testing.T) {
	narrator := &stubNarrator{entry: "Too late.", release: make(chan struct{})}
	engine, instances, _, _ := newTestEngine(t, narrator)
	ctx := context.Background()

	inst := testutil.NewTestInstance("013", "Balcony Chair")
	require.NoError(t, instances.Create(ctx, inst))

	_, err := engine.Start(ctx, inst.ID)
	require.NoError(t, err)

	// Move past the entry screen before the generator answers.
	require.NoError(t, engine.EnterRoom())
	close(narrator.release)

	assert.Never(t, func() bool {
		return engine.State().EntryText == narrator.entry
	}, 300*time.Millisecond, 25*time.Millisecond)
}

func TestSessionEngine_NarratorFailureKeepsFallback(t *testing.T) {
	narrator := &stubNarrator{err: errors.New("model offline")}
	engine, instances, _, _ := newTestEngine(t, narrator)
	ctx := context.Background()

	inst := testutil.NewTestInstance("013", "Balcony Chair")
	require.NoError(t, instances.Create(ctx, inst))

	state, err := engine.Start(ctx, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, DefaultEntryText, state.EntryText)

	assert.Never(t, func() bool {
		return engine.State().EntryText != DefaultEntryText
	}, 300*time.Millisecond, 25*time.Millisecond)
}

type resetRecorder struct {
	calls int
}

func (r *resetRecorder) Reset() { r.calls++ }

func TestSessionEngine_FinalizeClearsTranscript(t *testing.T) {
	engine, instances, _, _ := newTestEngine(t, nil)
	ctx := context.Background()

	recorder := &resetRecorder{}
	engine.AttachTranscript(recorder)

	inst := testutil.NewTestInstance("013", "Balcony Chair")
	require.NoError(t, instances.Create(ctx, inst))

	_, err := engine.Start(ctx, inst.ID)
	require.NoError(t, err)
	require.NoError(t, engine.EnterRoom())
	_, err = engine.Complete(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, engine.Finalize())

	assert.Equal(t, 1, recorder.calls)
	state := engine.State()
	assert.Nil(t, state.Session)
	assert.Zero(t, state.Elapsed)
}
