package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/calegray/manse/internal/catalogue"
	"github.com/calegray/manse/internal/llm"
	"github.com/calegray/manse/internal/repository"
	"github.com/calegray/manse/internal/service"
	"github.com/calegray/manse/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubLLM returns canned responses in order, then repeats the last one.
type stubLLM struct {
	responses []string
	err       error
	calls     int
}

func (s *stubLLM) Generate(_ context.Context, _ llm.GenerateRequest) (*llm.GenerateResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	idx := s.calls - 1
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return &llm.GenerateResponse{Text: s.responses[idx], Model: "stub"}, nil
}

func (s *stubLLM) Available(context.Context) bool { return s.err == nil }

type agentFixture struct {
	instances service.InstanceService
	instRepo  repository.InstanceRepo
	schedule  service.ScheduleService
	contextB  *ContextBuilder
}

func newAgentFixture(t *testing.T) *agentFixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	instRepo := repository.NewSQLiteInstanceRepo(database)
	planned := repository.NewSQLitePlannedSessionRepo(database)
	blocks := repository.NewSQLiteRecurringBlockRepo(database)
	seasons := repository.NewSQLiteSeasonRepo(database)
	cat, err := catalogue.Load()
	require.NoError(t, err)

	return &agentFixture{
		instances: service.NewInstanceService(instRepo, cat, nil),
		instRepo:  instRepo,
		schedule:  service.NewScheduleService(planned, blocks, seasons, cat, nil),
		contextB:  NewContextBuilder(cat, instRepo, planned),
	}
}

func TestAgent_FallbackOnModelFailure(t *testing.T) {
	f := newAgentFixture(t)
	a := NewNavigator(&stubLLM{err: errors.New("connection refused")}, f.contextB)

	reply := a.Turn(context.Background(), "where should I go?")

	assert.Equal(t, FallbackMessage, reply)
	// The failed turn still lands in the transcript: user + assistant.
	assert.Equal(t, 2, a.Transcript().Len())
}

func TestAgent_ProseOnlyReply(t *testing.T) {
	f := newAgentFixture(t)
	a := NewNavigator(&stubLLM{responses: []string{"Try the Observatory before dusk."}}, f.contextB)

	reply := a.Turn(context.Background(), "where should I go?")

	assert.Equal(t, "Try the Observatory before dusk.", reply)
}

func TestAgent_NavigatorRefusesActions(t *testing.T) {
	f := newAgentFixture(t)
	raw := `{"message":"I'll build it.","action":{"type":"create_instance","data":{"definition_id":"013","variant_name":"Desk"}}}`
	a := NewNavigator(&stubLLM{responses: []string{raw}}, f.contextB)

	reply := a.Turn(context.Background(), "make me a room")

	assert.Contains(t, reply, "I'll build it.")
	assert.Contains(t, reply, `can't do "create_instance"`)

	instances, err := f.instRepo.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, instances, "refused action writes nothing")
}

func TestAgent_OneTranscriptMessagePerTurn(t *testing.T) {
	f := newAgentFixture(t)
	a := NewNavigator(&stubLLM{responses: []string{
		"First answer.",
		`{"message":"Second answer.","action":null}`,
	}}, f.contextB)

	a.Turn(context.Background(), "one")
	a.Turn(context.Background(), "two")

	msgs := a.Transcript().Recent(10)
	require.Len(t, msgs, 4)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, RoleAssistant, msgs[1].Role)
	assert.Equal(t, RoleUser, msgs[2].Role)
	assert.Equal(t, "Second answer.", msgs[3].Content)
}

func TestAgent_EmptyEnvelopeMessageFallsBack(t *testing.T) {
	f := newAgentFixture(t)
	a := NewNavigator(&stubLLM{responses: []string{""}}, f.contextB)

	reply := a.Turn(context.Background(), "hello?")
	assert.Equal(t, FallbackMessage, reply)
}
