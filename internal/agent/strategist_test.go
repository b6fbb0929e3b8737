package agent

import (
	"context"
	"testing"

	"github.com/calegray/manse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrategist_ScheduleSession(t *testing.T) {
	f := newAgentFixture(t)
	raw := `{"message":"Booked.","action":{"type":"schedule_session","data":{
		"definition_id":"013","room_name":"Deep Carrel","date":"2025-09-14","duration_minutes":45}}}`
	s := NewStrategist(&stubLLM{responses: []string{raw}}, f.contextB, f.schedule)

	reply := s.Turn(context.Background(), "book the carrel for Sunday")
	assert.Contains(t, reply, "2025-09-14")

	upcoming, err := f.schedule.ListUpcoming(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, 45, upcoming[0].DurationMinutes)
}

func TestStrategist_BadDateWritesNothing(t *testing.T) {
	f := newAgentFixture(t)
	raw := `{"message":"Booked.","action":{"type":"schedule_session","data":{
		"definition_id":"013","date":"next Tuesday-ish"}}}`
	s := NewStrategist(&stubLLM{responses: []string{raw}}, f.contextB, f.schedule)

	reply := s.Turn(context.Background(), "book it")
	assert.Contains(t, reply, "not ISO-8601")

	upcoming, err := f.schedule.ListUpcoming(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, upcoming)
}

func TestStrategist_ProposeThenApplySeason(t *testing.T) {
	f := newAgentFixture(t)
	ctx := context.Background()
	raw := `{"message":"A season of making.","action":{"type":"propose_season","data":{
		"name":"Winter Forge","primary_wing":"III. Machine Shop","start_date":"2025-09-01","weeks":12,
		"focus_rooms":["Rough Bench","Turning Corner"],
		"blocks":[
			{"definition_id":"025","room_name":"Rough Bench","day_of_week":2,"start_hour":7,"start_minute":0,"duration_minutes":60,"intent":"one joint per morning"},
			{"definition_id":"030","room_name":"Turning Corner","day_of_week":6,"start_hour":18,"start_minute":30}
		]}}}`
	s := NewStrategist(&stubLLM{responses: []string{raw}}, f.contextB, f.schedule)

	reply := s.Turn(ctx, "plan my autumn")
	assert.Contains(t, reply, "Winter Forge")
	assert.Contains(t, reply, "2 recurring blocks")

	// Proposing holds state; nothing is stored yet.
	seasons, err := f.schedule.ListSeasons(ctx)
	require.NoError(t, err)
	assert.Empty(t, seasons)
	require.NotNil(t, s.PendingProposal())
	assert.Equal(t, 84, s.PendingProposal().Season.DurationDays())

	result, err := s.ApplyPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.BlocksCreated)
	assert.Equal(t, domain.WingMachineShop, result.Season.PrimaryWing)
	assert.Nil(t, s.PendingProposal(), "applying clears the pending proposal")

	blocks, err := f.schedule.ListBlocks(ctx, true)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	for _, b := range blocks {
		require.NotNil(t, b.SeasonID)
		assert.Equal(t, result.Season.ID, *b.SeasonID)
	}

	// A block without an explicit duration defaults to 30 minutes.
	byDef := map[string]int{}
	for _, b := range blocks {
		byDef[b.DefinitionID] = b.DurationMinutes
	}
	assert.Equal(t, 60, byDef["025"])
	assert.Equal(t, 30, byDef["030"])
}

func TestStrategist_ApplyWithoutProposal(t *testing.T) {
	f := newAgentFixture(t)
	s := NewStrategist(&stubLLM{responses: []string{"hi"}}, f.contextB, f.schedule)

	_, err := s.ApplyPending(context.Background())
	assert.Error(t, err)
}

func TestStrategist_UnknownWingRejected(t *testing.T) {
	f := newAgentFixture(t)
	raw := `{"message":"Planning.","action":{"type":"propose_season","data":{
		"name":"Lost Season","primary_wing":"VII. Oubliette","start_date":"2025-09-01","weeks":4}}}`
	s := NewStrategist(&stubLLM{responses: []string{raw}}, f.contextB, f.schedule)

	reply := s.Turn(context.Background(), "plan something")
	assert.Contains(t, reply, "unknown wing")
	assert.Nil(t, s.PendingProposal())
}
