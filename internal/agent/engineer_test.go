package agent

import (
	"context"
	"testing"

	"github.com/calegray/manse/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineer_CreateInstance(t *testing.T) {
	f := newAgentFixture(t)
	raw := `{"message":"Building your carrel.","action":{"type":"create_instance","data":{
		"definition_id":"013","variant_name":"Balcony Chair","evocative_why":"morning pages with coffee"}}}`
	a := NewEngineer(&stubLLM{responses: []string{raw}}, f.contextB, f.instances)

	reply := a.Turn(context.Background(), "set up a reading spot")

	assert.Contains(t, reply, "Building your carrel.")
	assert.Contains(t, reply, `"Balcony Chair"`)

	instances, err := f.instRepo.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, "013", instances[0].DefinitionID)
	assert.Equal(t, "morning pages with coffee", instances[0].EvocativeWhy)
}

func TestEngineer_MissingFieldWritesNothing(t *testing.T) {
	f := newAgentFixture(t)
	raw := `{"message":"On it.","action":{"type":"create_instance","data":{"definition_id":"013"}}}`
	a := NewEngineer(&stubLLM{responses: []string{raw}}, f.contextB, f.instances)

	reply := a.Turn(context.Background(), "set up a reading spot")

	assert.Contains(t, reply, "variant_name")
	instances, err := f.instRepo.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, instances)
}

func TestEngineer_UnknownDefinitionSurfaced(t *testing.T) {
	f := newAgentFixture(t)
	raw := `{"message":"Sure.","action":{"type":"create_instance","data":{"definition_id":"400","variant_name":"Nowhere"}}}`
	a := NewEngineer(&stubLLM{responses: []string{raw}}, f.contextB, f.instances)

	reply := a.Turn(context.Background(), "build room 400")

	assert.Contains(t, reply, "didn't save")
	instances, err := f.instRepo.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, instances)
}

func TestEngineer_UpdateInventory(t *testing.T) {
	f := newAgentFixture(t)
	ctx := context.Background()

	inst := &domain.RoomInstance{DefinitionID: "025", VariantName: "Garage Bench"}
	require.NoError(t, f.instances.Create(ctx, inst))

	raw := `{"message":"Noted the broken vise.","action":{"type":"update_inventory","data":{
		"instance_id":"` + inst.ID + `",
		"inventory":[{"name":"vise","status":"broken","is_critical":true},{"name":"lamp","status":"operational","is_critical":false}]}}}`
	a := NewEngineer(&stubLLM{responses: []string{raw}}, f.contextB, f.instances)

	reply := a.Turn(ctx, "the vise broke")
	assert.Contains(t, reply, "2 items")

	got, err := f.instRepo.GetByID(ctx, inst.ID)
	require.NoError(t, err)
	require.Len(t, got.Inventory, 2)
	assert.Equal(t, domain.ItemBroken, got.Inventory[0].Status)
	assert.Equal(t, 0.0, got.ComputedHealth(), "broken critical item zeroes effective health")
}

func TestEngineer_UpdateHealthClamps(t *testing.T) {
	f := newAgentFixture(t)
	ctx := context.Background()

	inst := &domain.RoomInstance{DefinitionID: "025", VariantName: "Garage Bench"}
	require.NoError(t, f.instances.Create(ctx, inst))

	raw := `{"message":"Marking it down.","action":{"type":"update_health","data":{
		"instance_id":"` + inst.ID + `","health_score":-0.4,"reason":"dust everywhere"}}}`
	a := NewEngineer(&stubLLM{responses: []string{raw}}, f.contextB, f.instances)

	a.Turn(ctx, "the bench is a mess")

	got, err := f.instRepo.GetByID(ctx, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.HealthScore)
}

func TestEngineer_CreateCollisionMergesConstraints(t *testing.T) {
	f := newAgentFixture(t)
	raw := `{"message":"A stranger's rules, grafted on.","action":{"type":"create_collision","data":{
		"definition_id":"013","variant_name":"Borrowed Carrel",
		"user_constraint":"no phone",
		"alien_constraints":["write only in pencil","leave one margin note"],
		"synthesis":"reading as correspondence with a stranger"}}}`
	a := NewEngineer(&stubLLM{responses: []string{raw}}, f.contextB, f.instances)

	reply := a.Turn(context.Background(), "surprise me")
	assert.Contains(t, reply, "3 constraints")

	instances, err := f.instRepo.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	got := instances[0]
	assert.Equal(t, []string{"no phone", "write only in pencil", "leave one margin note"}, got.Constraints)
	assert.Equal(t, "reading as correspondence with a stranger", got.EvocativeWhy)
}

func TestEngineer_CollisionWithoutUserConstraint(t *testing.T) {
	f := newAgentFixture(t)
	raw := `{"message":"Done.","action":{"type":"create_collision","data":{
		"definition_id":"013","variant_name":"Borrowed Carrel",
		"alien_constraints":["write only in pencil"],
		"synthesis":"borrowed rules"}}}`
	a := NewEngineer(&stubLLM{responses: []string{raw}}, f.contextB, f.instances)

	a.Turn(context.Background(), "surprise me")

	instances, err := f.instRepo.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, []string{"write only in pencil"}, instances[0].Constraints)
}

// Re-running a validated action is two independent writes.
func TestEngineer_RepeatActionWritesTwice(t *testing.T) {
	f := newAgentFixture(t)
	raw := `{"message":"Done.","action":{"type":"create_instance","data":{"definition_id":"013","variant_name":"Desk"}}}`
	a := NewEngineer(&stubLLM{responses: []string{raw, raw}}, f.contextB, f.instances)

	a.Turn(context.Background(), "build it")
	a.Turn(context.Background(), "again")

	instances, err := f.instRepo.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, instances, 2)
}
