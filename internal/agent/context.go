package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/calegray/manse/internal/catalogue"
	"github.com/calegray/manse/internal/domain"
	"github.com/calegray/manse/internal/repository"
)

// Bounds on the prompt context. The model sees a fixed window, never the
// whole store.
const (
	contextMaxInstances = 18
	contextMaxPlanned   = 10
	contextMaxTurns     = 6
)

// ContextBuilder assembles the bounded prompt context shared by all agents:
// the wing map, the user's instances, and upcoming plans.
type ContextBuilder struct {
	catalogue *catalogue.Catalogue
	instances repository.InstanceRepo
	planned   repository.PlannedSessionRepo
}

func NewContextBuilder(cat *catalogue.Catalogue, instances repository.InstanceRepo, planned repository.PlannedSessionRepo) *ContextBuilder {
	return &ContextBuilder{catalogue: cat, instances: instances, planned: planned}
}

// Build renders the context block. Repository failures degrade to a smaller
// context rather than failing the turn.
func (b *ContextBuilder) Build(ctx context.Context) string {
	var sb strings.Builder

	sb.WriteString("## The house\n")
	for _, wing := range b.catalogue.Wings() {
		fmt.Fprintf(&sb, "%s: rooms %s-%s\n", wing.Name, wing.Rooms[0].ID, wing.Rooms[len(wing.Rooms)-1].ID)
	}

	if instances, err := b.instances.List(ctx, contextMaxInstances); err == nil && len(instances) > 0 {
		sb.WriteString("\n## Your rooms\n")
		for _, i := range instances {
			sb.WriteString(b.describeInstance(i))
		}
	}

	if planned, err := b.planned.ListUpcoming(ctx, contextMaxPlanned); err == nil && len(planned) > 0 {
		sb.WriteString("\n## Upcoming plans\n")
		for _, p := range planned {
			fmt.Fprintf(&sb, "- %s (%s) on %s, %d min\n",
				p.RoomName, p.DefinitionID, p.ScheduledDate.Format("2006-01-02"), p.DurationMinutes)
		}
	}

	return sb.String()
}

func (b *ContextBuilder) describeInstance(i *domain.RoomInstance) string {
	name := i.DefinitionID
	if def, ok := b.catalogue.ByID(i.DefinitionID); ok {
		name = def.Name
	}
	line := fmt.Sprintf("- [%s] %s \"%s\": familiarity %.2f, health %.2f, %s (level %d), friction %s",
		i.ID, name, i.VariantName, i.FamiliarityScore, i.ComputedHealth(),
		domain.MasteryTitle(i.TotalMinutes), i.MasteryLevel(), i.CurrentFriction)
	if i.IsActive {
		line += ", ACTIVE"
	}
	if i.LastVisited != nil {
		line += ", last visited " + i.LastVisited.Format("2006-01-02")
	}
	if len(i.Constraints) > 0 {
		line += ", constraints: " + strings.Join(i.Constraints, "; ")
	}
	return line + "\n"
}

// renderTurns flattens recent transcript turns into prompt text.
func renderTurns(messages []Message) string {
	if len(messages) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## Conversation so far\n")
	for _, m := range messages {
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
	}
	return sb.String()
}

// todayLine anchors relative date talk in prompts.
func todayLine(now time.Time) string {
	return "Today is " + now.Format("Monday, 2006-01-02") + "."
}
