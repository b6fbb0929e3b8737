package agent

import (
	"context"
	"fmt"

	"github.com/calegray/manse/internal/domain"
	"github.com/calegray/manse/internal/llm"
	"github.com/calegray/manse/internal/service"
)

// NewEngineer builds the room-construction persona. Every successful action
// is exactly one write through the instance service.
func NewEngineer(client llm.Client, contextB *ContextBuilder, instances service.InstanceService) *Agent {
	h := &engineerHandlers{instances: instances}
	return New("Engineer", engineerPrompt, client, contextB, map[string]HandlerFunc{
		ActionCreateInstance:  h.createInstance,
		ActionUpdateInventory: h.updateInventory,
		ActionAddConstraint:   h.addConstraint,
		ActionUpdateHealth:    h.updateHealth,
		ActionCreateCollision: h.createCollision,
	})
}

type engineerHandlers struct {
	instances service.InstanceService
}

func (h *engineerHandlers) createInstance(ctx context.Context, data []byte) (string, error) {
	p, err := decodePayload[createInstancePayload](data)
	if err != nil {
		return "", err
	}
	if err := p.validate(); err != nil {
		return "", err
	}

	instance := &domain.RoomInstance{
		DefinitionID: p.DefinitionID,
		VariantName:  p.VariantName,
		EvocativeWhy: p.EvocativeWhy,
		HealthScore:  1.0,
		Constraints:  p.Constraints,
		Liturgy:      p.Liturgy,
		Music:        p.Music,
	}
	if err := h.instances.Create(ctx, instance); err != nil {
		return "", err
	}
	return fmt.Sprintf("Built %q on room %s (instance %s).", p.VariantName, p.DefinitionID, instance.ID), nil
}

func (h *engineerHandlers) updateInventory(ctx context.Context, data []byte) (string, error) {
	p, err := decodePayload[updateInventoryPayload](data)
	if err != nil {
		return "", err
	}
	if err := p.validate(); err != nil {
		return "", err
	}

	instance, err := h.instances.GetByID(ctx, p.InstanceID)
	if err != nil {
		return "", err
	}
	instance.Inventory = p.Inventory
	if err := h.instances.Update(ctx, instance); err != nil {
		return "", err
	}
	return fmt.Sprintf("Inventory of %q now lists %d items.", instance.VariantName, len(p.Inventory)), nil
}

func (h *engineerHandlers) addConstraint(ctx context.Context, data []byte) (string, error) {
	p, err := decodePayload[addConstraintPayload](data)
	if err != nil {
		return "", err
	}
	if err := p.validate(); err != nil {
		return "", err
	}

	instance, err := h.instances.GetByID(ctx, p.InstanceID)
	if err != nil {
		return "", err
	}
	instance.Constraints = append(instance.Constraints, p.Constraint)
	if err := h.instances.Update(ctx, instance); err != nil {
		return "", err
	}
	return fmt.Sprintf("Added to %q: %s", instance.VariantName, p.Constraint), nil
}

func (h *engineerHandlers) updateHealth(ctx context.Context, data []byte) (string, error) {
	p, err := decodePayload[updateHealthPayload](data)
	if err != nil {
		return "", err
	}
	if err := p.validate(); err != nil {
		return "", err
	}

	instance, err := h.instances.GetByID(ctx, p.InstanceID)
	if err != nil {
		return "", err
	}
	instance.HealthScore = *p.HealthScore
	if err := h.instances.Update(ctx, instance); err != nil {
		return "", err
	}
	return fmt.Sprintf("Health of %q set to %.2f.", instance.VariantName, instance.HealthScore), nil
}

// createCollision builds a new instance whose constraints merge the user's
// own constraint (first, when given) with the alien ones, and whose
// evocative why is the synthesis text.
func (h *engineerHandlers) createCollision(ctx context.Context, data []byte) (string, error) {
	p, err := decodePayload[createCollisionPayload](data)
	if err != nil {
		return "", err
	}
	if err := p.validate(); err != nil {
		return "", err
	}

	instance := &domain.RoomInstance{
		DefinitionID: p.DefinitionID,
		VariantName:  p.VariantName,
		EvocativeWhy: p.Synthesis,
		HealthScore:  1.0,
		Constraints:  p.mergedConstraints(),
	}
	if err := h.instances.Create(ctx, instance); err != nil {
		return "", err
	}
	return fmt.Sprintf("Collision %q built on room %s with %d constraints.",
		p.VariantName, p.DefinitionID, len(instance.Constraints)), nil
}
