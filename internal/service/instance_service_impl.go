package service

import (
	"context"
	"fmt"
	"time"

	"github.com/calegray/manse/internal/catalogue"
	"github.com/calegray/manse/internal/domain"
	"github.com/calegray/manse/internal/repository"
	"github.com/google/uuid"
)

type instanceService struct {
	instances repository.InstanceRepo
	catalogue *catalogue.Catalogue
	observer  UseCaseObserver
}

func NewInstanceService(instances repository.InstanceRepo, cat *catalogue.Catalogue, observer UseCaseObserver) InstanceService {
	if observer == nil {
		observer = NoopUseCaseObserver{}
	}
	return &instanceService{instances: instances, catalogue: cat, observer: observer}
}

func (s *instanceService) Create(ctx context.Context, i *domain.RoomInstance) error {
	if _, ok := s.catalogue.ByID(i.DefinitionID); !ok {
		return fmt.Errorf("room definition %q: %w", i.DefinitionID, repository.ErrNotFound)
	}
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	i.CreatedAt = now
	i.UpdatedAt = now
	i.ClampScores()
	if i.CurrentFriction == "" {
		i.CurrentFriction = domain.FrictionLow
	}
	if !domain.ValidFrictionLevels[string(i.CurrentFriction)] {
		return fmt.Errorf("invalid friction level: %s", i.CurrentFriction)
	}
	return s.instances.Create(ctx, i)
}

func (s *instanceService) GetByID(ctx context.Context, id string) (*domain.RoomInstance, error) {
	return s.instances.GetByID(ctx, id)
}

func (s *instanceService) List(ctx context.Context, limit int) ([]*domain.RoomInstance, error) {
	return s.instances.List(ctx, limit)
}

func (s *instanceService) Update(ctx context.Context, i *domain.RoomInstance) error {
	if !domain.ValidFrictionLevels[string(i.CurrentFriction)] {
		return fmt.Errorf("invalid friction level: %s", i.CurrentFriction)
	}
	i.ClampScores()
	i.UpdatedAt = time.Now().UTC()
	return s.instances.Update(ctx, i)
}

// Delete removes the instance only. Historical sessions keep their snapshot
// fields and their now-dangling instance id.
func (s *instanceService) Delete(ctx context.Context, id string) error {
	return s.instances.Delete(ctx, id)
}

// Activate flips the target on after flipping every other active instance
// off. The flips are independent sequential writes: a failure mid-sequence
// can leave zero active instances, never two.
func (s *instanceService) Activate(ctx context.Context, id string) error {
	started := time.Now()
	err := s.activate(ctx, id)
	observe(ctx, s.observer, "instance.activate", started, err, map[string]any{"instance_id": id})
	return err
}

func (s *instanceService) activate(ctx context.Context, id string) error {
	target, err := s.instances.GetByID(ctx, id)
	if err != nil {
		return err
	}

	active, err := s.instances.ListActive(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, other := range active {
		if other.ID == id {
			continue
		}
		other.IsActive = false
		other.UpdatedAt = now
		if err := s.instances.Update(ctx, other); err != nil {
			return fmt.Errorf("deactivating %s: %w", other.ID, err)
		}
	}

	target.IsActive = true
	target.UpdatedAt = now
	return s.instances.Update(ctx, target)
}

func (s *instanceService) AddObservation(ctx context.Context, id string, note string) error {
	i, err := s.instances.GetByID(ctx, id)
	if err != nil {
		return err
	}
	i.Observations = append(i.Observations, note)
	i.UpdatedAt = time.Now().UTC()
	return s.instances.Update(ctx, i)
}
