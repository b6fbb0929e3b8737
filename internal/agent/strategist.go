package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/calegray/manse/internal/domain"
	"github.com/calegray/manse/internal/llm"
	"github.com/calegray/manse/internal/service"
)

// Strategist is the planning persona. A proposed season is held as pending
// state on the strategist; materializing it is a separate explicit step.
type Strategist struct {
	*Agent

	schedule service.ScheduleService

	mu      sync.Mutex
	pending *domain.FullSeasonProposal
}

func NewStrategist(client llm.Client, contextB *ContextBuilder, schedule service.ScheduleService) *Strategist {
	s := &Strategist{schedule: schedule}
	s.Agent = New("Strategist", strategistPrompt, client, contextB, map[string]HandlerFunc{
		ActionScheduleSession: s.scheduleSession,
		ActionProposeSeason:   s.proposeSeason,
	})
	return s
}

// PendingProposal returns the held proposal, or nil.
func (s *Strategist) PendingProposal() *domain.FullSeasonProposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// ApplyPending materializes the held proposal and clears it. The result
// reports any blocks that failed to write; those are not rolled back.
func (s *Strategist) ApplyPending(ctx context.Context) (*service.SeasonApplyResult, error) {
	s.mu.Lock()
	proposal := s.pending
	s.mu.Unlock()
	if proposal == nil {
		return nil, fmt.Errorf("no pending season proposal")
	}

	result, err := s.schedule.ApplySeasonProposal(ctx, *proposal)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
	return result, nil
}

// DiscardPending drops the held proposal, if any.
func (s *Strategist) DiscardPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

func (s *Strategist) scheduleSession(ctx context.Context, data []byte) (string, error) {
	p, err := decodePayload[scheduleSessionPayload](data)
	if err != nil {
		return "", err
	}
	if err := p.validate(); err != nil {
		return "", err
	}

	date, _ := p.parseDate()
	planned := &domain.PlannedSession{
		DefinitionID:    p.DefinitionID,
		RoomName:        p.RoomName,
		VariantName:     p.VariantName,
		ScheduledDate:   date,
		DurationMinutes: p.DurationMinutes,
		Notes:           p.Notes,
	}
	if err := s.schedule.PlanSession(ctx, planned); err != nil {
		return "", err
	}

	name := p.RoomName
	if name == "" {
		name = "room " + p.DefinitionID
	}
	return fmt.Sprintf("Scheduled %s for %s.", name, date.Format("2006-01-02")), nil
}

func (s *Strategist) proposeSeason(_ context.Context, data []byte) (string, error) {
	p, err := decodePayload[proposeSeasonPayload](data)
	if err != nil {
		return "", err
	}
	if err := p.validate(); err != nil {
		return "", err
	}

	proposal := p.toProposal()
	s.mu.Lock()
	s.pending = &proposal
	s.mu.Unlock()

	return fmt.Sprintf("Proposed season %q: %d weeks of %s with %d recurring blocks. Apply it when you're ready.",
		proposal.Season.Name, p.Weeks, proposal.Season.PrimaryWing, len(proposal.Blocks)), nil
}
