package agent

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/calegray/manse/internal/domain"
)

// Action type tags. The set is closed per agent: an Engineer never schedules
// sessions, a Strategist never edits inventory.
const (
	ActionCreateInstance  = "create_instance"
	ActionUpdateInventory = "update_inventory"
	ActionAddConstraint   = "add_constraint"
	ActionUpdateHealth    = "update_health"
	ActionCreateCollision = "create_collision"
	ActionScheduleSession = "schedule_session"
	ActionProposeSeason   = "propose_season"
)

// validationError marks a surfaceable problem with an action payload. It is
// shown to the user in the chat transcript; nothing is written.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func validationf(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

func decodePayload[T any](data json.RawMessage) (T, error) {
	var payload T
	if len(data) == 0 {
		return payload, validationf("action is missing its data")
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, validationf("action data malformed: %v", err)
	}
	return payload, nil
}

type createInstancePayload struct {
	DefinitionID string               `json:"definition_id"`
	VariantName  string               `json:"variant_name"`
	EvocativeWhy string               `json:"evocative_why"`
	Constraints  []string             `json:"constraints"`
	Liturgy      *domain.Liturgy      `json:"liturgy"`
	Music        *domain.MusicContext `json:"music_context"`
}

func (p createInstancePayload) validate() error {
	if p.DefinitionID == "" {
		return validationf("create_instance requires definition_id")
	}
	if p.VariantName == "" {
		return validationf("create_instance requires variant_name")
	}
	return nil
}

type updateInventoryPayload struct {
	InstanceID string                 `json:"instance_id"`
	Inventory  []domain.InventoryItem `json:"inventory"`
}

func (p updateInventoryPayload) validate() error {
	if p.InstanceID == "" {
		return validationf("update_inventory requires instance_id")
	}
	for _, item := range p.Inventory {
		if item.Name == "" {
			return validationf("inventory items require a name")
		}
		if !domain.ValidItemStatuses[string(item.Status)] {
			return validationf("unknown inventory status %q", item.Status)
		}
	}
	return nil
}

type addConstraintPayload struct {
	InstanceID string `json:"instance_id"`
	Constraint string `json:"constraint"`
}

func (p addConstraintPayload) validate() error {
	if p.InstanceID == "" {
		return validationf("add_constraint requires instance_id")
	}
	if p.Constraint == "" {
		return validationf("add_constraint requires a constraint")
	}
	return nil
}

type updateHealthPayload struct {
	InstanceID  string   `json:"instance_id"`
	HealthScore *float64 `json:"health_score"`
	Reason      string   `json:"reason"`
}

func (p updateHealthPayload) validate() error {
	if p.InstanceID == "" {
		return validationf("update_health requires instance_id")
	}
	if p.HealthScore == nil {
		return validationf("update_health requires health_score")
	}
	return nil
}

type createCollisionPayload struct {
	DefinitionID     string   `json:"definition_id"`
	VariantName      string   `json:"variant_name"`
	UserConstraint   string   `json:"user_constraint"`
	AlienConstraints []string `json:"alien_constraints"`
	Synthesis        string   `json:"synthesis"`
}

func (p createCollisionPayload) validate() error {
	if p.DefinitionID == "" {
		return validationf("create_collision requires definition_id")
	}
	if p.VariantName == "" {
		return validationf("create_collision requires variant_name")
	}
	if len(p.AlienConstraints) == 0 {
		return validationf("create_collision requires alien_constraints")
	}
	if p.Synthesis == "" {
		return validationf("create_collision requires a synthesis")
	}
	return nil
}

// mergedConstraints puts the user's own constraint (when present) ahead of
// the alien ones.
func (p createCollisionPayload) mergedConstraints() []string {
	var out []string
	if p.UserConstraint != "" {
		out = append(out, p.UserConstraint)
	}
	return append(out, p.AlienConstraints...)
}

type scheduleSessionPayload struct {
	DefinitionID    string `json:"definition_id"`
	RoomName        string `json:"room_name"`
	VariantName     string `json:"variant_name"`
	Date            string `json:"date"` // ISO-8601
	DurationMinutes int    `json:"duration_minutes"`
	Notes           string `json:"notes"`
}

func (p scheduleSessionPayload) validate() error {
	if p.DefinitionID == "" {
		return validationf("schedule_session requires definition_id")
	}
	if p.Date == "" {
		return validationf("schedule_session requires a date")
	}
	if _, err := p.parseDate(); err != nil {
		return validationf("schedule_session date %q is not ISO-8601", p.Date)
	}
	return nil
}

func (p scheduleSessionPayload) parseDate() (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, p.Date); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", p.Date)
}

type proposeSeasonPayload struct {
	Name        string              `json:"name"`
	PrimaryWing string              `json:"primary_wing"`
	StartDate   string              `json:"start_date"` // ISO-8601 date
	Weeks       int                 `json:"weeks"`
	FocusRooms  []string            `json:"focus_rooms"`
	Notes       string              `json:"notes"`
	Blocks      []proposeBlockEntry `json:"blocks"`
}

type proposeBlockEntry struct {
	DefinitionID    string `json:"definition_id"`
	RoomName        string `json:"room_name"`
	DayOfWeek       int    `json:"day_of_week"` // 1..7, 1 = Sunday
	StartHour       int    `json:"start_hour"`
	StartMinute     int    `json:"start_minute"`
	DurationMinutes int    `json:"duration_minutes"`
	Intent          string `json:"intent"`
}

func (p proposeSeasonPayload) validate() error {
	if p.Name == "" {
		return validationf("propose_season requires a name")
	}
	if !domain.ValidWingNames[p.PrimaryWing] {
		return validationf("unknown wing %q", p.PrimaryWing)
	}
	if p.StartDate == "" {
		return validationf("propose_season requires start_date")
	}
	if _, err := time.Parse("2006-01-02", p.StartDate); err != nil {
		return validationf("propose_season start_date %q is not ISO-8601", p.StartDate)
	}
	if p.Weeks <= 0 {
		return validationf("propose_season requires weeks > 0")
	}
	for _, b := range p.Blocks {
		if b.DefinitionID == "" {
			return validationf("season blocks require definition_id")
		}
		if b.DayOfWeek < 1 || b.DayOfWeek > 7 {
			return validationf("season block day_of_week must be 1..7, got %d", b.DayOfWeek)
		}
		if b.StartHour < 0 || b.StartHour > 23 {
			return validationf("season block start_hour must be 0..23, got %d", b.StartHour)
		}
	}
	return nil
}

// toProposal builds the pending proposal. IDs and timestamps are assigned at
// apply time.
func (p proposeSeasonPayload) toProposal() domain.FullSeasonProposal {
	start, _ := time.Parse("2006-01-02", p.StartDate)
	proposal := domain.FullSeasonProposal{
		Season: domain.Season{
			Name:        p.Name,
			PrimaryWing: domain.WingName(p.PrimaryWing),
			StartDate:   start,
			EndDate:     start.AddDate(0, 0, p.Weeks*7),
			FocusRooms:  p.FocusRooms,
			Notes:       p.Notes,
		},
	}
	for _, b := range p.Blocks {
		duration := b.DurationMinutes
		if duration <= 0 {
			duration = 30
		}
		proposal.Blocks = append(proposal.Blocks, domain.RecurringBlock{
			DefinitionID:    b.DefinitionID,
			RoomName:        b.RoomName,
			DayOfWeek:       b.DayOfWeek,
			StartHour:       b.StartHour,
			StartMinute:     b.StartMinute,
			DurationMinutes: duration,
			Intent:          b.Intent,
			IsActive:        true,
		})
	}
	return proposal
}
