package domain

import "time"

// PlaylistLifetime is how long a generated playlist stays fresh.
const PlaylistLifetime = 4 * 7 * 24 * time.Hour

// FamiliarityPerVisit is the familiarity bump applied when a session ends.
const FamiliarityPerVisit = 0.05

type InventoryItem struct {
	Name       string     `json:"name"`
	Status     ItemStatus `json:"status"`
	IsCritical bool       `json:"is_critical"`
}

// Liturgy is the prescribed entry/step/exit ritual text attached to an instance.
type Liturgy struct {
	Entry string   `json:"entry"`
	Steps []string `json:"steps"`
	Exit  string   `json:"exit"`
}

type MasteryDimension struct {
	Name        string `json:"name"`
	Level       int    `json:"level"` // 1..10
	Description string `json:"description"`
}

type Track struct {
	TrackNumber    int    `json:"track_number"`
	Title          string `json:"title"`
	Prompt         string `json:"prompt"`
	NarrativePhase string `json:"narrative_phase,omitempty"`
	URL            string `json:"url,omitempty"`
	DurationSec    int    `json:"duration_sec,omitempty"`
}

// MusicContext carries the sonic identity of an instance, used to seed
// album-concept and per-track prompt generation.
type MusicContext struct {
	Scene        string   `json:"scene,omitempty"`
	Location     string   `json:"location,omitempty"`
	Instruments  []string `json:"instruments,omitempty"`
	Mood         string   `json:"mood,omitempty"`
	Tempo        string   `json:"tempo,omitempty"`
	Somatic      []string `json:"somatic,omitempty"`
	FoundSounds  []string `json:"found_sounds,omitempty"`
	NarrativeArc string   `json:"narrative_arc,omitempty"`
	AlbumTitle   string   `json:"album_title,omitempty"`
	AlbumConcept string   `json:"album_concept,omitempty"`
}

// RoomInstance is a user's personal, mutable instantiation of a catalogue
// room definition: a physical location, an inventory, and rules.
type RoomInstance struct {
	ID               string
	DefinitionID     string
	VariantName      string
	EvocativeWhy     string
	FamiliarityScore float64 // [0,1], clamped on write
	HealthScore      float64 // [0,1], clamped on write
	CurrentFriction  FrictionLevel
	Inventory        []InventoryItem
	Constraints      []string
	Liturgy          *Liturgy
	IsActive         bool
	TotalMinutes     int
	LastVisited      *time.Time
	MasteryDims      []MasteryDimension
	Playlist         []Track
	PlaylistGenAt    *time.Time
	Music            *MusicContext
	Observations     []string // instance-level log, distinct from per-session observations
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ClampScores forces familiarity and health back into [0,1]. Called by every
// write path so stored scores never escape the unit interval.
func (i *RoomInstance) ClampScores() {
	i.FamiliarityScore = clamp01(i.FamiliarityScore)
	i.HealthScore = clamp01(i.HealthScore)
}

// ComputedHealth derives effective health at read time: the stored score
// scaled by the fraction of critical inventory that is operational. Without
// critical items it is the stored score unchanged.
func (i *RoomInstance) ComputedHealth() float64 {
	critical := 0
	operational := 0
	for _, item := range i.Inventory {
		if !item.IsCritical {
			continue
		}
		critical++
		if item.Status == ItemOperational {
			operational++
		}
	}
	if critical == 0 {
		return i.HealthScore
	}
	return i.HealthScore * float64(operational) / float64(critical)
}

// masteryThresholds are the lower bounds (in total minutes) of the ten
// mastery bands. Minutes at or above the last threshold saturate at level 10.
var masteryThresholds = [10]int{0, 60, 180, 420, 900, 1800, 3600, 7200, 15000, 30000}

var masteryTitles = [10]string{
	"Stranger", "Visitor", "Guest", "Regular", "Familiar",
	"Resident", "Keeper", "Steward", "Adept", "Master",
}

// MasteryLevel maps accumulated minutes onto the ten-band mastery scale.
// The result is monotonic in totalMinutes and each band's lower bound maps
// exactly to its level.
func MasteryLevel(totalMinutes int) int {
	level := 1
	for k := 1; k < len(masteryThresholds); k++ {
		if totalMinutes >= masteryThresholds[k] {
			level = k + 1
		}
	}
	return level
}

// MasteryTitle names the band for a minute total ("Stranger" .. "Master").
func MasteryTitle(totalMinutes int) string {
	return masteryTitles[MasteryLevel(totalMinutes)-1]
}

// MasteryLevel returns the instance's current mastery band.
func (i *RoomInstance) MasteryLevel() int {
	return MasteryLevel(i.TotalMinutes)
}

// IsPlaylistExpired reports whether the playlist is older than
// PlaylistLifetime at the given instant. False when never generated.
func (i *RoomInstance) IsPlaylistExpired(now time.Time) bool {
	if i.PlaylistGenAt == nil {
		return false
	}
	return now.Sub(*i.PlaylistGenAt) > PlaylistLifetime
}

// CloseVisit applies the metric effects of one completed session: the
// familiarity bump, the mastery-minute accrual, and the visit timestamp.
// Callers persist the instance afterwards.
func (i *RoomInstance) CloseVisit(minutes int, now time.Time) {
	i.FamiliarityScore = clamp01(i.FamiliarityScore + FamiliarityPerVisit)
	if minutes > 0 {
		i.TotalMinutes += minutes
	}
	i.LastVisited = &now
	i.IsActive = false
	i.UpdatedAt = now
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
