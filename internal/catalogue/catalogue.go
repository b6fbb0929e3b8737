// Package catalogue provides read-only lookup over the 72 predefined room
// archetypes bundled with the binary. The catalogue is loaded once and never
// mutated.
package catalogue

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/calegray/manse/internal/domain"
)

//go:embed rooms.json
var roomsJSON []byte

// wingFile mirrors the bundled JSON format.
type wingFile struct {
	Wing  string     `json:"wing"`
	Rooms []roomFile `json:"rooms"`
}

type roomFile struct {
	Number      string `json:"number"`
	Name        string `json:"name"`
	PhysicsHint string `json:"physics_hint"`
	Function    string `json:"function"`
}

// Catalogue is the in-memory index of room definitions grouped by wing.
type Catalogue struct {
	wings []domain.Wing
	byID  map[string]*domain.RoomDefinition
	wing  map[string]domain.WingName // definition ID -> wing
}

// Load parses the embedded catalogue. Called once at startup.
func Load() (*Catalogue, error) {
	return load(roomsJSON)
}

func load(data []byte) (*Catalogue, error) {
	var file []wingFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing room catalogue: %w", err)
	}

	c := &Catalogue{
		byID: make(map[string]*domain.RoomDefinition),
		wing: make(map[string]domain.WingName),
	}
	for _, w := range file {
		wing := domain.Wing{Name: domain.WingName(w.Wing)}
		for _, r := range w.Rooms {
			def := domain.RoomDefinition{
				ID:          r.Number,
				Name:        r.Name,
				PhysicsHint: r.PhysicsHint,
				Function:    r.Function,
			}
			if _, dup := c.byID[def.ID]; dup {
				return nil, fmt.Errorf("duplicate room number %q in catalogue", def.ID)
			}
			wing.Rooms = append(wing.Rooms, def)
		}
		c.wings = append(c.wings, wing)
		for i := range wing.Rooms {
			def := &c.wings[len(c.wings)-1].Rooms[i]
			c.byID[def.ID] = def
			c.wing[def.ID] = wing.Name
		}
	}
	return c, nil
}

// ByID looks up a definition by its three-digit number.
func (c *Catalogue) ByID(id string) (*domain.RoomDefinition, bool) {
	def, ok := c.byID[id]
	return def, ok
}

// Wings returns the wings in catalogue order.
func (c *Catalogue) Wings() []domain.Wing {
	return c.wings
}

// WingOf returns the wing a definition belongs to.
func (c *Catalogue) WingOf(definitionID string) (domain.WingName, bool) {
	w, ok := c.wing[definitionID]
	return w, ok
}

// Len is the total number of definitions.
func (c *Catalogue) Len() int {
	return len(c.byID)
}
