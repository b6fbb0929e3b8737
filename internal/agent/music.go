package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/calegray/manse/internal/domain"
	"github.com/calegray/manse/internal/llm"
)

// MusicGenerator turns a room's sonic identity into an album concept and
// per-track generation prompts. It never plays anything; it writes prompts.
type MusicGenerator struct {
	client llm.Client
	clock  func() time.Time
}

func NewMusicGenerator(client llm.Client) *MusicGenerator {
	return &MusicGenerator{
		client: client,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

const musicSystemPrompt = `You design concept albums for rooms: a title, a one-paragraph concept,
and tracks that follow the narrative arc of a visit from arrival to
departure. Each track gets a music-generation prompt naming instruments,
tempo, and mood. Reply with JSON only:
{"album_title": "...", "album_concept": "...",
 "tracks": [{"track_number": 1, "title": "...", "prompt": "...", "narrative_phase": "..."}]}`

type albumConceptOut struct {
	AlbumTitle   string         `json:"album_title"`
	AlbumConcept string         `json:"album_concept"`
	Tracks       []domain.Track `json:"tracks"`
}

// GenerateAlbumConcept fills the instance's music context and playlist from
// a fresh concept. The caller persists the instance.
func (g *MusicGenerator) GenerateAlbumConcept(ctx context.Context, instance *domain.RoomInstance) error {
	resp, err := g.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskMusic,
		SystemPrompt: musicSystemPrompt,
		UserPrompt:   g.describeContext(instance),
	})
	if err != nil {
		return err
	}

	concept, err := llm.ExtractJSON[albumConceptOut](resp.Text, func(c albumConceptOut) error {
		if c.AlbumTitle == "" {
			return fmt.Errorf("album_title required")
		}
		if len(c.Tracks) == 0 {
			return fmt.Errorf("at least one track required")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if instance.Music == nil {
		instance.Music = &domain.MusicContext{}
	}
	instance.Music.AlbumTitle = concept.AlbumTitle
	instance.Music.AlbumConcept = concept.AlbumConcept
	instance.Playlist = concept.Tracks
	now := g.clock()
	instance.PlaylistGenAt = &now
	return nil
}

// TrackPrompt returns the generation prompt for one track: the stored
// concept's prompt when present, otherwise a fallback synthesized from the
// music context.
func (g *MusicGenerator) TrackPrompt(instance *domain.RoomInstance, trackNumber int) string {
	for _, t := range instance.Playlist {
		if t.TrackNumber == trackNumber && t.Prompt != "" {
			return t.Prompt
		}
	}
	return fallbackTrackPrompt(instance.Music, trackNumber, len(instance.Playlist))
}

// fallbackTrackPrompt builds a usable prompt from whatever context fields
// exist, placing the track on the visit's arc by its position.
func fallbackTrackPrompt(music *domain.MusicContext, trackNumber, trackCount int) string {
	var parts []string
	if music != nil {
		if music.Scene != "" {
			parts = append(parts, "Scene: "+music.Scene)
		}
		if music.Location != "" {
			parts = append(parts, "Location: "+music.Location)
		}
		if len(music.Instruments) > 0 {
			parts = append(parts, "Instruments: "+strings.Join(music.Instruments, ", "))
		}
		if music.Mood != "" {
			parts = append(parts, "Mood: "+music.Mood)
		}
		if music.Tempo != "" {
			parts = append(parts, "Tempo: "+music.Tempo)
		}
		if len(music.Somatic) > 0 {
			parts = append(parts, "Body: "+strings.Join(music.Somatic, ", "))
		}
		if len(music.FoundSounds) > 0 {
			parts = append(parts, "Found sounds: "+strings.Join(music.FoundSounds, ", "))
		}
		if music.NarrativeArc != "" {
			parts = append(parts, "Arc: "+music.NarrativeArc)
		}
	}
	parts = append(parts, "Phase: "+narrativePhase(trackNumber, trackCount))
	return strings.Join(parts, ". ")
}

// narrativePhase places a track on the arrival/deepening/departure arc.
func narrativePhase(trackNumber, trackCount int) string {
	if trackCount <= 0 {
		trackCount = 1
	}
	switch {
	case trackNumber <= 1:
		return "arrival"
	case trackNumber >= trackCount:
		return "departure"
	default:
		return "deepening"
	}
}

func (g *MusicGenerator) describeContext(instance *domain.RoomInstance) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Design an album for %q.\n", instance.VariantName)
	if instance.EvocativeWhy != "" {
		fmt.Fprintf(&sb, "Why the room exists: %s\n", instance.EvocativeWhy)
	}
	if m := instance.Music; m != nil {
		if m.Scene != "" {
			fmt.Fprintf(&sb, "Scene: %s\n", m.Scene)
		}
		if m.Location != "" {
			fmt.Fprintf(&sb, "Location: %s\n", m.Location)
		}
		if len(m.Instruments) > 0 {
			fmt.Fprintf(&sb, "Instruments: %s\n", strings.Join(m.Instruments, ", "))
		}
		if m.Mood != "" {
			fmt.Fprintf(&sb, "Mood: %s\n", m.Mood)
		}
		if m.Tempo != "" {
			fmt.Fprintf(&sb, "Tempo: %s\n", m.Tempo)
		}
		if m.NarrativeArc != "" {
			fmt.Fprintf(&sb, "Narrative arc: %s\n", m.NarrativeArc)
		}
	}
	return sb.String()
}
