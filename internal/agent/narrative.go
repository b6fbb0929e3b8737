package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/calegray/manse/internal/catalogue"
	"github.com/calegray/manse/internal/domain"
	"github.com/calegray/manse/internal/llm"
)

// Narrator generates entry/exit transition text and answers in-room
// questions. Single attempt per call; callers fall back to fixed text.
type Narrator struct {
	client    llm.Client
	catalogue *catalogue.Catalogue
}

func NewNarrator(client llm.Client, cat *catalogue.Catalogue) *Narrator {
	return &Narrator{client: client, catalogue: cat}
}

const narratorSystemPrompt = `You write brief second-person transition text for rooms in a private
manse. Two or three sentences, present tense, sensory and specific. No
preamble, no quotation marks, just the text.`

func (n *Narrator) EntryText(ctx context.Context, instance *domain.RoomInstance) (string, error) {
	prompt := fmt.Sprintf("The user is about to enter %s.\nWrite the moment of crossing the threshold.", n.describe(instance))
	if instance.Liturgy != nil && instance.Liturgy.Entry != "" {
		prompt += "\nTheir entry ritual: " + instance.Liturgy.Entry
	}
	return n.generate(ctx, prompt)
}

func (n *Narrator) ExitText(ctx context.Context, instance *domain.RoomInstance, minutes int) (string, error) {
	prompt := fmt.Sprintf("The user is leaving %s after %d minutes.\nWrite the moment of closing the door.", n.describe(instance), minutes)
	if instance.Liturgy != nil && instance.Liturgy.Exit != "" {
		prompt += "\nTheir exit ritual: " + instance.Liturgy.Exit
	}
	return n.generate(ctx, prompt)
}

// Guidance answers a question asked from inside the room, optionally about
// a photo of the space (base64-encoded).
func (n *Narrator) Guidance(ctx context.Context, instance *domain.RoomInstance, question string, imageB64 string) (string, error) {
	var images []string
	if imageB64 != "" {
		images = []string{imageB64}
	}
	prompt := fmt.Sprintf("The user is inside %s and asks: %s", n.describe(instance), question)
	resp, err := n.client.Generate(ctx, llm.GenerateRequest{
		Task:       llm.TaskGuidance,
		UserPrompt: prompt,
		Images:     images,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

func (n *Narrator) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := n.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskNarrative,
		SystemPrompt: narratorSystemPrompt,
		UserPrompt:   prompt,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

func (n *Narrator) describe(instance *domain.RoomInstance) string {
	name := instance.DefinitionID
	function := ""
	if def, ok := n.catalogue.ByID(instance.DefinitionID); ok {
		name = def.Name
		function = def.Function
	}
	desc := fmt.Sprintf("%q, their variant of the %s", instance.VariantName, name)
	if function != "" {
		desc += " (" + function + ")"
	}
	if instance.EvocativeWhy != "" {
		desc += ". Why it exists: " + instance.EvocativeWhy
	}
	return desc
}
