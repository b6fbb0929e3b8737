package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/calegray/manse/internal/llm"
)

// FallbackMessage is the reply when the model cannot be reached. One
// attempt, no retry; the turn still produces exactly one assistant message.
const FallbackMessage = "Connection issue. Try again."

// HandlerFunc validates and executes one action, returning a confirmation
// that names the affected entity. A returned *validationError is shown to
// the user; any other error is reported as a failed write.
type HandlerFunc func(ctx context.Context, data []byte) (string, error)

// Agent is a conversational persona over a closed set of actions. The three
// configured personas share this turn pipeline and differ only in their
// system prompt and handler registry.
type Agent struct {
	Name         string
	systemPrompt string
	client       llm.Client
	transcript   *Transcript
	contextB     *ContextBuilder
	handlers     map[string]HandlerFunc
	clock        func() time.Time
}

func New(name, systemPrompt string, client llm.Client, contextB *ContextBuilder, handlers map[string]HandlerFunc) *Agent {
	if handlers == nil {
		handlers = map[string]HandlerFunc{}
	}
	return &Agent{
		Name:         name,
		systemPrompt: systemPrompt,
		client:       client,
		transcript:   NewTranscript(),
		contextB:     contextB,
		handlers:     handlers,
		clock:        func() time.Time { return time.Now().UTC() },
	}
}

// Transcript exposes the conversation history for display and for clearing
// on session finalize.
func (a *Agent) Transcript() *Transcript {
	return a.transcript
}

// Turn runs one conversation turn: context build, model call, envelope
// parse, action dispatch. It always appends exactly one assistant message
// and returns it.
func (a *Agent) Turn(ctx context.Context, userText string) string {
	recent := a.transcript.Recent(contextMaxTurns)
	a.transcript.Append(RoleUser, userText)

	prompt := a.buildPrompt(ctx, recent, userText)
	resp, err := a.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskChat,
		SystemPrompt: a.systemPrompt,
		UserPrompt:   prompt,
	})
	if err != nil {
		a.transcript.Append(RoleAssistant, FallbackMessage)
		return FallbackMessage
	}

	message, action := parseEnvelope(resp.Text)
	reply := message
	if action != nil {
		outcome := a.dispatch(ctx, action)
		reply = joinReply(message, outcome)
	}
	if strings.TrimSpace(reply) == "" {
		reply = FallbackMessage
	}

	a.transcript.Append(RoleAssistant, reply)
	return reply
}

func (a *Agent) buildPrompt(ctx context.Context, recent []Message, userText string) string {
	var sb strings.Builder
	sb.WriteString(todayLine(a.clock()))
	sb.WriteString("\n\n")
	if a.contextB != nil {
		sb.WriteString(a.contextB.Build(ctx))
		sb.WriteString("\n")
	}
	if turns := renderTurns(recent); turns != "" {
		sb.WriteString(turns)
		sb.WriteString("\n")
	}
	sb.WriteString("user: ")
	sb.WriteString(userText)
	return sb.String()
}

// dispatch routes a parsed action to its handler. An unknown tag or a
// validation failure becomes a visible message; nothing is written.
func (a *Agent) dispatch(ctx context.Context, action *actionCall) string {
	handler, ok := a.handlers[action.Type]
	if !ok {
		return fmt.Sprintf("I can't do %q from here.", action.Type)
	}
	confirmation, err := handler(ctx, action.Data)
	if err != nil {
		var ve *validationError
		if errors.As(err, &ve) {
			return ve.msg
		}
		return fmt.Sprintf("That didn't save: %v", err)
	}
	return confirmation
}

func joinReply(message, outcome string) string {
	message = strings.TrimSpace(message)
	outcome = strings.TrimSpace(outcome)
	switch {
	case message == "":
		return outcome
	case outcome == "":
		return message
	default:
		return message + "\n\n" + outcome
	}
}
