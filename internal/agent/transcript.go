package agent

import (
	"sync"
	"time"
)

// Role marks who authored a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in an agent conversation.
type Message struct {
	Role    Role
	Content string
	At      time.Time
}

// Transcript is the in-memory conversation history for one agent. It lives
// for the duration of a session (or chat invocation) and is cleared when the
// session finalizes.
type Transcript struct {
	mu       sync.Mutex
	messages []Message
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

func (t *Transcript) Append(role Role, content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, Message{Role: role, Content: content, At: time.Now().UTC()})
}

// Recent returns the last n messages, oldest first.
func (t *Transcript) Recent(n int) []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n <= 0 || len(t.messages) == 0 {
		return nil
	}
	start := len(t.messages) - n
	if start < 0 {
		start = 0
	}
	out := make([]Message, len(t.messages)-start)
	copy(out, t.messages[start:])
	return out
}

func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

// Reset drops all messages.
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = nil
}
