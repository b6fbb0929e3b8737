package agent

import "github.com/calegray/manse/internal/llm"

// NewNavigator builds the recommendation-only persona. It carries no
// handlers: any action the model emits is refused visibly.
func NewNavigator(client llm.Client, contextB *ContextBuilder) *Agent {
	return New("Navigator", navigatorPrompt, client, contextB, nil)
}
