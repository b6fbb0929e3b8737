package agent

import (
	"encoding/json"
	"strings"
)

// envelope is the expected shape of an agent reply: conversational text plus
// at most one action call.
type envelope struct {
	Message string      `json:"message"`
	Action  *actionCall `json:"action"`
}

type actionCall struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// parseEnvelope slices the raw model output from the first '{' to the last
// '}' and decodes that as an envelope. The slice is deliberately crude: a
// brace inside surrounding prose widens it and the decode fails, in which
// case the whole raw text becomes the message and no action is taken.
func parseEnvelope(raw string) (string, *actionCall) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start == -1 || end == -1 || end < start {
		return strings.TrimSpace(raw), nil
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw[start:end+1]), &env); err != nil {
		return strings.TrimSpace(raw), nil
	}
	if env.Message == "" && env.Action == nil {
		return strings.TrimSpace(raw), nil
	}
	return env.Message, env.Action
}
