package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelope_PlainProse(t *testing.T) {
	msg, action := parseEnvelope("The Library wing suits this hour.")
	assert.Equal(t, "The Library wing suits this hour.", msg)
	assert.Nil(t, action)
}

func TestParseEnvelope_WellFormed(t *testing.T) {
	raw := `{"message":"Built it.","action":{"type":"add_constraint","data":{"instance_id":"i1","constraint":"no phone"}}}`
	msg, action := parseEnvelope(raw)
	assert.Equal(t, "Built it.", msg)
	require.NotNil(t, action)
	assert.Equal(t, "add_constraint", action.Type)
}

func TestParseEnvelope_SurroundedByProse(t *testing.T) {
	raw := "Sure thing!\n{\"message\":\"Done.\",\"action\":null}\nLet me know."
	msg, action := parseEnvelope(raw)
	assert.Equal(t, "Done.", msg)
	assert.Nil(t, action)
}

// The slice runs from the first '{' to the last '}'. A stray brace in the
// surrounding prose widens the slice past valid JSON, so the whole raw text
// becomes the message. That crudeness is the contract.
func TestParseEnvelope_StrayBraceWidensSlice(t *testing.T) {
	raw := "I thought about {this} first.\n{\"message\":\"Done.\",\"action\":null}"
	msg, action := parseEnvelope(raw)
	assert.Equal(t, raw, msg)
	assert.Nil(t, action)
}

func TestParseEnvelope_EmptyEnvelope(t *testing.T) {
	msg, action := parseEnvelope("{}")
	assert.Equal(t, "{}", msg)
	assert.Nil(t, action)
}

func TestParseEnvelope_MessageOnly(t *testing.T) {
	msg, action := parseEnvelope(`{"message":"No action needed."}`)
	assert.Equal(t, "No action needed.", msg)
	assert.Nil(t, action)
}
