package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type trackOut struct {
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

func TestExtractJSON_Plain(t *testing.T) {
	got, err := ExtractJSON[trackOut](`{"title":"Dust Motes","prompt":"slow piano"}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "Dust Motes", got.Title)
}

func TestExtractJSON_CodeFenceAndProse(t *testing.T) {
	raw := "Here is the concept:\n```json\n{\"title\":\"Dust Motes\",\"prompt\":\"slow piano\"}\n```\nHope that helps!"
	got, err := ExtractJSON[trackOut](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "slow piano", got.Prompt)
}

func TestExtractJSON_NestedBracesInStrings(t *testing.T) {
	raw := `prelude {"title":"Open {Door}","prompt":"brushes \"and\" bells"} postlude`
	got, err := ExtractJSON[trackOut](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "Open {Door}", got.Title)
}

func TestExtractJSON_Comments(t *testing.T) {
	raw := `{
		"title": "Dust Motes", // working title
		"prompt": "slow piano" /* keep sparse */
	}`
	got, err := ExtractJSON[trackOut](raw, nil)
	require.NoError(t, err)
	assert.Equal(t, "Dust Motes", got.Title)
}

func TestExtractJSON_NoJSON(t *testing.T) {
	_, err := ExtractJSON[trackOut]("sorry, I cannot help with that", nil)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestExtractJSON_ValidatorRejects(t *testing.T) {
	validator := func(v trackOut) error {
		if v.Title == "" {
			return errors.New("title required")
		}
		return nil
	}
	_, err := ExtractJSON[trackOut](`{"prompt":"slow piano"}`, validator)
	assert.ErrorIs(t, err, ErrInvalidOutput)
}

func TestExtractJSONArray(t *testing.T) {
	raw := "```\n[{\"title\":\"One\",\"prompt\":\"a\"},{\"title\":\"Two\",\"prompt\":\"b\"}]\n```"
	got, err := ExtractJSONArray[[]trackOut](raw, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Two", got[1].Title)
}
