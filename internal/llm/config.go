package llm

import (
	"os"
	"strconv"
)

// TaskType identifies the kind of LLM task being performed.
type TaskType string

const (
	// TaskChat drives agent conversation turns. Single attempt: a failed
	// turn falls back to fixed text rather than retrying.
	TaskChat TaskType = "chat"
	// TaskNarrative produces entry/exit transition text.
	TaskNarrative TaskType = "narrative"
	// TaskMusic produces album concepts and track prompts.
	TaskMusic TaskType = "music"
	// TaskGuidance answers in-room questions, optionally about a photo.
	TaskGuidance TaskType = "guidance"
)

// TaskConfig holds per-task LLM parameters.
type TaskConfig struct {
	Temperature float64
	MaxTokens   int
	TimeoutMs   int // overrides global if > 0
	MaxRetries  int // extra attempts after the first
}

// Config holds all configuration for the LLM subsystem.
type Config struct {
	Enabled  bool
	LogCalls bool
	Endpoint string
	Model    string
	// VisionModel handles requests that carry image attachments.
	// Falls back to Model when empty.
	VisionModel string
	TimeoutMs   int
	Tasks       map[TaskType]TaskConfig
}

// DefaultConfig returns a Config with sensible defaults. Disabled by default.
func DefaultConfig() Config {
	return Config{
		Enabled:   false,
		LogCalls:  false,
		Endpoint:  "http://localhost:11434",
		Model:     "llama3.2",
		TimeoutMs: 15000,
		Tasks: map[TaskType]TaskConfig{
			TaskChat:      {Temperature: 0.4, MaxTokens: 1024, TimeoutMs: 20000, MaxRetries: 0},
			TaskNarrative: {Temperature: 0.8, MaxTokens: 256, TimeoutMs: 10000, MaxRetries: 0},
			TaskMusic:     {Temperature: 0.9, MaxTokens: 2048, TimeoutMs: 30000, MaxRetries: 1},
			TaskGuidance:  {Temperature: 0.5, MaxTokens: 1024, TimeoutMs: 30000, MaxRetries: 0},
		},
	}
}

// LoadConfig reads configuration from MANSE_LLM_* environment variables,
// falling back to defaults for any unset values.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("MANSE_LLM_ENABLED"); v != "" {
		cfg.Enabled, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("MANSE_LLM_LOG_CALLS"); v != "" {
		cfg.LogCalls, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("MANSE_LLM_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("MANSE_LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("MANSE_LLM_VISION_MODEL"); v != "" {
		cfg.VisionModel = v
	}
	if v := os.Getenv("MANSE_LLM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}

	applyTaskTimeoutEnv(&cfg, TaskChat, "MANSE_LLM_CHAT_TIMEOUT_MS")
	applyTaskTimeoutEnv(&cfg, TaskNarrative, "MANSE_LLM_NARRATIVE_TIMEOUT_MS")
	applyTaskTimeoutEnv(&cfg, TaskMusic, "MANSE_LLM_MUSIC_TIMEOUT_MS")
	applyTaskTimeoutEnv(&cfg, TaskGuidance, "MANSE_LLM_GUIDANCE_TIMEOUT_MS")

	return cfg
}

// TaskTimeout returns the effective timeout for a given task type.
func (c Config) TaskTimeout(task TaskType) int {
	if tc, ok := c.Tasks[task]; ok && tc.TimeoutMs > 0 {
		return tc.TimeoutMs
	}
	return c.TimeoutMs
}

func applyTaskTimeoutEnv(cfg *Config, task TaskType, envName string) {
	v := os.Getenv(envName)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return
	}
	tc := cfg.Tasks[task]
	tc.TimeoutMs = n
	cfg.Tasks[task] = tc
}
