package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultGreeting = "Hello everyone! I am your AI moderator for today's group discussion. " +
		"I will be asking you a series of questions. Please speak one at a time when responding. Let's begin!"
	DefaultClosing = "Thank you all for your valuable input today. This concludes our session. Have a great day!"
	DefaultVoice   = "alloy"
	DefaultSpeed   = 1.0
)

// DefaultTransitions are short fillers played while participants answer
var DefaultTransitions = []string{
	"Thank you for sharing.",
	"That's a great point.",
	"Interesting perspective.",
	"Thanks, anyone else?",
}

// Prompts is the spoken script of the bot
type Prompts struct {
	BotName     string   `yaml:"bot_name"`
	Greeting    string   `yaml:"greeting"`
	Closing     string   `yaml:"closing"`
	Transitions []string `yaml:"transitions"`
	Voice       string   `yaml:"voice"`
	Speed       float64  `yaml:"speed"`
}

// DefaultPrompts returns the built-in script
func DefaultPrompts() Prompts {
	return Prompts{
		BotName:     "Focus Group Moderator",
		Greeting:    DefaultGreeting,
		Closing:     DefaultClosing,
		Transitions: append([]string(nil), DefaultTransitions...),
		Voice:       DefaultVoice,
		Speed:       DefaultSpeed,
	}
}

// LoadPrompts reads a YAML script from path. Missing keys keep their defaults
// and an empty path returns the defaults.
func LoadPrompts(path string) (Prompts, error) {
	prompts := DefaultPrompts()
	if path == "" {
		return prompts, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return prompts, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var override Prompts
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return prompts, fmt.Errorf("failed to parse prompts file: %w", err)
	}

	if override.BotName != "" {
		prompts.BotName = override.BotName
	}
	if override.Greeting != "" {
		prompts.Greeting = override.Greeting
	}
	if override.Closing != "" {
		prompts.Closing = override.Closing
	}
	if len(override.Transitions) > 0 {
		prompts.Transitions = override.Transitions
	}
	if override.Voice != "" {
		prompts.Voice = override.Voice
	}
	if override.Speed > 0 {
		if override.Speed < 0.25 || override.Speed > 4.0 {
			return prompts, fmt.Errorf("speed must be between 0.25 and 4.0, got %v", override.Speed)
		}
		prompts.Speed = override.Speed
	}

	return prompts, nil
}
