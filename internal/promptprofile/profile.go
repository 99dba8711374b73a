// Package promptprofile loads an optional YAML profile that overrides the
// built-in briefing and suggested prompts, so workspaces can retune the
// assistant without a rebuild.
package promptprofile

import (
	"fmt"
	"os"
	"strings"

	"github.com/stuurlui/compass/internal/prompts"
	"gopkg.in/yaml.v3"
)

type Profile struct {
	Briefing         string           `yaml:"briefing"`
	Greeting         string           `yaml:"greeting"`
	Apology          string           `yaml:"apology"`
	SuggestedPrompts []PromptOverride `yaml:"suggested_prompts"`
}

type PromptOverride struct {
	Title   string `yaml:"title"`
	Message string `yaml:"message"`
}

// Default returns the built-in texts.
func Default() Profile {
	out := Profile{
		Briefing: prompts.Briefing,
		Greeting: prompts.Greeting,
		Apology:  prompts.Apology,
	}
	for _, p := range prompts.FirstSuggestedPrompts {
		out.SuggestedPrompts = append(out.SuggestedPrompts, PromptOverride{Title: p.Title, Message: p.Message})
	}
	return out
}

// Load reads path and overlays any non-empty fields on the defaults.
// An empty path returns the defaults without touching the filesystem.
func Load(path string) (Profile, error) {
	profile := Default()
	path = strings.TrimSpace(path)
	if path == "" {
		return profile, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read prompt profile: %w", err)
	}
	var overlay Profile
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return Profile{}, fmt.Errorf("parse prompt profile: %w", err)
	}
	if strings.TrimSpace(overlay.Briefing) != "" {
		profile.Briefing = overlay.Briefing
	}
	if strings.TrimSpace(overlay.Greeting) != "" {
		profile.Greeting = overlay.Greeting
	}
	if strings.TrimSpace(overlay.Apology) != "" {
		profile.Apology = overlay.Apology
	}
	if len(overlay.SuggestedPrompts) > 0 {
		profile.SuggestedPrompts = overlay.SuggestedPrompts
	}
	return profile, nil
}
