package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fairyhunter13/lead-agent/internal/domain"
)

//go:embed profile.yaml
var defaultProfile []byte

// Profile is the static site content the agent answers from.
type Profile struct {
	Contact      domain.Contact   `yaml:"contact"`
	Services     []domain.Service `yaml:"services"`
	StartHint    string           `yaml:"start_hint"`
	BookingSteps []string         `yaml:"booking_steps"`
	SystemPrompt string           `yaml:"system_prompt"`
}

// LoadProfile returns the embedded profile, or the file at path when non-empty.
func LoadProfile(path string) (Profile, error) {
	raw := defaultProfile
	if strings.TrimSpace(path) != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return Profile{}, fmt.Errorf("op=config.LoadProfile: failed to get absolute path: %w", err)
		}
		b, err := os.ReadFile(absPath) //nolint:gosec // operator-supplied path
		if err != nil {
			return Profile{}, fmt.Errorf("op=config.LoadProfile: failed to read file %s: %w", absPath, err)
		}
		raw = b
	}
	return ParseProfile(raw)
}

// DefaultProfile returns the embedded profile. It panics if the embedded YAML is broken.
func DefaultProfile() Profile {
	p, err := ParseProfile(defaultProfile)
	if err != nil {
		panic(err)
	}
	return p
}

// ParseProfile decodes and validates a YAML profile document.
func ParseProfile(raw []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Profile{}, fmt.Errorf("op=config.ParseProfile: failed to parse YAML: %w", err)
	}
	if p.Contact.Email == "" || p.Contact.Phone == "" {
		return Profile{}, fmt.Errorf("op=config.ParseProfile: contact email and phone are required")
	}
	if len(p.Services) == 0 {
		return Profile{}, fmt.Errorf("op=config.ParseProfile: no services defined")
	}
	if strings.TrimSpace(p.SystemPrompt) == "" {
		return Profile{}, fmt.Errorf("op=config.ParseProfile: system prompt is empty")
	}
	p.SystemPrompt = expandPrompt(p.SystemPrompt, p.Contact)
	return p, nil
}

// expandPrompt fills {{placeholders}} in the prompt from the contact block.
func expandPrompt(prompt string, c domain.Contact) string {
	r := strings.NewReplacer(
		"{{email}}", c.Email,
		"{{phone}}", c.Phone,
		"{{whatsapp}}", c.WhatsApp,
		"{{preferred_contact}}", c.PreferredContact,
		"{{calendar}}", c.Calendar,
		"{{working_hours}}", c.WorkingHours,
	)
	return strings.TrimSpace(r.Replace(prompt))
}
