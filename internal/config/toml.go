// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Lesson   LessonConfig   `toml:"lesson"`
	LLM      LLMConfig      `toml:"llm"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Tier       *string `toml:"tier"`
	Paragraphs *int    `toml:"paragraphs"`
}

// LessonConfig selects and tunes the lesson source.
type LessonConfig struct {
	Source     *string  `toml:"source"`
	Words      *int     `toml:"words"`
	CapsPct    *float64 `toml:"caps"`
	PunctPct   *float64 `toml:"punct"`
	PunctSet   *string  `toml:"punct-set"`
	FocusWeak  *bool    `toml:"focus-weak"`
	WeakTop    *int     `toml:"weak-top"`
	WeakFactor *float64 `toml:"weak-factor"`
	WeakWindow *int     `toml:"weak-window"`
	WordList   *string  `toml:"wordlist"`
}

// LLMConfig configures the generative lesson source. Environment variables
// take precedence over the file.
type LLMConfig struct {
	Provider *string `toml:"provider"`
	Model    *string `toml:"model"`
	APIKey   *string `toml:"api-key"`
	BaseURL  *string `toml:"base-url"`
	Timeout  *string `toml:"timeout"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
