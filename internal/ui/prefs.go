package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences for the TUI.
type Prefs struct {
	Theme string `toml:"theme"`
}

const (
	defaultPrefsPath = "~/.config/ecn/prefs.toml"
	defaultTheme     = "Violet"
)

// themes maps a theme name to its title, success, error, warning and help colors.
var themes = map[string][5]string{
	"Violet": {"#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262"},
	"Teal":   {"#14B8A6", "#22C55E", "#EF4444", "#EAB308", "#6B7280"},
	"Amber":  {"#F59E0B", "#10B981", "#DC2626", "#FB923C", "#78716C"},
}

// themeOrder is the cycle order of the theme toggle.
var themeOrder = []string{"Violet", "Teal", "Amber"}

// DefaultPrefsPath returns the default preferences file path.
func DefaultPrefsPath() string {
	return defaultPrefsPath
}

// DefaultPrefs returns the preferences used when none are stored.
func DefaultPrefs() Prefs {
	return Prefs{Theme: defaultTheme}
}

// LoadPrefs reads preferences from path. Any failure yields the defaults.
func LoadPrefs(path string) Prefs {
	prefs := DefaultPrefs()

	resolved, err := resolvePath(path)
	if err != nil {
		return prefs
	}

	file, err := os.Open(resolved)
	if err != nil {
		return prefs
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return prefs
	}
	if err := toml.Unmarshal(data, &prefs); err != nil {
		return DefaultPrefs()
	}

	if _, ok := themes[strings.TrimSpace(prefs.Theme)]; !ok {
		prefs.Theme = defaultTheme
	}
	return prefs
}

// SavePrefs writes preferences to path, creating directories as needed.
func SavePrefs(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(resolved, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// NextTheme returns the theme after name in the toggle cycle.
func NextTheme(name string) string {
	for i, t := range themeOrder {
		if t == name {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return defaultTheme
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
