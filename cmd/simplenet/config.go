package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/simplenet-proto/simplenet/internal/browser"
)

// simplenet config.toml key mapping to browser preferences.
type fileConfig struct {
	StartPage     string `toml:"start_page"`
	ClearScreen   bool   `toml:"clear_screen"`
	NoColor       bool   `toml:"no_color"`
	BookmarksFile string `toml:"bookmarks_file"`
	HistoryFile   string `toml:"history_file"`
}

// simplenet loader for TOML config with default overlay. A missing
// file is not an error: the browser runs on defaults.
func loadBrowserConfig(path string) (browser.Config, error) {
	cfg := browser.DefaultConfig()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return browser.Config{}, fmt.Errorf("load browser config: %w", err)
	}

	if meta.IsDefined("start_page") {
		if page := strings.TrimSpace(raw.StartPage); page != "" {
			cfg.StartPage = page
		}
	}
	if meta.IsDefined("clear_screen") {
		cfg.ClearScreen = raw.ClearScreen
	}
	if meta.IsDefined("no_color") {
		cfg.NoColor = raw.NoColor
	}
	if meta.IsDefined("bookmarks_file") {
		cfg.BookmarksFile = strings.TrimSpace(raw.BookmarksFile)
	}
	if meta.IsDefined("history_file") {
		cfg.HistoryFile = strings.TrimSpace(raw.HistoryFile)
	}

	return cfg, nil
}
