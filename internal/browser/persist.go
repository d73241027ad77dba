package browser

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// maxHistoryEntries caps each persisted history stack at the most
// recent entries.
const maxHistoryEntries = 100

type historyState struct {
	Back    []string `json:"back"`
	Forward []string `json:"forward"`
}

// loadState restores bookmarks and history from disk. Missing files
// mean a fresh profile; unreadable files are logged and skipped so a
// corrupt profile never blocks the browser.
func (b *Browser) loadState() {
	b.bookmarks = map[string]string{}
	if raw, ok := readStateFile(b.cfg.BookmarksFile); ok {
		if err := json.Unmarshal(raw, &b.bookmarks); err != nil {
			log.Warn().Str("file", b.cfg.BookmarksFile).Err(err).Msg("bookmarks unreadable, starting empty")
			b.bookmarks = map[string]string{}
		}
	}

	var hist historyState
	if raw, ok := readStateFile(b.cfg.HistoryFile); ok {
		if err := json.Unmarshal(raw, &hist); err != nil {
			log.Warn().Str("file", b.cfg.HistoryFile).Err(err).Msg("history unreadable, starting empty")
		}
	}
	b.back = hist.Back
	b.forward = hist.Forward
}

func (b *Browser) saveState() {
	b.saveBookmarks()
	b.saveHistory()
}

func (b *Browser) saveBookmarks() {
	writeStateFile(b.cfg.BookmarksFile, b.bookmarks)
}

func (b *Browser) saveHistory() {
	hist := historyState{
		Back:    tail(b.back, maxHistoryEntries),
		Forward: tail(b.forward, maxHistoryEntries),
	}
	writeStateFile(b.cfg.HistoryFile, hist)
}

func readStateFile(path string) ([]byte, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Str("file", path).Err(err).Msg("state file unreadable")
		}
		return nil, false
	}
	return raw, true
}

// writeStateFile persists v as indented JSON. Failures are logged,
// never fatal: losing a bookmark write must not kill the session.
func writeStateFile(path string, v any) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warn().Str("file", path).Err(err).Msg("state encode failed")
		return
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Warn().Str("file", path).Err(err).Msg("state dir create failed")
			return
		}
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		log.Warn().Str("file", path).Err(err).Msg("state save failed")
	}
}

// tail returns the last n entries of s without copying when s already
// fits.
func tail(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
