// Package dns maps symbolic SimpleNet domain names onto page folders.
package dns

import (
	"encoding/json"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Resolver serves domain lookups from a JSON mapping file. The file is
// re-read lazily when its modification time advances; a broken rewrite
// keeps the last good mapping in service.
type Resolver struct {
	path string

	mu      sync.Mutex
	table   map[string]string
	lastMod time.Time
}

func NewResolver(path string) *Resolver {
	return &Resolver{path: path}
}

// Resolve returns the page folder registered for domain, or domain
// itself when no mapping exists.
func (r *Resolver) Resolve(domain string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reloadLocked(false)
	if folder, ok := r.table[domain]; ok {
		return folder
	}
	return domain
}

// Domains returns the currently known domain names in sorted order.
func (r *Resolver) Domains() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reloadLocked(false)
	names := make([]string, 0, len(r.table))
	for name := range r.table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of the current mapping.
func (r *Resolver) Snapshot() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reloadLocked(false)
	out := make(map[string]string, len(r.table))
	for domain, folder := range r.table {
		out[domain] = folder
	}
	return out
}

// Reload forces a read of the mapping file regardless of its
// modification time.
func (r *Resolver) Reload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reloadLocked(true)
}

// reloadLocked refreshes the table from disk. The replacement table is
// fully decoded before it is swapped in, so lookups never observe a
// partially built mapping.
func (r *Resolver) reloadLocked(force bool) {
	info, err := os.Stat(r.path)
	if err != nil {
		if r.table == nil {
			r.table = map[string]string{}
			log.Warn().Str("file", r.path).Err(err).Msg("domain map unavailable, starting empty")
		}
		return
	}
	if !force && r.table != nil && !info.ModTime().After(r.lastMod) {
		return
	}
	raw, err := os.ReadFile(r.path)
	if err != nil {
		log.Warn().Str("file", r.path).Err(err).Msg("domain map read failed, keeping last mapping")
		if r.table == nil {
			r.table = map[string]string{}
		}
		r.lastMod = info.ModTime()
		return
	}
	fresh := make(map[string]string)
	if err := json.Unmarshal(raw, &fresh); err != nil {
		log.Warn().Str("file", r.path).Err(err).Msg("domain map parse failed, keeping last mapping")
		if r.table == nil {
			r.table = map[string]string{}
		}
		r.lastMod = info.ModTime()
		return
	}
	r.table = fresh
	r.lastMod = info.ModTime()
	log.Debug().Str("file", r.path).Int("domains", len(fresh)).Msg("domain map loaded")
}
