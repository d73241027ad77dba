// Package pages serves SimpleNet documents from a sandboxed page root.
package pages

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/simplenet-proto/simplenet/internal/dns"
	"github.com/simplenet-proto/simplenet/internal/protocol"
)

const DefaultPage = "home"

var ErrRootRequired = errors.New("pages: page root required")

// Store resolves validated request paths to documents under root.
type Store struct {
	root     string
	ext      string
	resolver *dns.Resolver
}

// NewStore anchors a store at root. The root is made absolute once so
// the sandbox boundary does not move with the working directory.
func NewStore(root, ext string, resolver *dns.Resolver) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, ErrRootRequired
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("pages: resolve root: %w", err)
	}
	if ext == "" {
		ext = protocol.DefaultDocExt
	}
	return &Store{root: abs, ext: ext, resolver: resolver}, nil
}

// Root returns the absolute page root.
func (s *Store) Root() string {
	return s.root
}

// Split separates a request path into its domain and page components.
// A path without a separator addresses the default page of the domain.
func Split(path string) (domain, page string) {
	domain, page, found := strings.Cut(path, "/")
	if !found || page == "" {
		page = DefaultPage
	}
	return domain, page
}

// ResolvePage maps one validated request path to a framed response.
// The candidate file must stay inside the page root even after domain
// mapping; escapes are rejected rather than served.
func (s *Store) ResolvePage(path string) *protocol.Response {
	domain, page := Split(path)
	folder := s.resolver.Resolve(domain)

	candidate, err := filepath.Abs(filepath.Join(s.root, folder, page+s.ext))
	if err != nil || !strings.HasPrefix(candidate, s.root+string(os.PathSeparator)) {
		log.Warn().Str("path", path).Str("folder", folder).Msg("page request escaped root")
		return protocol.ErrorResponse(protocol.StatusBadRequest, "invalid path")
	}

	info, err := os.Stat(candidate)
	if err != nil || !info.Mode().IsRegular() {
		return s.notFound(page, domain)
	}

	content, err := os.ReadFile(candidate)
	if err != nil {
		log.Error().Str("file", candidate).Err(err).Msg("page read failed")
		return protocol.ErrorResponse(protocol.StatusServerError, "internal server error")
	}
	return protocol.NewResponse(content)
}

func (s *Store) notFound(page, domain string) *protocol.Response {
	known := strings.Join(s.resolver.Domains(), ", ")
	if known == "" {
		known = "none"
	}
	detail := fmt.Sprintf("page %q not found on %q (known domains: %s)", page, domain, known)
	return protocol.ErrorResponse(protocol.StatusNotFound, detail)
}
