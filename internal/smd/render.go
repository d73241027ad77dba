// Package smd renders SimpleNet markdown documents for terminal
// display.
package smd

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-isatty"
)

// Link is one navigable target collected in render order. Targets from
// arrow lines and inline links share a single numbering sequence.
type Link struct {
	Target string
	Text   string
}

// Renderer converts SMD document bodies into styled terminal lines.
type Renderer struct {
	NoColor bool
}

// NewRenderer suppresses color automatically when stdout is not a
// terminal.
func NewRenderer() *Renderer {
	return &Renderer{NoColor: !isatty.IsTerminal(os.Stdout.Fd())}
}

var orderedItemRe = regexp.MustCompile(`^\d+\.\s`)

// inlineRule rewrites one span pattern. Rules run in a fixed order;
// link injection comes first so emphasis never rewrites the numbered
// labels it produces.
type inlineRule struct {
	re    *regexp.Regexp
	apply func(r *Renderer, sub []string, links *[]Link) string
}

var inlineRules = []inlineRule{
	{
		re: regexp.MustCompile(`\[(.+?)\]\((https?://[^\s]+)\)`),
		apply: func(r *Renderer, sub []string, links *[]Link) string {
			*links = append(*links, Link{Target: sub[2], Text: sub[1]})
			return r.paint(ColorLink, fmt.Sprintf("[%d] %s", len(*links), sub[1]))
		},
	},
	{
		re: regexp.MustCompile(`\*\*(.*?)\*\*`),
		apply: func(r *Renderer, sub []string, _ *[]Link) string {
			return r.paint(ColorBold, sub[1])
		},
	},
	{
		re: regexp.MustCompile(`\*(.*?)\*`),
		apply: func(r *Renderer, sub []string, _ *[]Link) string {
			return r.paint(ColorItalic, sub[1])
		},
	},
}

// Render walks content line by line and returns the styled lines plus
// every link encountered, numbered in display order.
func (r *Renderer) Render(content string) ([]string, []Link) {
	lines := []string{}
	links := []Link{}
	inCode := false

	rawLines := strings.Split(content, "\n")
	// A trailing newline terminates the last line; it does not open an
	// empty one.
	if n := len(rawLines); n > 0 && rawLines[n-1] == "" {
		rawLines = rawLines[:n-1]
	}
	for _, raw := range rawLines {
		line := strings.TrimRight(raw, " \t\r")
		if line == "```" {
			inCode = !inCode
			continue
		}
		if inCode {
			lines = append(lines, r.paint(ColorCode, "    "+line))
			continue
		}

		switch {
		case strings.HasPrefix(line, ">"):
			lines = append(lines, r.paint(ColorQuote, "❝ "+strings.TrimSpace(line[1:])))
		case strings.HasPrefix(line, "### "):
			lines = append(lines, r.paint(ColorSubtitle, "🔹 "+line[4:]))
		case strings.HasPrefix(line, "## "):
			lines = append(lines, r.paint(ColorSubtitle, "🔷 "+line[3:]))
		case strings.HasPrefix(line, "# "):
			title := strings.ToUpper(line[2:])
			underline := strings.Repeat("-", utf8.RuneCountInString(title))
			lines = append(lines, "", r.paint(ColorTitle, title), r.paint(ColorTitle, underline))
		case orderedItemRe.MatchString(line):
			lines = append(lines, "  "+line)
		case strings.HasPrefix(line, "* "):
			lines = append(lines, r.paint(ColorBullet, " • "+line[2:]))
		case strings.HasPrefix(line, "=>"):
			parts := splitWhitespaceN(line, 3)
			if len(parts) < 2 {
				continue
			}
			target := parts[1]
			text := target
			if len(parts) == 3 {
				text = parts[2]
			}
			links = append(links, Link{Target: target, Text: text})
			lines = append(lines, r.paint(ColorLink, fmt.Sprintf("[%d] %s", len(links), text)))
		default:
			lines = append(lines, r.renderInline(line, &links))
		}
	}
	return lines, links
}

func (r *Renderer) renderInline(line string, links *[]Link) string {
	for _, rule := range inlineRules {
		line = rule.re.ReplaceAllStringFunc(line, func(m string) string {
			return rule.apply(r, rule.re.FindStringSubmatch(m), links)
		})
	}
	return line
}

// Colorize wraps text in color unless colors are suppressed.
func (r *Renderer) Colorize(color, text string) string {
	return r.paint(color, text)
}

func (r *Renderer) paint(color, text string) string {
	if r.NoColor {
		return text
	}
	return color + text + ColorReset
}

// splitWhitespaceN splits s on runs of spaces and tabs into at most n
// parts, keeping the remainder of the line intact in the final part.
func splitWhitespaceN(s string, n int) []string {
	var parts []string
	s = strings.TrimLeft(s, " \t")
	for len(s) > 0 && len(parts) < n-1 {
		i := strings.IndexAny(s, " \t")
		if i < 0 {
			break
		}
		parts = append(parts, s[:i])
		s = strings.TrimLeft(s[i:], " \t")
	}
	if len(s) > 0 {
		parts = append(parts, s)
	}
	return parts
}
