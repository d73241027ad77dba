// Package browser drives the interactive SimpleNet terminal client:
// fetch, render, prompt, repeat.
package browser

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/simplenet-proto/simplenet/internal/client"
	"github.com/simplenet-proto/simplenet/internal/protocol"
	"github.com/simplenet-proto/simplenet/internal/smd"
)

// Browser preferences, persisted as TOML next to the binary.
type Config struct {
	StartPage     string `toml:"start_page"`
	ClearScreen   bool   `toml:"clear_screen"`
	NoColor       bool   `toml:"no_color"`
	BookmarksFile string `toml:"bookmarks_file"`
	HistoryFile   string `toml:"history_file"`
}

func DefaultConfig() Config {
	return Config{
		StartPage:     "default",
		ClearScreen:   true,
		NoColor:       false,
		BookmarksFile: "bookmarks.json",
		HistoryFile:   "history.json",
	}
}

// Browser owns the navigation loop state: current page, history
// stacks, bookmarks, and the links rendered for the page on screen.
type Browser struct {
	cfg       Config
	transport client.Transport
	renderer  *smd.Renderer
	in        *bufio.Reader
	out       io.Writer

	current   string
	back      []string
	forward   []string
	bookmarks map[string]string
	links     []smd.Link
}

func New(cfg Config, transport client.Transport, in io.Reader, out io.Writer) *Browser {
	def := DefaultConfig()
	if strings.TrimSpace(cfg.StartPage) == "" {
		cfg.StartPage = def.StartPage
	}
	if strings.TrimSpace(cfg.BookmarksFile) == "" {
		cfg.BookmarksFile = def.BookmarksFile
	}
	if strings.TrimSpace(cfg.HistoryFile) == "" {
		cfg.HistoryFile = def.HistoryFile
	}
	renderer := smd.NewRenderer()
	if cfg.NoColor {
		renderer.NoColor = true
	}
	return &Browser{
		cfg:       cfg,
		transport: transport,
		renderer:  renderer,
		in:        bufio.NewReader(in),
		out:       out,
		bookmarks: map[string]string{},
	}
}

// Run blocks on the navigation loop until the user quits or input
// ends. History and bookmarks are saved on every exit path.
func (b *Browser) Run(ctx context.Context) error {
	b.loadState()
	b.printWelcome()
	if b.current == "" {
		b.current = strings.TrimSpace(b.cfg.StartPage)
	}

	for {
		if err := ctx.Err(); err != nil {
			b.saveState()
			return err
		}
		b.clearIfEnabled()
		b.printBreadcrumb()

		resp, err := b.transport.Fetch(ctx, b.current)
		if err != nil {
			b.saveState()
			return err
		}
		b.renderResponse(resp)
		b.printCommandBar()

		line, err := b.readLine("→ ")
		if err != nil {
			b.saveState()
			b.printFarewell()
			if err == io.EOF {
				return nil
			}
			return err
		}
		if b.dispatch(line) {
			b.saveState()
			b.printFarewell()
			return nil
		}
	}
}

// dispatch interprets one command line and reports whether the loop
// should end.
func (b *Browser) dispatch(raw string) bool {
	cmd := strings.TrimSpace(raw)
	lower := strings.ToLower(cmd)

	switch {
	case lower == "q" || lower == "quit":
		return true
	case lower == "h" || lower == "help":
		b.printHelp()
		b.pause()
	case lower == "b":
		b.goBack()
	case lower == "f":
		b.goForward()
	case lower == "r":
		// reload on next loop pass
	case lower == "bm":
		b.showBookmarks()
	case lower == "add":
		b.addBookmark()
	case strings.HasPrefix(lower, "go "):
		if target := strings.TrimSpace(cmd[3:]); target != "" {
			b.navigate(target)
		}
	default:
		if n, err := strconv.Atoi(lower); err == nil {
			b.openLink(n)
		} else {
			b.warn("unknown command (h for help)")
			b.pause()
		}
	}
	return false
}

// navigate moves to target, pushing the current page onto the back
// stack and discarding the forward stack.
func (b *Browser) navigate(target string) {
	b.back = append(b.back, b.current)
	b.forward = b.forward[:0]
	b.current = target
}

func (b *Browser) goBack() {
	if len(b.back) == 0 {
		b.warn("no previous page")
		b.pause()
		return
	}
	b.forward = append(b.forward, b.current)
	b.current = b.back[len(b.back)-1]
	b.back = b.back[:len(b.back)-1]
}

func (b *Browser) goForward() {
	if len(b.forward) == 0 {
		b.warn("no forward page")
		b.pause()
		return
	}
	b.back = append(b.back, b.current)
	b.current = b.forward[len(b.forward)-1]
	b.forward = b.forward[:len(b.forward)-1]
}

func (b *Browser) openLink(n int) {
	if n < 1 || n > len(b.links) {
		b.warn("invalid link number")
		b.pause()
		return
	}
	b.navigate(b.links[n-1].Target)
}

func (b *Browser) showBookmarks() {
	if len(b.bookmarks) == 0 {
		b.warn("no bookmarks saved")
		b.pause()
		return
	}
	names := make([]string, 0, len(b.bookmarks))
	for name := range b.bookmarks {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(b.out, b.renderer.Colorize(smd.ColorBold, "bookmarks:"))
	for i, name := range names {
		fmt.Fprintf(b.out, "  [%d] %s (%s)\n", i+1, name, b.bookmarks[name])
	}
	choice, err := b.readLine("open bookmark number (enter to skip): ")
	if err != nil || choice == "" {
		return
	}
	n, err := strconv.Atoi(choice)
	if err != nil || n < 1 || n > len(names) {
		b.warn("invalid bookmark number")
		b.pause()
		return
	}
	b.navigate(b.bookmarks[names[n-1]])
}

func (b *Browser) addBookmark() {
	name, err := b.readLine("bookmark name: ")
	if err != nil || name == "" {
		b.warn("bookmark discarded, name required")
		b.pause()
		return
	}
	b.bookmarks[name] = b.current
	b.saveBookmarks()
	fmt.Fprintln(b.out, b.renderer.Colorize(smd.ColorSuccess, fmt.Sprintf("bookmarked %s as %q", b.current, name)))
	b.pause()
}

func (b *Browser) renderResponse(resp *protocol.Response) {
	if resp.Status != protocol.StatusOK {
		status := fmt.Sprintf("Status: %d %s", resp.Status, resp.Message)
		fmt.Fprintln(b.out, b.renderer.Colorize(smd.ColorError, status))
	}
	lines, links := b.renderer.Render(string(resp.Content))
	b.links = links

	fmt.Fprintln(b.out)
	for _, line := range lines {
		fmt.Fprintln(b.out, line)
	}
	fmt.Fprintln(b.out)
}

func (b *Browser) printBreadcrumb() {
	fmt.Fprintln(b.out, b.renderer.Colorize(smd.ColorPath, "simple://"+b.current))
	fmt.Fprintln(b.out, strings.Repeat("-", 10+len(b.current)))
}

func (b *Browser) printWelcome() {
	fmt.Fprintln(b.out, b.renderer.Colorize(smd.ColorBold, "SimpleNet terminal browser"))
	fmt.Fprintln(b.out, "type h for help, q to quit")
}

func (b *Browser) printCommandBar() {
	bar := "[n] open link | b back | f forward | r reload | bm bookmarks | add bookmark | go <path> | h help | q quit"
	fmt.Fprintln(b.out, b.renderer.Colorize(smd.ColorBold, bar))
}

func (b *Browser) printHelp() {
	lines := []string{
		"  [n]       open link number n from the page",
		"  b / f     move back / forward through history",
		"  r         reload the current page",
		"  bm        list bookmarks and optionally open one",
		"  add       bookmark the current page",
		"  go <path> open an address directly",
		"  q         quit",
	}
	fmt.Fprintln(b.out, b.renderer.Colorize(smd.ColorBold, "commands:"))
	for _, line := range lines {
		fmt.Fprintln(b.out, line)
	}
}

func (b *Browser) printFarewell() {
	fmt.Fprintln(b.out, b.renderer.Colorize(smd.ColorSuccess, "bye"))
}

func (b *Browser) warn(msg string) {
	fmt.Fprintln(b.out, b.renderer.Colorize(smd.ColorWarning, msg))
}

func (b *Browser) pause() {
	_, _ = b.readLine("press enter to continue... ")
}

func (b *Browser) readLine(prompt string) (string, error) {
	fmt.Fprint(b.out, prompt)
	line, err := b.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (b *Browser) clearIfEnabled() {
	if !b.cfg.ClearScreen {
		return
	}
	fmt.Fprint(b.out, "\033[H\033[2J")
}
