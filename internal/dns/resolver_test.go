package dns

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/simplenet-proto/simplenet/internal/testutil/testlog"
)

func writeMapping(t *testing.T, path, body string, mod time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write mapping: %v", err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func TestResolveMappedAndFallback(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "dns.json")
	writeMapping(t, path, `{"giorgio.net": "giorgio", "wiki.smd": "wiki"}`, time.Unix(1700000000, 0))

	r := NewResolver(path)
	if got := r.Resolve("giorgio.net"); got != "giorgio" {
		t.Fatalf("Resolve(giorgio.net) = %q, want giorgio", got)
	}
	if got := r.Resolve("unknown.net"); got != "unknown.net" {
		t.Fatalf("Resolve(unknown.net) = %q, want identity fallback", got)
	}
}

func TestResolveReloadsWhenFileAdvances(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "dns.json")
	writeMapping(t, path, `{"giorgio.net": "giorgio"}`, time.Unix(1700000000, 0))

	r := NewResolver(path)
	if got := r.Resolve("giorgio.net"); got != "giorgio" {
		t.Fatalf("initial Resolve = %q, want giorgio", got)
	}

	writeMapping(t, path, `{"giorgio.net": "moved"}`, time.Unix(1700000100, 0))
	if got := r.Resolve("giorgio.net"); got != "moved" {
		t.Fatalf("Resolve after rewrite = %q, want moved", got)
	}
}

func TestResolveSkipsReloadWhenUnchanged(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "dns.json")
	writeMapping(t, path, `{"giorgio.net": "giorgio"}`, time.Unix(1700000000, 0))

	r := NewResolver(path)
	if got := r.Resolve("giorgio.net"); got != "giorgio" {
		t.Fatalf("initial Resolve = %q, want giorgio", got)
	}

	// Same mtime: the rewrite must not be picked up.
	writeMapping(t, path, `{"giorgio.net": "moved"}`, time.Unix(1700000000, 0))
	if got := r.Resolve("giorgio.net"); got != "giorgio" {
		t.Fatalf("Resolve with stale mtime = %q, want giorgio", got)
	}
}

func TestResolveKeepsLastGoodOnParseFailure(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "dns.json")
	writeMapping(t, path, `{"giorgio.net": "giorgio"}`, time.Unix(1700000000, 0))

	r := NewResolver(path)
	if got := r.Resolve("giorgio.net"); got != "giorgio" {
		t.Fatalf("initial Resolve = %q, want giorgio", got)
	}

	writeMapping(t, path, `{ not json`, time.Unix(1700000100, 0))
	if got := r.Resolve("giorgio.net"); got != "giorgio" {
		t.Fatalf("Resolve after broken rewrite = %q, want last good giorgio", got)
	}

	writeMapping(t, path, `{"giorgio.net": "fixed"}`, time.Unix(1700000200, 0))
	if got := r.Resolve("giorgio.net"); got != "fixed" {
		t.Fatalf("Resolve after repair = %q, want fixed", got)
	}
}

func TestResolveMissingFileFallsBackToIdentity(t *testing.T) {
	testlog.Start(t)

	r := NewResolver(filepath.Join(t.TempDir(), "absent.json"))
	if got := r.Resolve("giorgio.net"); got != "giorgio.net" {
		t.Fatalf("Resolve = %q, want identity fallback", got)
	}
	if domains := r.Domains(); len(domains) != 0 {
		t.Fatalf("Domains = %v, want empty", domains)
	}
}

func TestDomainsSorted(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "dns.json")
	writeMapping(t, path, `{"zeta.net": "z", "alpha.net": "a", "mid.net": "m"}`, time.Unix(1700000000, 0))

	r := NewResolver(path)
	domains := r.Domains()
	want := []string{"alpha.net", "mid.net", "zeta.net"}
	if len(domains) != len(want) {
		t.Fatalf("Domains = %v, want %v", domains, want)
	}
	for i := range want {
		if domains[i] != want[i] {
			t.Fatalf("Domains[%d] = %q, want %q", i, domains[i], want[i])
		}
	}
}

func TestSnapshotCopiesMapping(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "dns.json")
	writeMapping(t, path, `{"giorgio.net": "giorgio"}`, time.Unix(1700000000, 0))

	r := NewResolver(path)
	snap := r.Snapshot()
	snap["giorgio.net"] = "tampered"
	if got := r.Resolve("giorgio.net"); got != "giorgio" {
		t.Fatalf("Resolve after snapshot mutation = %q, want giorgio", got)
	}
}
