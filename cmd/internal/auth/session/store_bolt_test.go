package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestBoltStore_RoundTripAndProfiles(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "session.db")

	a, err := OpenBoltStore(path, "default")
	if err != nil {
		t.Fatalf("OpenBoltStore: %v", err)
	}

	if got, err := a.Load(ctx); err != nil || !got.Empty() {
		t.Fatalf("empty load got=%+v err=%v", got, err)
	}
	if err := a.Save(ctx, Tokens{Access: "A", Refresh: "R"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := fi.Mode().Perm(); perm&0o077 != 0 {
		t.Fatalf("file mode=%v, want owner-only", perm)
	}

	a, err = OpenBoltStore(path, "default")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer a.Close()

	got, err := a.Load(ctx)
	if err != nil || got.Access != "A" || got.Refresh != "R" {
		t.Fatalf("reload got=%+v err=%v", got, err)
	}

	// Only access: the refresh key is removed.
	if err := a.Save(ctx, Tokens{Access: "A2"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ = a.Load(ctx)
	if got.Access != "A2" || got.Refresh != "" {
		t.Fatalf("partial got=%+v", got)
	}

	if err := a.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got, _ := a.Load(ctx); !got.Empty() {
		t.Fatalf("after clear got=%+v", got)
	}
}

func TestBoltStore_ProfilesAreIsolated(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	a, err := OpenBoltStore(filepath.Join(dir, "a.db"), "work")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := a.Save(ctx, Tokens{Access: "W", Refresh: "WR"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_ = a.Close()

	b, err := OpenBoltStore(filepath.Join(dir, "a.db"), "personal")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer b.Close()
	if got, _ := b.Load(ctx); !got.Empty() {
		t.Fatalf("profile leak: %+v", got)
	}
}
