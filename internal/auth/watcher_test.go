package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_LoadsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cookie")
	if err := os.WriteFile(path, []byte(validCookie()+"\n"), 0o600); err != nil {
		t.Fatalf("failed to write cookie file: %v", err)
	}

	store := NewStore()
	w, err := NewWatcher(store, path)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer func() { _ = w.Close() }()

	if !store.IsAuthenticated() {
		t.Error("existing cookie file not loaded on startup")
	}
}

func TestWatcher_PicksUpFileChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cookie")

	store := NewStore()
	w, err := NewWatcher(store, path)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer func() { _ = w.Close() }()

	if store.IsAuthenticated() {
		t.Fatal("store authenticated with no cookie file")
	}

	if err := os.WriteFile(path, []byte(validCookie()), 0o600); err != nil {
		t.Fatalf("failed to write cookie file: %v", err)
	}

	if !waitFor(t, 3*time.Second, store.IsAuthenticated) {
		t.Error("cookie file creation not picked up")
	}

	// Emptying the file clears the credential
	if err := os.WriteFile(path, []byte("  \n"), 0o600); err != nil {
		t.Fatalf("failed to empty cookie file: %v", err)
	}
	if !waitFor(t, 3*time.Second, func() bool { return !store.IsAuthenticated() }) {
		t.Error("emptied cookie file did not clear the credential")
	}
}

func TestWatcher_DeletedFileClearsCredential(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cookie")
	if err := os.WriteFile(path, []byte(validCookie()), 0o600); err != nil {
		t.Fatalf("failed to write cookie file: %v", err)
	}

	store := NewStore()
	w, err := NewWatcher(store, path)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer func() { _ = w.Close() }()

	if !store.IsAuthenticated() {
		t.Fatal("cookie file not loaded on startup")
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove cookie file: %v", err)
	}
	if !waitFor(t, 3*time.Second, func() bool { return !store.IsAuthenticated() }) {
		t.Error("deleted cookie file did not clear the credential")
	}
}

func TestWatcher_InvalidContentKeepsPriorCredential(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cookie")
	if err := os.WriteFile(path, []byte(validCookie()), 0o600); err != nil {
		t.Fatalf("failed to write cookie file: %v", err)
	}

	store := NewStore()
	w, err := NewWatcher(store, path)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer func() { _ = w.Close() }()

	if err := os.WriteFile(path, []byte("garbage"), 0o600); err != nil {
		t.Fatalf("failed to overwrite cookie file: %v", err)
	}

	// Invalid content is rejected at the validation boundary; the store
	// keeps the last good credential.
	time.Sleep(500 * time.Millisecond)
	if !store.IsAuthenticated() {
		t.Error("invalid cookie content cleared a valid credential")
	}
}

func TestWatcher_CloseIdempotent(t *testing.T) {
	dir := t.TempDir()
	store := NewStore()
	w, err := NewWatcher(store, filepath.Join(dir, "cookie"))
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
