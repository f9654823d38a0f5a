package credentials_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/Entalpic/entaldocs/internal/console"
	"github.com/Entalpic/entaldocs/internal/credentials"
)

func TestTokenPromptsOnceThenReadsFromStore(t *testing.T) {
	keyring.MockInit()

	prompt := &console.Scripted{Answers: []string{"tok_123"}}
	resolver := &credentials.Resolver{Store: credentials.Keyring(), Prompt: prompt}

	got, err := resolver.Token(credentials.GitHubPAT)
	if err != nil {
		t.Fatalf("first Token returned error: %v", err)
	}
	if got != "tok_123" {
		t.Fatalf("first Token = %q", got)
	}

	// The second resolution must come from the store, not the prompt.
	got, err = resolver.Token(credentials.GitHubPAT)
	if err != nil {
		t.Fatalf("second Token returned error: %v", err)
	}
	if got != "tok_123" {
		t.Fatalf("second Token = %q", got)
	}
	if len(prompt.Questions) != 1 {
		t.Fatalf("prompted %d times, want 1", len(prompt.Questions))
	}
}

func TestTokenRejectsEmptyAnswer(t *testing.T) {
	keyring.MockInit()

	prompt := &console.Scripted{Answers: []string{"   "}}
	resolver := &credentials.Resolver{Store: credentials.Keyring(), Prompt: prompt}

	if _, err := resolver.Token(credentials.GitHubPAT); err == nil {
		t.Fatalf("expected error for whitespace-only token")
	}
}

func TestTokenWithoutPrompterFails(t *testing.T) {
	keyring.MockInit()

	resolver := &credentials.Resolver{Store: credentials.Keyring()}
	_, err := resolver.Token(credentials.GitHubPAT)
	if err == nil {
		t.Fatalf("expected error when no token is stored and prompting is impossible")
	}
	if !strings.Contains(err.Error(), "set-github-pat") {
		t.Fatalf("error should point at set-github-pat: %v", err)
	}
}

type brokenStore struct {
	sets int
}

func (brokenStore) Get(_, _ string) (string, error) {
	return "", errors.New("dbus: no session bus")
}

func (b *brokenStore) Set(_, _, _ string) error {
	b.sets++
	return nil
}

func TestTokenDegradesWhenBackendUnavailable(t *testing.T) {
	store := &brokenStore{}
	var info bytes.Buffer
	prompt := &console.Scripted{Answers: []string{"tok_degraded"}}
	resolver := &credentials.Resolver{Store: store, Prompt: prompt, Info: &info}

	got, err := resolver.Token(credentials.GitHubPAT)
	if err != nil {
		t.Fatalf("Token returned error: %v", err)
	}
	if got != "tok_degraded" {
		t.Fatalf("Token = %q", got)
	}
	if store.sets != 0 {
		t.Fatalf("degraded resolver persisted the token")
	}
	notice := info.String()
	if !strings.Contains(notice, "keyring unavailable") {
		t.Fatalf("missing degraded-mode notice: %q", notice)
	}
	if strings.Contains(notice, "tok_degraded") {
		t.Fatalf("notice leaked the secret: %q", notice)
	}
}

func TestSave(t *testing.T) {
	keyring.MockInit()

	resolver := &credentials.Resolver{Store: credentials.Keyring()}
	if err := resolver.Save(credentials.GitHubPAT, " tok_flag \n"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	got, err := resolver.Store.Get(credentials.Service, credentials.GitHubPAT)
	if err != nil {
		t.Fatalf("Get after Save: %v", err)
	}
	if got != "tok_flag" {
		t.Fatalf("stored token = %q, want trimmed value", got)
	}

	if err := resolver.Save(credentials.GitHubPAT, "  "); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func TestKeyringGetMapsMissingEntry(t *testing.T) {
	keyring.MockInit()

	_, err := credentials.Keyring().Get(credentials.Service, "nonexistent")
	if !errors.Is(err, credentials.ErrNotFound) {
		t.Fatalf("Get for missing entry = %v, want ErrNotFound", err)
	}
}
