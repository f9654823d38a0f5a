// Package credentials resolves and stores the GitHub Personal Access Token
// used to fetch boilerplate from the remote repository.
//
// Resolution prefers the platform keyring. When the token is missing it is
// prompted for (input hidden) and persisted for the next invocation. When the
// keyring backend itself is unavailable the resolver degrades to prompting on
// every run instead of failing; the token is then never written anywhere.
package credentials

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/Entalpic/entaldocs/internal/cmderr"
	"github.com/Entalpic/entaldocs/internal/console"
)

// Service is the keyring service identifier for this tool.
const Service = "entaldocs"

// GitHubPAT is the keyring account name for the GitHub token.
const GitHubPAT = "github_pat"

// ErrNotFound reports that the store holds no secret for the account.
var ErrNotFound = errors.New("credentials: not found")

// SecretStore is the minimal secure key-value interface the resolver needs.
type SecretStore interface {
	Get(service, account string) (string, error)
	Set(service, account, secret string) error
}

// Keyring returns the platform keyring as a SecretStore.
func Keyring() SecretStore {
	return keyringStore{}
}

type keyringStore struct{}

func (keyringStore) Get(service, account string) (string, error) {
	secret, err := keyring.Get(service, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("keyring get: %w", err)
	}
	return secret, nil
}

func (keyringStore) Set(service, account, secret string) error {
	if err := keyring.Set(service, account, secret); err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}

// Resolver produces tokens from the store, prompting when needed.
type Resolver struct {
	Store  SecretStore
	Prompt console.Prompter
	// Info receives operator-facing notices (never the secret itself).
	Info io.Writer
}

// Token resolves the secret for account, prompting and persisting it when the
// store has no entry. A store backend failure is treated as "keyring
// unavailable": the token is prompted for and returned without persistence.
func (r *Resolver) Token(account string) (string, error) {
	degraded := false
	secret, err := r.Store.Get(Service, account)
	switch {
	case err == nil && secret != "":
		return secret, nil
	case err != nil && !errors.Is(err, ErrNotFound):
		degraded = true
		r.notice("system keyring unavailable (%v); the token will not be saved", err)
	}

	secret, err = r.prompt(account)
	if err != nil {
		return "", err
	}

	if !degraded {
		if err := r.Store.Set(Service, account, secret); err != nil {
			r.notice("could not save token to the system keyring (%v)", err)
		}
	}
	return secret, nil
}

// Save validates and stores a token without prompting. Used by
// set-github-pat when the token is passed as a flag.
func (r *Resolver) Save(account, secret string) error {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return cmderr.New(cmderr.KindCredential, "token cannot be empty")
	}
	if err := r.Store.Set(Service, account, secret); err != nil {
		return cmderr.Wrap(cmderr.KindCredential, err, "save token")
	}
	return nil
}

func (r *Resolver) prompt(account string) (string, error) {
	if r.Prompt == nil {
		return "", cmderr.New(cmderr.KindCredential,
			"no stored token for %s and no way to prompt; run `entaldocs set-github-pat`", account)
	}
	secret, err := r.Prompt.Secret("Enter your GitHub PAT")
	if err != nil {
		return "", cmderr.Wrap(cmderr.KindCredential, err, "prompt for token")
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return "", cmderr.New(cmderr.KindCredential, "token cannot be empty")
	}
	return secret, nil
}

func (r *Resolver) notice(format string, args ...any) {
	if r.Info == nil {
		return
	}
	fmt.Fprintf(r.Info, format+"\n", args...)
}
