package google

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"

	"golang.org/x/oauth2"
)

// DefaultAccount is the token account used when none is configured.
const DefaultAccount = "default"

// cacheSubdir is the directory under the user cache dir holding token files.
const cacheSubdir = "availcheck"

var accountNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// TokenProvider provides OAuth tokens for Google APIs per named account.
type TokenProvider interface {
	// TokenSource returns a refreshing token source for the account.
	TokenSource(ctx context.Context, account string) (oauth2.TokenSource, error)

	// HasToken reports whether a stored token exists for the account.
	HasToken(account string) bool
}

// FileTokenProvider stores user tokens on disk, one file per account.
type FileTokenProvider struct {
	conf *oauth2.Config
	dir  string
}

// NewFileTokenProvider creates a file-based token provider rooted in the
// user cache directory.
func NewFileTokenProvider(conf *oauth2.Config) *FileTokenProvider {
	return NewFileTokenProviderInDir(conf, TokenDir())
}

// NewFileTokenProviderInDir creates a file-based token provider rooted in dir.
func NewFileTokenProviderInDir(conf *oauth2.Config, dir string) *FileTokenProvider {
	return &FileTokenProvider{conf: conf, dir: dir}
}

// TokenDir returns the default directory for token files.
func TokenDir() string {
	return filepath.Join(userCacheDir(), cacheSubdir)
}

// TokenPath returns the token file for the account.
func (p *FileTokenProvider) TokenPath(account string) (string, error) {
	if err := validateAccountName(account); err != nil {
		return "", err
	}
	return filepath.Join(p.dir, tokenFileName(account)), nil
}

// HasToken checks if a token file exists for the account.
func (p *FileTokenProvider) HasToken(account string) bool {
	path, err := p.TokenPath(account)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// TokenSource loads the stored token for the account and returns a source
// that refreshes it as needed.
func (p *FileTokenProvider) TokenSource(ctx context.Context, account string) (oauth2.TokenSource, error) {
	path, err := p.TokenPath(account)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no Google OAuth token found for account %q: %s", account, AuthenticationErrorMessage(account))
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", path, err)
	}
	if tok.RefreshToken == "" && tok.AccessToken == "" {
		return nil, fmt.Errorf("token file %s holds no credentials", path)
	}

	return p.conf.TokenSource(ctx, &tok), nil
}

// AuthURL returns the consent URL the user opens to authorize the account.
func (p *FileTokenProvider) AuthURL(account string) string {
	return p.conf.AuthCodeURL("availcheck-"+account, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token and stores it for the account.
func (p *FileTokenProvider) Exchange(ctx context.Context, account, code string) error {
	path, err := p.TokenPath(account)
	if err != nil {
		return err
	}

	tok, err := p.conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}

	return saveToken(path, tok)
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// AuthenticationErrorMessage tells the user how to authorize an account.
func AuthenticationErrorMessage(account string) string {
	return fmt.Sprintf("Google OAuth token for account %q is missing or invalid; run `availcheck auth --account %s` to authorize", account, account)
}

func validateAccountName(account string) error {
	if account == "" {
		return fmt.Errorf("account name cannot be empty")
	}
	if !accountNamePattern.MatchString(account) {
		return fmt.Errorf("invalid account name %q: only letters, digits, hyphens and underscores are allowed", account)
	}
	return nil
}

func tokenFileName(account string) string {
	return "google-" + account + ".token"
}

func userCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil && dir != "" {
		return dir
	}
	if runtime.GOOS == "windows" {
		return os.TempDir()
	}
	return filepath.Join(os.Getenv("HOME"), ".cache")
}
