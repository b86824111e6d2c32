package google

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Options select the credentials used to reach Google APIs.
type Options struct {
	// CredentialsFile is an OAuth client secret ("installed" or "web") or a
	// service account key. Empty means Application Default Credentials.
	CredentialsFile string

	// Account names the stored user token used with OAuth client credentials.
	Account string

	// Subject is the user a service account impersonates through
	// domain-wide delegation. Optional.
	Subject string
}

// Credential file kinds.
const (
	KindOAuthClient    = "oauth_client"
	KindServiceAccount = "service_account"
	KindOther          = "other"
)

// CredentialKind inspects a credentials JSON document.
func CredentialKind(data []byte) (string, error) {
	var kind struct {
		Type      string          `json:"type"`
		Installed json.RawMessage `json:"installed"`
		Web       json.RawMessage `json:"web"`
	}
	if err := json.Unmarshal(data, &kind); err != nil {
		return "", fmt.Errorf("credentials are not valid JSON: %w", err)
	}

	switch {
	case kind.Installed != nil || kind.Web != nil:
		return KindOAuthClient, nil
	case kind.Type == KindServiceAccount:
		return KindServiceAccount, nil
	default:
		return KindOther, nil
	}
}

// OAuthConfig reads an OAuth client secret file.
func OAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	kind, err := CredentialKind(data)
	if err != nil {
		return nil, err
	}
	if kind != KindOAuthClient {
		return nil, fmt.Errorf("credentials file %s is not an OAuth client secret", credentialsFile)
	}
	conf, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OAuth client secret: %w", err)
	}
	return conf, nil
}

// TokenSource resolves opts into a token source.
func TokenSource(ctx context.Context, opts Options) (oauth2.TokenSource, error) {
	if opts.CredentialsFile == "" {
		creds, err := google.FindDefaultCredentials(ctx, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("failed to find default Google credentials: %w", err)
		}
		return creds.TokenSource, nil
	}

	data, err := os.ReadFile(opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	kind, err := CredentialKind(data)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindOAuthClient:
		conf, err := google.ConfigFromJSON(data, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse OAuth client secret: %w", err)
		}
		account := opts.Account
		if account == "" {
			account = DefaultAccount
		}
		return NewFileTokenProvider(conf).TokenSource(ctx, account)

	case KindServiceAccount:
		if opts.Subject != "" {
			jwtConf, err := google.JWTConfigFromJSON(data, Scopes...)
			if err != nil {
				return nil, fmt.Errorf("failed to parse service account key: %w", err)
			}
			jwtConf.Subject = opts.Subject
			return jwtConf.TokenSource(ctx), nil
		}
		fallthrough

	default:
		creds, err := google.CredentialsFromJSON(ctx, data, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse credentials: %w", err)
		}
		return creds.TokenSource, nil
	}
}

// HTTPClient returns an authenticated client that speaks HTTP/1.1 only,
// avoiding HTTP/2 stream errors seen with the Google APIs.
func HTTPClient(ts oauth2.TokenSource) *http.Client {
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     false,
		TLSNextProto:          map[string]func(string, *tls.Conn) http.RoundTripper{},
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.ReuseTokenSource(nil, ts),
			Base:   base,
		},
	}
}

// NewHTTPClient resolves opts and returns an authenticated HTTP client.
func NewHTTPClient(ctx context.Context, opts Options) (*http.Client, error) {
	ts, err := TokenSource(ctx, opts)
	if err != nil {
		return nil, err
	}
	return HTTPClient(ts), nil
}
