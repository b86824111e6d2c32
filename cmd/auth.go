package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/availcheck/internal/google"
)

func newAuthCmd() *cobra.Command {
	var (
		account string
		code    string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize a Google account for OAuth client credentials",
		Long: `Run the OAuth consent flow for a Google account and store its token.

Only needed when credentials_file is an OAuth client secret. Service account
keys and application default credentials need no stored token.

The command prints a consent URL. Open it, approve access, and paste the
authorization code back (or pass it with --code).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("account") {
				cfg.Account = account
			}
			if cfg.Account == "" {
				cfg.Account = google.DefaultAccount
			}
			if cfg.CredentialsFile == "" {
				return fmt.Errorf("credentials_file is required for OAuth authorization")
			}

			conf, err := google.OAuthConfig(cfg.CredentialsFile)
			if err != nil {
				return err
			}
			return runAuth(cmd, google.NewFileTokenProvider(conf), cfg.Account, code)
		},
	}

	cmd.Flags().StringVar(&account, "account", google.DefaultAccount, "Account name to store the token under")
	cmd.Flags().StringVar(&code, "code", "", "Authorization code (prompted for when empty)")

	return cmd
}

// tokenExchanger is the part of the token provider the auth flow needs.
type tokenExchanger interface {
	AuthURL(account string) string
	Exchange(ctx context.Context, account, code string) error
	TokenPath(account string) (string, error)
}

func runAuth(cmd *cobra.Command, p tokenExchanger, account, code string) error {
	out := cmd.OutOrStdout()

	if code == "" {
		fmt.Fprintf(out, "Open the following URL in your browser to authorize account %q:\n\n%s\n\n", account, p.AuthURL(account))
		fmt.Fprint(out, "Enter the authorization code: ")
		var err error
		code, err = readCode(cmd.InOrStdin())
		if err != nil {
			return err
		}
	}

	if err := p.Exchange(cmd.Context(), account, code); err != nil {
		return err
	}

	path, err := p.TokenPath(account)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Token for account %q saved to %s\n", account, path)
	return nil
}

func readCode(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read authorization code: %w", err)
	}
	code := strings.TrimSpace(line)
	if code == "" {
		return "", fmt.Errorf("authorization code is empty")
	}
	return code, nil
}
