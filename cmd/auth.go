package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/calbook/internal/google"
)

func newAuthCmd() *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize calbook to use a Google calendar",
		Long: `Print the Google authorization URL for the configured account, then
exchange the returned code for a token stored in the token directory.

The code is read from --code or, if not given, from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := google.ValidateAccountName(cfg.Account); err != nil {
				return err
			}
			creds := cfg.Credentials()
			if creds.ClientID == "" || creds.ClientSecret == "" {
				return fmt.Errorf("google client ID and secret are required (--google-client-id/--google-client-secret or GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET)")
			}

			tp := google.NewFileTokenProvider(cfg.ResolvedTokenDir(), creds)
			out := cmd.OutOrStdout()

			if code == "" {
				fmt.Fprintf(out, "Visit this URL to authorize account %q:\n\n%s\n\nEnter the authorization code: ", cfg.Account, tp.AuthURL(cfg.Account))
				scanner := bufio.NewScanner(cmd.InOrStdin())
				if !scanner.Scan() {
					if err := scanner.Err(); err != nil {
						return fmt.Errorf("failed to read authorization code: %w", err)
					}
					return fmt.Errorf("no authorization code given")
				}
				code = strings.TrimSpace(scanner.Text())
			}
			if code == "" {
				return fmt.Errorf("no authorization code given")
			}

			if err := tp.Exchange(cmd.Context(), cfg.Account, code); err != nil {
				return err
			}
			fmt.Fprintf(out, "Token for account %q stored in %s\n", cfg.Account, tp.Dir())
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Authorization code returned by Google")
	return cmd
}
