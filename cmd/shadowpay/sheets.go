package main

import (
	"fmt"

	"github.com/Veraticus/shadow-payroll/internal/cli"
	"github.com/Veraticus/shadow-payroll/internal/common"
	"github.com/Veraticus/shadow-payroll/internal/config"
	"github.com/Veraticus/shadow-payroll/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func sheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Google Sheets export setup",
	}
	cmd.AddCommand(sheetsAuthCmd())
	return cmd
}

func sheetsAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with Google Sheets",
		Long: `Authenticate with Google Sheets using OAuth2.

This command will:
1. Print a Google consent URL to open in your browser
2. Receive the redirect on a local port
3. Save the token so later exports can refresh it

Set sheets.client_id and sheets.client_secret in config, pass the flags, or
export GOOGLE_SHEETS_CLIENT_ID and GOOGLE_SHEETS_CLIENT_SECRET.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			oauth := config.SheetsOAuth2Config(viper.GetViper())
			if id, _ := cmd.Flags().GetString("client-id"); id != "" {
				oauth.ClientID = id
			}
			if secret, _ := cmd.Flags().GetString("client-secret"); secret != "" {
				oauth.ClientSecret = secret
			}
			if oauth.ClientID == "" || oauth.ClientSecret == "" {
				return common.NewUserError(
					"OAuth2 credentials not found; set sheets.client_id and sheets.client_secret or use --client-id and --client-secret",
					common.ErrMissingConfig)
			}

			out := cmd.OutOrStdout()
			token, err := sheets.AuthenticateOAuth2Interactive(cmd.Context(), oauth, func(authURL string) {
				fmt.Fprintln(out, cli.FormatInfo("Open this URL in your browser to authorize access:"))
				fmt.Fprintln(out, authURL)
			})
			if err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}
			if token.RefreshToken == "" {
				fmt.Fprintln(out, cli.FormatWarning("Google returned no refresh token; revoke the app's access and run this again."))
			}

			fmt.Fprintln(out, cli.FormatSuccess("Token saved to "+oauth.TokenFile))
			return nil
		},
	}

	cmd.Flags().String("client-id", "", "OAuth2 client ID (overrides config)")
	cmd.Flags().String("client-secret", "", "OAuth2 client secret (overrides config)")
	return cmd
}
