package config

import (
	"os"

	"github.com/Veraticus/shadow-payroll/internal/sheets"
	"github.com/spf13/viper"
)

// DefaultSheetsTokenFile is where the OAuth2 flow saves its token.
const DefaultSheetsTokenFile = "~/.config/shadowpay/sheets_token.json"

// LoadSheetsConfig loads Google Sheets configuration from v and the environment.
// It follows this precedence:
// 1. Viper configuration (from config file or SHADOWPAY_ env vars)
// 2. Direct environment variables (GOOGLE_SHEETS_*)
// 3. The token saved by `shadowpay sheets auth`, for the refresh token
// 4. Default values
func LoadSheetsConfig(v *viper.Viper) (sheets.Config, error) {
	config := sheets.DefaultConfig()

	config.ServiceAccountPath = ExpandPath(firstNonEmpty(
		v.GetString("sheets.service_account_path"), os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH")))
	config.ClientID = firstNonEmpty(v.GetString("sheets.client_id"), os.Getenv("GOOGLE_SHEETS_CLIENT_ID"))
	config.ClientSecret = firstNonEmpty(v.GetString("sheets.client_secret"), os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET"))
	config.RefreshToken = firstNonEmpty(v.GetString("sheets.refresh_token"), os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN"))
	if config.RefreshToken == "" && config.ClientID != "" {
		tokenFile := ExpandPath(firstNonEmpty(v.GetString("sheets.token_file"), DefaultSheetsTokenFile))
		if token, err := sheets.LoadToken(tokenFile); err == nil {
			config.RefreshToken = token.RefreshToken
		}
	}
	config.SpreadsheetID = firstNonEmpty(v.GetString("sheets.spreadsheet_id"), os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"))
	config.SpreadsheetName = firstNonEmpty(
		v.GetString("sheets.spreadsheet_name"), os.Getenv("GOOGLE_SHEETS_SPREADSHEET_NAME"), config.SpreadsheetName)

	if tz := v.GetString("sheets.time_zone"); tz != "" {
		config.TimeZone = tz
	}
	if v.IsSet("sheets.batch_size") {
		config.BatchSize = v.GetInt("sheets.batch_size")
	}
	if v.IsSet("sheets.retry_attempts") {
		config.RetryAttempts = v.GetInt("sheets.retry_attempts")
	}
	if v.IsSet("sheets.retry_delay") {
		config.RetryDelay = v.GetDuration("sheets.retry_delay")
	}
	if v.IsSet("sheets.formatting") {
		config.EnableFormatting = v.GetBool("sheets.formatting")
	}

	if err := config.Validate(); err != nil {
		return sheets.Config{}, err
	}

	return config, nil
}

// SheetsOAuth2Config returns the client used by the interactive authorization flow.
func SheetsOAuth2Config(v *viper.Viper) sheets.OAuth2Config {
	return sheets.OAuth2Config{
		ClientID:     firstNonEmpty(v.GetString("sheets.client_id"), os.Getenv("GOOGLE_SHEETS_CLIENT_ID")),
		ClientSecret: firstNonEmpty(v.GetString("sheets.client_secret"), os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")),
		TokenFile:    ExpandPath(firstNonEmpty(v.GetString("sheets.token_file"), DefaultSheetsTokenFile)),
		CallbackAddr: v.GetString("sheets.callback_addr"),
	}
}
