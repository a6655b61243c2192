// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for GramVani.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: GRAMVANI_MONGO_URI, GRAMVANI_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "gramvani", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "gramvani-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},

	// Outbound message channels. A blank URL disables that channel.
	{Name: "whatsapp_webhook_url", Default: "", Desc: "Webhook URL for WhatsApp sends"},
	{Name: "sms_webhook_url", Default: "", Desc: "Webhook URL for SMS sends"},
	{Name: "voice_webhook_url", Default: "", Desc: "Webhook URL for voice-call sends"},
	{Name: "dispatch_delay", Default: "1s", Desc: "Fixed pause between webhook calls (e.g., 1s, 500ms)"},
	{Name: "country_code", Default: "91", Desc: "Country code prepended to bare 10-digit numbers"},

	// Activity logging
	{Name: "activity_log", Default: "all", Desc: "Activity logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Main admin bootstrap
	{Name: "main_admin_email", Default: "", Desc: "Email of the main admin (created/promoted on startup)"},
	{Name: "main_admin_password", Default: "", Desc: "Initial password for the main admin"},

	// Rate limits
	{Name: "login_rate_limit", Default: 10, Desc: "Login attempts allowed per client per window"},
	{Name: "login_rate_window", Default: "1m", Desc: "Window for the login rate limit"},
	{Name: "send_rate_limit", Default: 5, Desc: "Message batches allowed per client per window"},
	{Name: "send_rate_window", Default: "1m", Desc: "Window for the send rate limit"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
// CoreConfig comes from the shared WAFFLE layer; AppConfig is specific
// to this app and can be extended as the app grows.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "GRAMVANI", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		WhatsAppWebhookURL: appValues.String("whatsapp_webhook_url"),
		SMSWebhookURL:      appValues.String("sms_webhook_url"),
		VoiceWebhookURL:    appValues.String("voice_webhook_url"),
		DispatchDelay:      appValues.Duration("dispatch_delay", time.Second),
		CountryCode:        appValues.String("country_code"),

		ActivityLogMode: appValues.String("activity_log"),

		MainAdminEmail:    appValues.String("main_admin_email"),
		MainAdminPassword: appValues.String("main_admin_password"),

		LoginRateLimit:  appValues.Int("login_rate_limit"),
		LoginRateWindow: appValues.Duration("login_rate_window", time.Minute),
		SendRateLimit:   appValues.Int("send_rate_limit"),
		SendRateWindow:  appValues.Duration("send_rate_window", time.Minute),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// This is the right place to enforce required fields or invariants that
// involve both the core and app configs.
//
// The MongoDB URI format is validated here to catch configuration
// errors early, before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	// The dev default key must never reach production.
	if coreCfg.Env == "prod" && appCfg.SessionKey == "dev-only-change-me-please-0123456789ABCDEF" {
		return fmt.Errorf("session_key must be set to a strong value in production")
	}

	if appCfg.DispatchDelay < 0 {
		return fmt.Errorf("dispatch_delay must not be negative")
	}

	// Seeding needs both halves or neither.
	if (appCfg.MainAdminEmail == "") != (appCfg.MainAdminPassword == "") {
		return fmt.Errorf("main_admin_email and main_admin_password must be set together")
	}

	return nil
}
