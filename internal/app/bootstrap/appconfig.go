// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration: HTTP ports, TLS, log
// level and the like live in WAFFLE's CoreConfig.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connections in the driver pool
	MongoMinPoolSize uint64 // Min connections kept warm in the pool

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: gramvani-session)
	SessionDomain string // Cookie domain (blank means current host)

	// Outbound message webhooks. A blank URL leaves that channel
	// unconfigured; sends on it are refused until it is set.
	WhatsAppWebhookURL string
	SMSWebhookURL      string
	VoiceWebhookURL    string

	// Dispatch pacing and number formatting
	DispatchDelay time.Duration // Fixed pause between webhook calls
	CountryCode   string        // Prefix for bare 10-digit numbers (e.g., "91")

	// Activity logging: "all" (db+log), "db", "log", or "off"
	ActivityLogMode string

	// Main admin bootstrap. When both are set, an account with this
	// email is created (or promoted) on startup.
	MainAdminEmail    string
	MainAdminPassword string

	// Rate limits
	LoginRateLimit  int           // Login attempts per client per window
	LoginRateWindow time.Duration // Window for the login limit
	SendRateLimit   int           // Message batches per client per window
	SendRateWindow  time.Duration // Window for the send limit
}
