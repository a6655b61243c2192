// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	activityfeature "github.com/prabhatdev/gramvani/internal/app/features/activity"
	allocationsfeature "github.com/prabhatdev/gramvani/internal/app/features/allocations"
	contactsfeature "github.com/prabhatdev/gramvani/internal/app/features/contacts"
	healthfeature "github.com/prabhatdev/gramvani/internal/app/features/health"
	loginfeature "github.com/prabhatdev/gramvani/internal/app/features/login"
	logoutfeature "github.com/prabhatdev/gramvani/internal/app/features/logout"
	messagesfeature "github.com/prabhatdev/gramvani/internal/app/features/messages"
	usersfeature "github.com/prabhatdev/gramvani/internal/app/features/users"
	"github.com/prabhatdev/gramvani/internal/app/store/activitylog"
	allocationstore "github.com/prabhatdev/gramvani/internal/app/store/allocations"
	contactstore "github.com/prabhatdev/gramvani/internal/app/store/contacts"
	"github.com/prabhatdev/gramvani/internal/app/store/messagelog"
	userstore "github.com/prabhatdev/gramvani/internal/app/store/users"
	actsvc "github.com/prabhatdev/gramvani/internal/app/system/activity"
	"github.com/prabhatdev/gramvani/internal/app/system/allocator"
	"github.com/prabhatdev/gramvani/internal/app/system/auth"
	"github.com/prabhatdev/gramvani/internal/app/system/dispatch"
	"github.com/prabhatdev/gramvani/internal/app/system/ratelimit"
	"github.com/prabhatdev/gramvani/internal/app/system/resolver"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and the Startup hook have completed. It builds the stores and domain
// services once, applies session middleware, and mounts a feature
// router per application area: login, users, contacts, allocations,
// messages, and the activity log.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.GramVaniMongoDatabase
	users := userstore.New(db)
	contacts := contactstore.New(db)
	allocations := allocationstore.New(db)
	msgLog := messagelog.New(db)
	actLog := activitylog.New(db)

	activity := actsvc.New(actLog, logger, appCfg.ActivityLogMode)
	allocMgr := allocator.New(allocations, contacts, logger)
	recipients := resolver.New(allocations, contacts)
	engine := dispatch.New(dispatch.Config{
		WhatsAppURL: appCfg.WhatsAppWebhookURL,
		SMSURL:      appCfg.SMSWebhookURL,
		VoiceURL:    appCfg.VoiceWebhookURL,
		Delay:       appCfg.DispatchDelay,
		CountryCode: appCfg.CountryCode,
	}, msgLog, logger)

	loginLimiter := ratelimit.New(appCfg.LoginRateLimit, appCfg.LoginRateWindow)
	sendLimiter := ratelimit.New(appCfg.SendRateLimit, appCfg.SendRateWindow)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.GramVaniMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication. Login is rate limited to slow credential guessing.
	loginHandler := loginfeature.NewHandler(users, sessionMgr, activity, logger)
	r.Group(func(gr chi.Router) {
		gr.Use(loginLimiter.Middleware)
		gr.Mount("/login", loginfeature.Routes(loginHandler))
	})

	logoutHandler := logoutfeature.NewHandler(sessionMgr, activity, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Account hierarchy management
	usersHandler := usersfeature.NewHandler(users, activity, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler, sessionMgr))

	// Contact data (CSV upload, scope listings, export)
	contactsHandler := contactsfeature.NewHandler(contacts, activity, logger)
	r.Mount("/contacts", contactsfeature.Routes(contactsHandler, sessionMgr))

	// District/village allocations with access windows
	allocationsHandler := allocationsfeature.NewHandler(allocMgr, users, activity, logger)
	r.Mount("/allocations", allocationsfeature.Routes(allocationsHandler, sessionMgr))

	// Message dispatch and its log. The send route carries its own
	// rate limit so one batch-happy client cannot saturate the webhook.
	messagesHandler := messagesfeature.NewHandler(recipients, engine, contacts, allocations, msgLog, activity, logger)
	r.Mount("/messages", messagesfeature.Routes(messagesHandler, sessionMgr, func(sr chi.Router) {
		sr.Use(sendLimiter.Middleware)
	}))

	// Activity log
	activityHandler := activityfeature.NewHandler(actLog, activity, logger)
	r.Mount("/activity", activityfeature.Routes(activityHandler, sessionMgr))

	return r, nil
}
