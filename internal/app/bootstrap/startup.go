// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	userstore "github.com/prabhatdev/gramvani/internal/app/store/users"
)

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
//
// The only work needed here is seeding the main admin account. Every
// other account descends from it, so a fresh deployment is unusable
// until this runs.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if appCfg.MainAdminEmail == "" {
		logger.Info("main admin seeding skipped (main_admin_email not set)")
		return nil
	}

	users := userstore.New(deps.GramVaniMongoDatabase)
	u, err := users.EnsureMainAdmin(ctx, appCfg.MainAdminEmail, appCfg.MainAdminPassword)
	if err != nil {
		logger.Error("main admin seeding failed", zap.Error(err))
		return err
	}
	logger.Info("main admin ensured",
		zap.String("email", u.Email),
		zap.String("id", u.ID.Hex()))
	return nil
}
