// internal/app/bootstrap/startup.go
package bootstrap

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies an account
//   - Identifier: the raw string the user typed to sign in (email or digits)

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"github.com/easywish/launchpad/internal/app/store/audit"
	userstore "github.com/easywish/launchpad/internal/app/store/users"
	"github.com/easywish/launchpad/internal/app/system/authutil"
	"github.com/easywish/launchpad/internal/app/system/tasks"
	"github.com/easywish/launchpad/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// This is the place for one-time initialization that depends on having live
// database connections and fully loaded configuration.
//
// Returning a non-nil error will abort startup and prevent the server from
// starting.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	// Seed admin account if configured
	if appCfg.SeedAdminEmail != "" {
		if err := ensureAdminAccount(ctx, deps, appCfg.SeedAdminEmail, appCfg.SeedAdminPassword, logger); err != nil {
			logger.Error("failed to seed admin account", zap.Error(err))
			return err
		}
	}

	warnIfNoActiveAdmin(ctx, deps, logger)

	// Start background task runner
	startTaskRunner(deps.MongoDatabase, appCfg, logger)

	return nil
}

// warnIfNoActiveAdmin flags a deployment where nobody can reach the admin
// area. Not fatal: the user-facing flows still work without an admin.
func warnIfNoActiveAdmin(ctx context.Context, deps DBDeps, logger *zap.Logger) {
	accounts := userstore.New(deps.MongoDatabase)
	n, err := accounts.CountActiveAdmins(ctx)
	if err != nil {
		logger.Warn("could not count active admin accounts", zap.Error(err))
		return
	}
	if n == 0 {
		logger.Warn("no active admin accounts exist; set seed_admin_email to create one")
	}
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// startTaskRunner initializes and starts the background task runner.
func startTaskRunner(db *mongo.Database, appCfg AppConfig, logger *zap.Logger) {
	taskRunner = tasks.New(logger)

	// Register cleanup jobs
	taskRunner.Register(tasks.RateLimitCleanupJob(db, logger))
	taskRunner.Register(tasks.AuditRetentionJob(db, logger, appCfg.AuditRetention))

	// Start running jobs
	taskRunner.Start()
}

// ensureAdminAccount ensures an admin account exists with the given email.
// If an account exists with this email, ensure it has the admin role.
// If no account exists, create one with the configured password.
func ensureAdminAccount(ctx context.Context, deps DBDeps, email, password string, logger *zap.Logger) error {
	db := deps.MongoDatabase
	accounts := userstore.New(db)
	auditStore := audit.New(db)

	existing, err := accounts.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	if existing != nil {
		if existing.Role == models.RoleAdmin {
			logger.Debug("admin account already configured", zap.String("email", existing.Email))
			return nil
		}

		if err := accounts.UpdateRole(ctx, existing.ID, models.RoleAdmin); err != nil {
			return err
		}
		logger.Info("promoted existing account to admin",
			zap.String("email", existing.Email),
			zap.String("user_id", existing.ID.Hex()),
			zap.String("previous_role", existing.Role))

		_ = auditStore.Log(ctx, audit.Event{
			Category:  audit.CategoryAdmin,
			EventType: audit.EventAdminSeeded,
			UserID:    &existing.ID,
			Success:   true,
			Details:   map[string]string{"action": "promoted"},
		})
		return nil
	}

	if password == "" {
		return fmt.Errorf("seed_admin_password is required to create admin account %q", email)
	}
	if err := authutil.ValidatePassword(password); err != nil {
		return fmt.Errorf("seed admin password rejected: %w", err)
	}

	hash, err := authutil.HashPassword(password)
	if err != nil {
		return err
	}

	created, err := accounts.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: &hash,
		Role:         models.RoleAdmin,
		Status:       models.StatusActive,
	})
	if err != nil {
		return err
	}

	logger.Info("created admin account",
		zap.String("email", created.Email),
		zap.String("user_id", created.ID.Hex()))

	_ = auditStore.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventAdminSeeded,
		UserID:    &created.ID,
		Success:   true,
		Details:   map[string]string{"action": "created"},
	})
	return nil
}
