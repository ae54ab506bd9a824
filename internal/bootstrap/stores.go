package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/eleven-am/agent-widget/internal/agent"
	"github.com/eleven-am/agent-widget/internal/apikey"
	"github.com/eleven-am/agent-widget/internal/session"
	"github.com/eleven-am/agent-widget/internal/user"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideUserStore(db *gorm.DB) *user.Store {
	return user.NewStore(db)
}

func ProvideAgentStore(db *gorm.DB) *agent.Store {
	return agent.NewStore(db)
}

func ProvideAPIKeyStore(db *gorm.DB) *apikey.Store {
	return apikey.NewStore(db)
}

func ProvideSessionStore(redisClient *redis.Client) *session.Store {
	return session.NewStore(redisClient)
}

type migrator interface {
	Migrate() error
}

// RunMigrations creates the relational tables before any handler is mounted.
func RunMigrations(userStore *user.Store, agentStore *agent.Store, apiKeyStore *apikey.Store, logger *slog.Logger) error {
	steps := []struct {
		table string
		store migrator
	}{
		{"users", userStore},
		{"agents", agentStore},
		{"api_keys", apiKeyStore},
	}
	for _, step := range steps {
		if err := step.store.Migrate(); err != nil {
			return fmt.Errorf("migrate %s: %w", step.table, err)
		}
	}
	logger.Debug("migrations applied", "tables", len(steps))
	return nil
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideUserStore,
		ProvideAgentStore,
		ProvideAPIKeyStore,
		ProvideSessionStore,
	),
	fx.Invoke(RunMigrations),
)
