package cli

import (
	"context"

	"github.com/tablecast/signage/internal/database"
	"github.com/tablecast/signage/internal/pkg/objectstore"
	"github.com/tablecast/signage/internal/pkg/resilience"
	"gorm.io/gorm"
)

func (rt *state) openStore(ctx context.Context) (objectstore.Gateway, error) {
	if err := rt.requireStorage(); err != nil {
		return nil, err
	}
	r := rt.cfg.Resilience
	policy := resilience.New(resilience.Options{
		Name:            "storage",
		MaxAttempts:     r.MaxAttempts,
		InitialInterval: r.InitialInterval,
		MaxInterval:     r.MaxInterval,
		BreakerCooldown: r.BreakerCooldown,
		Logger:          rt.logger,
	})
	return objectstore.Open(ctx, rt.cfg.Storage, policy, rt.logger)
}

// openDB connects without migrating; the CLI never changes the schema.
func (rt *state) openDB() (*gorm.DB, error) {
	cfg := *rt.cfg
	cfg.Database.AutoMigrate = false
	return database.Connect(&cfg)
}
