package store

import (
	"context"
	"fmt"

	"github.com/YinChingZ/LawAI/internal/config"
	"github.com/YinChingZ/LawAI/internal/domain"
)

// Open creates the store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch domain.StoreDriver(cfg.StoreDriver) {
	case domain.StoreDriverSQLite, "":
		return NewSQLiteStore(cfg.DatabaseURL)
	case domain.StoreDriverPostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL)
	case domain.StoreDriverMongo:
		return NewMongoStore(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
