package app

import (
	"context"

	"github.com/spf13/afero"

	"github.com/moyu-x/fotix/pkg/database"
	"github.com/moyu-x/fotix/pkg/deduplicator"
)

func RunRestore(ctx context.Context, configFile, logLevel, sessionID string) (*deduplicator.RestoreStats, error) {
	cfg, err := setup(configFile, logLevel, false, false)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if _, err := db.GetSession(sessionID); err != nil {
		return nil, err
	}

	return deduplicator.Restore(ctx, afero.NewOsFs(), db, sessionID)
}

func ListSessions(configFile, logLevel string) ([]database.Session, error) {
	cfg, err := setup(configFile, logLevel, false, false)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return db.Sessions()
}
