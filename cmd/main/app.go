package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/CTAG07/markovtext/pkg/history"
	"github.com/CTAG07/markovtext/pkg/markov"
	"github.com/CTAG07/markovtext/pkg/source"
)

// App wires the generator to the optional history store. It carries no
// state between generation calls beyond those two collaborators.
type App struct {
	config  *Config
	logger  *slog.Logger
	gen     *markov.Generator
	db      *sql.DB
	history *history.Store
}

// NewApp creates an App from config. The history database is opened only
// when history is enabled.
func NewApp(config *Config, logger *slog.Logger) (*App, error) {
	gen := markov.NewGenerator(nil)
	gen.SetLogger(logger)

	a := &App{config: config, logger: logger, gen: gen}
	if !config.History.Enabled {
		return a, nil
	}

	if err := ensureDataDir(config.History.DatabasePath); err != nil {
		return nil, err
	}
	db, err := initDB(config.History.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err = history.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	store, err := history.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare history store: %w", err)
	}
	store.SetLogger(logger)

	a.db = db
	a.history = store
	return a, nil
}

// Close releases the history database, if one was opened.
func (a *App) Close() {
	if a.history != nil {
		a.history.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Failed to close history database", "error", err)
		}
	}
}

// LoadChain reads the file at path and builds its chain.
func (a *App) LoadChain(path string) (*markov.Chain, error) {
	text, err := source.LoadText(path)
	if err != nil {
		return nil, err
	}
	chain := markov.BuildString(text)
	a.logger.Debug("Chain built", "source", path, "keys", chain.Len())
	return chain, nil
}

// Generate walks chain count times. Every walk is recorded in history when
// history is enabled; a recording failure is logged, not returned.
func (a *App) Generate(ctx context.Context, sourceName string, chain *markov.Chain, count int, opts ...markov.GenerateOption) ([]*markov.Walk, error) {
	if count < 1 {
		count = 1
	}
	if a.config.Generation.MaxWords > 0 {
		opts = append([]markov.GenerateOption{markov.WithMaxWords(a.config.Generation.MaxWords)}, opts...)
	}

	walks := make([]*markov.Walk, 0, count)
	for i := 0; i < count; i++ {
		walk, err := a.gen.Walk(ctx, chain, opts...)
		if err != nil {
			return nil, err
		}
		walks = append(walks, walk)

		if a.history != nil {
			_, err = a.history.Record(ctx, history.Run{
				Source:     sourceName,
				SeedFirst:  walk.Seed.First,
				SeedSecond: walk.Seed.Second,
				WordCount:  len(walk.Words),
				Output:     walk.String(),
			})
			if err != nil {
				a.logger.Error("Failed to record generation run", "source", sourceName, "error", err)
			}
		}
	}
	return walks, nil
}

// ensureDataDir creates the directory holding a SQLite data source.
func ensureDataDir(dataSource string) error {
	path, _, _ := strings.Cut(dataSource, "?")
	path = strings.TrimPrefix(path, "file:")
	if path == "" || path == ":memory:" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}
