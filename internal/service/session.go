// Package service owns the per-process session: the live database connection,
// its discovered schema snapshot, the result cache, and the document corpus.
// Core components stay stateless; all mutable wiring lives here.
package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mkoster/querylens/internal/cache"
	"github.com/mkoster/querylens/internal/config"
	"github.com/mkoster/querylens/internal/database"
	"github.com/mkoster/querylens/internal/document"
	"github.com/mkoster/querylens/internal/embedding"
	"github.com/mkoster/querylens/internal/engine"
	"github.com/mkoster/querylens/internal/errors"
	"github.com/mkoster/querylens/internal/logging"
	"github.com/mkoster/querylens/internal/schema"
)

// connState bundles everything derived from one successful connection. It is
// swapped wholesale on reconnect so in-flight readers always see a consistent
// snapshot, either the old connection or the new one.
type connState struct {
	db     *database.DB
	model  *schema.Model
	engine *engine.Engine
}

// Session is the explicit context object passed into each request. One per
// process in the server; the CLI builds a short-lived one per invocation.
type Session struct {
	cfg    *config.Config
	logger *logging.Logger

	cache     *cache.ResultCache
	documents *document.Store

	state atomic.Pointer[connState]

	janitorStop chan struct{}
	janitorOnce sync.Once

	jobs sync.Map // job ID -> *IngestJob
}

// NewSession wires up the cache, embedding provider, and document store from
// configuration. No database connection is made yet.
func NewSession(cfg *config.Config, logger *logging.Logger) (*Session, error) {
	manager, err := embedding.NewManager(cfg.Embedding)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeConfig,
			"failed to initialize embedding provider")
	}

	chunker := document.ChunkerConfig{
		ChunkSize: cfg.Documents.ChunkSize,
		Overlap:   cfg.Documents.ChunkOverlap,
	}

	s := &Session{
		cfg:         cfg,
		logger:      logger,
		cache:       cache.New(cfg.CacheTTL(), cfg.Cache.MaxSize),
		documents:   document.NewStore(manager, chunker, logger),
		janitorStop: make(chan struct{}),
	}

	go s.runJanitor()

	return s, nil
}

// runJanitor periodically sweeps expired cache entries
func (s *Session) runJanitor() {
	freq, err := time.ParseDuration(s.cfg.Cache.CleanupFreq)
	if err != nil || freq <= 0 {
		freq = time.Minute
	}

	ticker := time.NewTicker(freq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := s.cache.CleanupExpired(); removed > 0 {
				s.logger.WithField("removed", removed).Debug("cache cleanup swept expired entries")
			}
		case <-s.janitorStop:
			return
		}
	}
}

// Connect opens the database, discovers its schema, and atomically replaces
// the session's connection state. The previous connection, if any, is closed
// after the swap. The result cache is cleared since cached answers may
// reference the old database.
func (s *Session) Connect(ctx context.Context, connectionString string) (*schema.Model, error) {
	pool := database.PoolConfig{
		MaxOpenConns:    s.cfg.Database.MaxConnections,
		MaxIdleConns:    s.cfg.Database.MaxIdleConns,
		ConnMaxLifetime: parseDurationOr(s.cfg.Database.ConnMaxLifetime, 30*time.Minute),
		ConnMaxIdleTime: parseDurationOr(s.cfg.Database.ConnMaxIdleTime, 5*time.Minute),
	}

	db, err := database.Open(connectionString, pool)
	if err != nil {
		return nil, err
	}

	model, err := schema.NewDiscoverer(s.logger).Discover(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	eng := engine.New(model, db, s.cache, s.documents,
		s.cfg.Documents.SearchTopK, s.logger)

	old := s.state.Swap(&connState{db: db, model: model, engine: eng})
	if old != nil {
		_ = old.db.Close()
	}

	s.cache.Clear()

	s.logger.WithFields(map[string]interface{}{
		"dialect": model.Dialect,
		"tables":  len(model.Tables),
	}).Info("database connected")

	return model, nil
}

// Connected reports whether a database connection is active
func (s *Session) Connected() bool {
	return s.state.Load() != nil
}

// Query processes one natural-language query through the engine
func (s *Session) Query(ctx context.Context, query string, useCache bool) (*engine.Result, error) {
	state := s.state.Load()
	if state == nil {
		return nil, errors.New(errors.ErrTypeConnection, "database not connected").
			WithSuggestion("Connect to a database first (POST /api/connect-database or --database)")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout())
	defer cancel()

	return state.engine.Process(ctx, query, useCache)
}

// Schema returns the current schema snapshot, or nil when not connected
func (s *Session) Schema() *schema.Model {
	if state := s.state.Load(); state != nil {
		return state.model
	}

	return nil
}

// Cache exposes the result cache for statistics and invalidation
func (s *Session) Cache() *cache.ResultCache {
	return s.cache
}

// Documents exposes the document corpus
func (s *Session) Documents() *document.Store {
	return s.documents
}

// Close stops the janitor and closes the active connection
func (s *Session) Close() error {
	s.janitorOnce.Do(func() { close(s.janitorStop) })

	if state := s.state.Swap(nil); state != nil {
		return state.db.Close()
	}

	return nil
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}

	return d
}
