// Package engine orchestrates the query pipeline: cache check, classification,
// SQL synthesis and execution, document search, and result assembly.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/mkoster/querylens/internal/cache"
	"github.com/mkoster/querylens/internal/database"
	"github.com/mkoster/querylens/internal/document"
	"github.com/mkoster/querylens/internal/errors"
	"github.com/mkoster/querylens/internal/logging"
	"github.com/mkoster/querylens/internal/nlsql"
	"github.com/mkoster/querylens/internal/schema"
)

const fallbackRowLimit = 10

// DocumentSearch is the engine-facing view of the document corpus. An empty
// corpus yields an empty sequence, not an error.
type DocumentSearch interface {
	Search(ctx context.Context, query string, topK int) ([]document.SearchResult, error)
}

// Result is the assembled outcome of one processed query
type Result struct {
	QueryType       nlsql.QueryType         `json:"query_type"`
	SQLResults      *database.ResultSet     `json:"sql_results,omitempty"`
	DocumentResults []document.SearchResult `json:"document_results,omitempty"`
	GeneratedSQL    string                  `json:"generated_sql,omitempty"`
	CacheHit        bool                    `json:"cache_hit"`
	ElapsedMs       int64                   `json:"elapsed_ms"`
}

// Engine processes natural-language queries against one immutable schema
// snapshot. It holds no mutable state of its own; the cache and document
// store synchronize internally.
type Engine struct {
	model      *schema.Model
	executor   database.Executor
	synth      *nlsql.Synthesizer
	cache      *cache.ResultCache
	documents  DocumentSearch
	logger     *logging.Logger
	searchTopK int
}

// New builds an engine over a discovered schema. The document search
// collaborator may be nil when no corpus exists.
func New(
	model *schema.Model,
	executor database.Executor,
	resultCache *cache.ResultCache,
	documents DocumentSearch,
	searchTopK int,
	logger *logging.Logger,
) *Engine {
	return &Engine{
		model:      model,
		executor:   executor,
		synth:      nlsql.NewSynthesizer(model),
		cache:      resultCache,
		documents:  documents,
		logger:     logger,
		searchTopK: searchTopK,
	}
}

// Process runs one query end to end. The cache check happens before any
// synthesis or execution; a hit short-circuits the pipeline. Execution
// failures after synthesis recover locally with a minimal fallback query;
// document-search failures degrade to empty results so a hybrid query still
// returns its SQL half.
func (e *Engine) Process(ctx context.Context, query string, useCache bool) (*Result, error) {
	start := time.Now()

	if useCache {
		if payload, ok := e.cache.Get(query); ok {
			if cached, ok := payload.(Result); ok {
				cached.CacheHit = true
				cached.ElapsedMs = time.Since(start).Milliseconds()

				return &cached, nil
			}
		}
	}

	queryType := nlsql.Classify(query)
	e.logger.WithField("query_type", string(queryType)).Debug("query classified")

	result := &Result{QueryType: queryType}

	if queryType == nlsql.QueryTypeSQL || queryType == nlsql.QueryTypeHybrid {
		resultSet, generatedSQL, err := e.runSQL(ctx, query)
		if err != nil {
			return nil, err
		}

		result.SQLResults = resultSet
		result.GeneratedSQL = generatedSQL
	}

	if queryType == nlsql.QueryTypeDocument || queryType == nlsql.QueryTypeHybrid {
		result.DocumentResults = e.runDocumentSearch(ctx, query)
	}

	result.ElapsedMs = time.Since(start).Milliseconds()

	if useCache {
		e.cache.Set(query, *result)
	}

	e.cache.RecordResponseTime(float64(time.Since(start).Milliseconds()))

	return result, nil
}

// runSQL synthesizes, validates, and executes. A schema with no tables is a
// fatal precondition; a failed execution falls back to a listing of the first
// table.
func (e *Engine) runSQL(ctx context.Context, query string) (*database.ResultSet, string, error) {
	generatedSQL, err := e.synth.Synthesize(query)
	if err != nil {
		return nil, "", err
	}

	if !nlsql.ValidateSQL(generatedSQL) {
		// Templates never emit denylisted tokens, so this is a template bug.
		e.logger.WithField("sql", generatedSQL).Error("generated SQL failed safety validation")

		return nil, "", errors.Newf(errors.ErrTypeUnsafeSQL,
			"generated SQL rejected by safety validation")
	}

	resultSet, err := e.executor.Execute(ctx, generatedSQL)
	if err == nil {
		return resultSet, generatedSQL, nil
	}

	e.logger.WithError(err).WithField("sql", generatedSQL).
		Warn("generated SQL failed, executing fallback query")

	fallbackSQL := fmt.Sprintf("SELECT * FROM %s LIMIT %d",
		e.model.Tables[0].Name, fallbackRowLimit)

	resultSet, fbErr := e.executor.Execute(ctx, fallbackSQL)
	if fbErr != nil {
		return nil, "", errors.Wrap(fbErr, errors.ErrTypeExecution,
			"generated and fallback queries both failed")
	}

	return resultSet, fallbackSQL, nil
}

func (e *Engine) runDocumentSearch(ctx context.Context, query string) []document.SearchResult {
	if e.documents == nil {
		return []document.SearchResult{}
	}

	results, err := e.documents.Search(ctx, query, e.searchTopK)
	if err != nil {
		e.logger.WithError(err).Warn("document search failed, returning empty results")
		return []document.SearchResult{}
	}

	return results
}

// Schema returns the engine's immutable schema snapshot
func (e *Engine) Schema() *schema.Model {
	return e.model
}
