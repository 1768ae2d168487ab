// Package riddle is a client for Sphinx and Manticore search servers. It
// executes SphinxQL statements built with the sphinxql package over the
// server's MySQL-protocol listener.
package riddle

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/Domodan/riddle/internal/config"
	"github.com/Domodan/riddle/internal/logging"
	"github.com/Domodan/riddle/internal/observability"
	"github.com/Domodan/riddle/sphinxql"
)

// Client issues SphinxQL statements against one search server.
type Client struct {
	db      *sql.DB
	exec    QueryExecutor
	logger  *logging.Logger
	metrics *observability.QueryMetrics
}

// Open connects to the search server described by cfg, applies pool
// settings, and verifies the connection with a ping.
func Open(cfg *config.Config, logger *logging.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = logging.NewLogger(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	}

	dsn := cfg.Server.DSN()
	var db *sql.DB
	var err error

	if cfg.Observability.MetricsEnabled || cfg.Observability.TracingEnabled {
		opts := []otelsql.Option{
			otelsql.WithAttributes(semconv.DBSystemMySQL),
		}
		if cfg.Observability.TracingEnabled {
			opts = append(opts, otelsql.WithSpanOptions(otelsql.SpanOptions{
				DisableErrSkip: true,
			}))
		}

		db, err = otelsql.Open("mysql", dsn, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to open search server connection: %w", err)
		}

		if cfg.Observability.MetricsEnabled {
			if _, err := otelsql.RegisterDBStatsMetrics(db, otelsql.WithAttributes(semconv.DBSystemMySQL)); err != nil {
				logger.Warn("failed to register DB stats metrics", slog.String("error", err.Error()))
			}
		}
	} else {
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open search server connection: %w", err)
		}
	}

	db.SetMaxOpenConns(cfg.Pool.MaxOpen)
	db.SetMaxIdleConns(cfg.Pool.MaxIdle)
	db.SetConnMaxLifetime(cfg.Pool.MaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("search server unreachable at %s:%d: %w", cfg.Server.Host, cfg.Server.Port, err)
	}

	client := NewClient(db, logger)
	if cfg.Observability.MetricsEnabled {
		metrics, err := observability.InitQueryMetrics()
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		client.metrics = metrics
	}

	logger.Info("connected to search server",
		slog.String("host", cfg.Server.Host),
		slog.Int("port", cfg.Server.Port),
	)
	return client, nil
}

// NewClient wraps an existing database handle. Useful for tests and for
// callers that manage their own pool.
func NewClient(db *sql.DB, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewLogger(logging.Config{})
	}
	return &Client{
		db:     db,
		exec:   &standardExecutor{db: db},
		logger: logger,
	}
}

// Query executes a rendered statement and returns its rows.
func (c *Client) Query(ctx context.Context, query string) (Rows, error) {
	queryID := uuid.NewString()
	verb := statementVerb(query)

	start := time.Now()
	rows, err := c.exec.QueryContext(ctx, query)
	duration := time.Since(start)

	c.metrics.RecordQuery(ctx, verb, duration, err)
	log := c.logger.WithFields(
		slog.String("query_id", queryID),
		slog.String("statement", verb),
		slog.Duration("duration", duration),
	)
	if err != nil {
		log.Error("query failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("query failed: %w", err)
	}
	log.Debug("query executed")
	return rows, nil
}

// Exec executes a rendered statement that returns no rows.
func (c *Client) Exec(ctx context.Context, query string) (sql.Result, error) {
	queryID := uuid.NewString()
	verb := statementVerb(query)

	start := time.Now()
	result, err := c.exec.ExecContext(ctx, query)
	duration := time.Since(start)

	c.metrics.RecordQuery(ctx, verb, duration, err)
	log := c.logger.WithFields(
		slog.String("query_id", queryID),
		slog.String("statement", verb),
		slog.Duration("duration", duration),
	)
	if err != nil {
		log.Error("statement failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("statement failed: %w", err)
	}
	log.Debug("statement executed")
	return result, nil
}

// Select renders the builder and executes the resulting query.
func (c *Client) Select(ctx context.Context, query *sphinxql.Select) (Rows, error) {
	rendered, err := query.ToSQL()
	if err != nil {
		return nil, err
	}
	return c.Query(ctx, rendered)
}

// Insert renders the builder and executes the resulting statement.
func (c *Client) Insert(ctx context.Context, query *sphinxql.Insert) (sql.Result, error) {
	rendered, err := query.ToSQL()
	if err != nil {
		return nil, err
	}
	return c.Exec(ctx, rendered)
}

// Snippets asks the server to build result excerpts for data against a
// match term.
func (c *Client) Snippets(ctx context.Context, data, index, match string, opts ...sphinxql.Param) ([]string, error) {
	rendered, err := sphinxql.Snippets(data, index, match, opts...)
	if err != nil {
		return nil, err
	}
	rows, err := c.Query(ctx, rendered)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snippets []string
	for rows.Next() {
		var snippet string
		if err := rows.Scan(&snippet); err != nil {
			return nil, fmt.Errorf("failed to scan snippet: %w", err)
		}
		snippets = append(snippets, snippet)
	}
	return snippets, rows.Err()
}

// Meta runs SHOW META and folds the two-column result set into a map.
// Servers report last-query statistics this way (total, total_found, time).
func (c *Client) Meta(ctx context.Context) (map[string]string, error) {
	rows, err := c.Query(ctx, sphinxql.ShowMeta)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan meta row: %w", err)
		}
		meta[name] = value
	}
	return meta, rows.Err()
}

// Tables runs SHOW TABLES and returns the index names.
func (c *Client) Tables(ctx context.Context) ([]string, error) {
	rows, err := c.Query(ctx, sphinxql.ShowTables)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var tables []string
	for rows.Next() {
		// Sphinx returns a single Index column; Manticore adds a Type column.
		dest := make([]any, len(columns))
		var name string
		dest[0] = &name
		for i := 1; i < len(dest); i++ {
			dest[i] = new(sql.RawBytes)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan table row: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// statementVerb returns the leading keyword of a statement, used to label
// logs and metrics without exposing full query text.
func statementVerb(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "UNKNOWN"
	}
	return strings.ToUpper(fields[0])
}
