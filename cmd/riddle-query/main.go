// riddle-query builds a SphinxQL SELECT from flags, runs it against the
// configured search server, and prints the result set as tab-separated
// values.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"github.com/Domodan/riddle"
	"github.com/Domodan/riddle/internal/config"
	"github.com/Domodan/riddle/internal/logging"
	"github.com/Domodan/riddle/sphinxql"
)

// Version is set at build time via -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("riddle-query error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfgPath := pflag.String("config", "", "Path to config file")
	indices := pflag.StringSlice("index", nil, "Index to search (repeatable)")
	match := pflag.String("match", "", "Full-text match term")
	escapeTerm := pflag.Bool("escape", false, "Escape match-syntax metacharacters in the term")
	values := pflag.StringSlice("select", nil, "Select expressions (default *)")
	order := pflag.StringSlice("order", nil, "ORDER BY term (repeatable)")
	group := pflag.String("group", "", "GROUP BY field")
	limit := pflag.Int("limit", sphinxql.DefaultLimit, "Maximum rows to return")
	offset := pflag.Int("offset", sphinxql.DefaultOffset, "Row offset to start from")
	showMeta := pflag.Bool("meta", false, "Print SHOW META statistics after the query")
	dryRun := pflag.Bool("dry-run", false, "Print the rendered query without executing it")
	showVersion := pflag.Bool("version", false, "Print version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Printf("riddle-query %s\n", Version)
		return nil
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	slog.SetDefault(logger.Logger)

	if len(*indices) == 0 {
		return fmt.Errorf("at least one --index is required")
	}

	query := sphinxql.NewSelect((*indices)...)
	if len(*values) > 0 {
		query.Values((*values)...)
	}
	if *match != "" {
		term := *match
		if *escapeTerm {
			term = sphinxql.Escape(term)
		}
		query.Matching(term)
	}
	if *group != "" {
		query.GroupBy(*group)
	}
	if len(*order) > 0 {
		query.OrderBy((*order)...)
	}
	if pflag.CommandLine.Changed("limit") {
		query.Limit(*limit)
	}
	if pflag.CommandLine.Changed("offset") {
		query.Offset(*offset)
	}

	if *dryRun {
		rendered, err := query.ToSQL()
		if err != nil {
			return err
		}
		fmt.Println(rendered)
		return nil
	}

	client, err := riddle.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctx := context.Background()
	rows, err := client.Select(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	if err := printRows(rows); err != nil {
		return err
	}

	if *showMeta {
		meta, err := client.Meta(ctx)
		if err != nil {
			return err
		}
		printMeta(meta)
	}
	return nil
}

func printRows(rows riddle.Rows) error {
	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	fmt.Println(strings.Join(columns, "\t"))

	dest := make([]any, len(columns))
	for i := range dest {
		dest[i] = new(sql.NullString)
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		fields := make([]string, len(dest))
		for i, d := range dest {
			value := d.(*sql.NullString)
			if value.Valid {
				fields[i] = value.String
			} else {
				fields[i] = "NULL"
			}
		}
		fmt.Println(strings.Join(fields, "\t"))
	}
	return rows.Err()
}

func printMeta(meta map[string]string) {
	names := make([]string, 0, len(meta))
	for name := range meta {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(os.Stderr)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "%s: %s\n", name, meta[name])
	}
}
