package corpus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/pradiptarakha/corpusindex/pkg/config"
	"github.com/pradiptarakha/corpusindex/pkg/postgres"
)

// PostgresSource reads the corpus from one text column of a table, ordered
// by a stable key column so document ids are reproducible across rebuilds.
type PostgresSource struct {
	client *postgres.Client
	table  string
	column string
	order  string
	logger *slog.Logger
}

// NewPostgresSource wires a source from config.
func NewPostgresSource(client *postgres.Client, cfg config.PostgresConfig) *PostgresSource {
	return &PostgresSource{
		client: client,
		table:  cfg.CorpusTable,
		column: cfg.CorpusColumn,
		order:  cfg.OrderColumn,
		logger: slog.Default().With("component", "postgres-corpus"),
	}
}

// Load fetches all documents in order. NULL cells become empty documents
// so row positions and doc ids stay aligned.
func (s *PostgresSource) Load(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		pq.QuoteIdentifier(s.column),
		pq.QuoteIdentifier(s.table),
		pq.QuoteIdentifier(s.order),
	)
	rows, err := s.client.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying corpus table %s: %w", s.table, err)
	}
	defer rows.Close()

	var docs []string
	for rows.Next() {
		var text *string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("scanning corpus row: %w", err)
		}
		if text == nil {
			docs = append(docs, "")
		} else {
			docs = append(docs, *text)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating corpus rows: %w", err)
	}
	s.logger.Info("corpus loaded from postgres", "table", s.table, "documents", len(docs))
	return docs, nil
}
