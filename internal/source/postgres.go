// Package source provides the readers for the two upstream stores: the
// structured case table in Postgres and the raw conversation logs in MongoDB.
package source

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/denuncia-labs/conversation-insights/internal/model"
	"github.com/denuncia-labs/conversation-insights/pkg/logger"
	"github.com/denuncia-labs/conversation-insights/pkg/metrics"
)

// casesQuery reads every case row, newest first.
const casesQuery = `
SELECT protocolo, nome, email, descricao, prioridade, status,
       uf, created_at, titulo, data_ocorrido
FROM denuncias
ORDER BY created_at DESC`

// PostgresReader loads case rows from the structured store. A nil pool means
// the store was not configured; reads then return an empty set.
type PostgresReader struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewPostgresReader creates a reader over pool, which may be nil.
func NewPostgresReader(pool *pgxpool.Pool, log *logger.Logger) *PostgresReader {
	return &PostgresReader{
		pool:   pool,
		logger: log,
	}
}

// Cases returns the case rows ordered by creation time descending. Absence of
// a configured connection yields an empty set without error; a failed query
// returns an error for the caller to degrade on.
func (r *PostgresReader) Cases(ctx context.Context) ([]model.CaseRecord, error) {
	if r.pool == nil {
		r.logger.Debug("postgres not configured, returning no cases")
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, casesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query cases: %w", err)
	}
	defer rows.Close()

	var cases []model.CaseRecord
	for rows.Next() {
		var (
			c                                      model.CaseRecord
			name, email, description, status, title *string
			region, priority                       *string
		)
		if err := rows.Scan(
			&c.Protocol, &name, &email, &description, &priority, &status,
			&region, &c.CreatedAt, &title, &c.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan case row: %w", err)
		}
		c.Name = deref(name)
		c.Email = deref(email)
		c.Description = deref(description)
		c.Priority = deref(priority)
		c.Status = deref(status)
		c.Region = deref(region)
		c.Title = deref(title)
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read case rows: %w", err)
	}

	metrics.SourceRowsRead.WithLabelValues("postgres").Set(float64(len(cases)))
	r.logger.Info("loaded cases from postgres", zap.Int("cases", len(cases)))
	return cases, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
