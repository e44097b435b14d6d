// Package seed loads demo content into the hosted backend and applies the
// one-off schema change the content depends on.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// BusinessesTable holds the directory entries.
const BusinessesTable = "businesses"

// ExecSQLFunction is the database function migrations are run through.
const ExecSQLFunction = "exec_sql"

// AddFeaturedColumnSQL adds the column written in the second seed phase.
const AddFeaturedColumnSQL = `ALTER TABLE businesses ADD COLUMN IF NOT EXISTS featured boolean NOT NULL DEFAULT false;`

// Business is a directory entry. Featured is written separately because
// older schemas lack the column.
type Business struct {
	ID          int64   `json:"id,omitempty"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Address     string  `json:"address"`
	Phone       string  `json:"phone"`
	ImageURL    string  `json:"image_url"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
	Featured    bool    `json:"-"`
}

// Store is the subset of PostgREST operations the seeder needs.
type Store interface {
	// Insert adds row to table and returns the inserted rows as JSON.
	Insert(ctx context.Context, table string, row any) ([]byte, error)

	// Update sets values on the rows of table where column equals value.
	Update(ctx context.Context, table string, values any, column, value string) error

	// RPC calls a database function and returns its raw JSON answer.
	RPC(ctx context.Context, name string, params any) (string, error)
}

// Report summarizes a seed run.
type Report struct {
	Inserted       int
	Featured       int
	FeatureSkipped int
	Failed         int
}

// Seeder writes demo content through a Store.
type Seeder struct {
	store  Store
	logger zerolog.Logger
}

// New creates a seeder.
func New(store Store) *Seeder {
	return &Seeder{
		store:  store,
		logger: log.With().Str("component", "seed").Logger(),
	}
}

// Migrate adds the featured column. It must run with the service-role key.
func (s *Seeder) Migrate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := s.store.RPC(ctx, ExecSQLFunction, map[string]string{"sql": AddFeaturedColumnSQL})
	if err != nil {
		return fmt.Errorf("run migration: %w", err)
	}
	if err := rpcError(raw); err != nil {
		return fmt.Errorf("run migration: %w", err)
	}

	s.logger.Info().Str("table", BusinessesTable).Str("column", "featured").Msg("Migration applied")
	return nil
}

// Seed inserts businesses in two phases per row: the base row first, then
// the featured flag. A failed second phase is logged and counted but does
// not fail the run; failed inserts are collected and returned together.
func (s *Seeder) Seed(ctx context.Context, businesses []Business) (Report, error) {
	var report Report
	var errs []error

	for _, b := range businesses {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		id, err := s.insert(ctx, b)
		if err != nil {
			report.Failed++
			errs = append(errs, fmt.Errorf("insert %q: %w", b.Name, err))
			s.logger.Error().Err(err).Str("business", b.Name).Msg("Insert failed")
			continue
		}
		report.Inserted++

		if !b.Featured {
			continue
		}

		err = s.store.Update(ctx, BusinessesTable, map[string]bool{"featured": true}, "id", fmt.Sprint(id))
		if err != nil {
			report.FeatureSkipped++
			s.logger.Warn().Err(err).Str("business", b.Name).Msg("Could not set featured flag, column may be missing")
			continue
		}
		report.Featured++
	}

	s.logger.Info().
		Int("inserted", report.Inserted).
		Int("featured", report.Featured).
		Int("feature_skipped", report.FeatureSkipped).
		Int("failed", report.Failed).
		Msg("Seed finished")

	return report, errors.Join(errs...)
}

func (s *Seeder) insert(ctx context.Context, b Business) (int64, error) {
	b.ID = 0
	raw, err := s.store.Insert(ctx, BusinessesTable, b)
	if err != nil {
		return 0, err
	}

	var rows []Business
	if err := json.Unmarshal(raw, &rows); err != nil {
		return 0, fmt.Errorf("decode inserted row: %w", err)
	}
	if len(rows) == 0 || rows[0].ID == 0 {
		return 0, fmt.Errorf("insert returned no id")
	}
	return rows[0].ID, nil
}

// rpcError extracts a PostgREST error object from an RPC answer.
func rpcError(raw string) error {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return nil
	}
	if body.Message == "" {
		return nil
	}
	return fmt.Errorf("postgrest %s: %s", body.Code, body.Message)
}
