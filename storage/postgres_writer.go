package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"isef-scraper/models"
	"isef-scraper/utils"

	_ "github.com/lib/pq"
)

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS isef_projects (
		id             SERIAL PRIMARY KEY,
		detail_url     TEXT UNIQUE NOT NULL,
		project_id     TEXT,
		year           TEXT,
		finalist_names TEXT,
		title          TEXT,
		category       TEXT,
		fair_country   TEXT,
		fair_state     TEXT,
		fair_province  TEXT,
		awards_won     TEXT,
		abstract       TEXT,
		booth_id       TEXT,
		scraped_at     TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_isef_projects_year     ON isef_projects (year);
	CREATE INDEX IF NOT EXISTS idx_isef_projects_category ON isef_projects (category);
	`

// upsertSQL re-scraping a project refreshes its row instead of duplicating it
const upsertSQL = `
		INSERT INTO isef_projects (
			detail_url, project_id, year, finalist_names, title, category,
			fair_country, fair_state, fair_province, awards_won, abstract, booth_id, scraped_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (detail_url) DO UPDATE SET
			project_id     = EXCLUDED.project_id,
			year           = EXCLUDED.year,
			finalist_names = EXCLUDED.finalist_names,
			title          = EXCLUDED.title,
			category       = EXCLUDED.category,
			fair_country   = EXCLUDED.fair_country,
			fair_state     = EXCLUDED.fair_state,
			fair_province  = EXCLUDED.fair_province,
			awards_won     = EXCLUDED.awards_won,
			abstract       = EXCLUDED.abstract,
			booth_id       = EXCLUDED.booth_id,
			scraped_at     = EXCLUDED.scraped_at
	`

// PostgresWriter stores project records in PostgreSQL
type PostgresWriter struct {
	db     *sql.DB
	logger *utils.Logger
	now    func() time.Time
}

// NewPostgresWriter opens the connection pool and pings the DB
func NewPostgresWriter(ctx context.Context, connStr string, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Minute * 5)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logger.Info("Connected to PostgreSQL successfully")
	return &PostgresWriter{db: db, logger: logger, now: time.Now}, nil
}

func (w *PostgresWriter) Name() string { return "postgres" }

// CreateTable creates the isef_projects table if it doesn't exist, with indexes
func (w *PostgresWriter) CreateTable(ctx context.Context) error {
	if _, err := w.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	w.logger.Info("Table 'isef_projects' is ready")
	return nil
}

// SaveRecords upserts records in a single transaction keyed on detail URL.
// Any failed row rolls the whole batch back.
func (w *PostgresWriter) SaveRecords(ctx context.Context, records []models.ProjectRecord) (err error) {
	if len(records) == 0 {
		return nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	scrapedAt := w.now()
	for _, rec := range records {
		if _, err = stmt.ExecContext(ctx, upsertArgs(rec, scrapedAt)...); err != nil {
			return fmt.Errorf("failed to upsert %s: %w", rec.DetailURL, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.logger.Info("Upserted %d project records into PostgreSQL", len(records))
	return nil
}

// upsertArgs lines a record up with upsertSQL's placeholders
func upsertArgs(rec models.ProjectRecord, scrapedAt time.Time) []interface{} {
	return []interface{}{
		rec.DetailURL,
		rec.ProjectID,
		rec.Year,
		rec.FinalistNames,
		rec.Title,
		rec.Category,
		rec.FairCountry,
		rec.FairState,
		rec.FairProvince,
		rec.AwardsWon,
		rec.Abstract,
		rec.BoothID,
		scrapedAt,
	}
}

// Close closes the database connection
func (w *PostgresWriter) Close() error {
	if w.db == nil {
		return nil
	}
	return w.db.Close()
}
