package recorder

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"OilTycoon/internal/model"
)

// SQLiteRecorder persists the economy journal to a SQLite database.
type SQLiteRecorder struct {
	db     *sqlx.DB
	mu     sync.Mutex
	logger *log.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *log.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so `tycoon history` can read while the server writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("history recorder opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS purchases (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			at            INTEGER NOT NULL,
			run_id        TEXT NOT NULL,
			kind          TEXT NOT NULL,
			target        TEXT,
			quantity      INTEGER,
			cost          REAL,
			balance_after REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_purchases_at ON purchases(at)`,

		`CREATE TABLE IF NOT EXISTS catch_ups (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			at       INTEGER NOT NULL,
			run_id   TEXT NOT NULL,
			gap_ms   INTEGER,
			cycles   INTEGER,
			credited REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_catch_ups_at ON catch_ups(at)`,

		`CREATE TABLE IF NOT EXISTS retirements (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			at                INTEGER NOT NULL,
			run_id            TEXT NOT NULL,
			new_run_id        TEXT NOT NULL,
			run_earnings      REAL,
			prior_earnings    REAL,
			multiplier_before REAL,
			multiplier_after  REAL,
			run_duration_ms   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_retirements_at ON retirements(at)`,

		`CREATE TABLE IF NOT EXISTS snapshots (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			at             INTEGER NOT NULL,
			run_id         TEXT NOT NULL,
			balance        REAL,
			run_earnings   REAL,
			prior_earnings REAL,
			total_levels   INTEGER,
			multiplier     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_at ON snapshots(at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordPurchase(evt *model.PurchaseEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.NamedExec(`INSERT INTO purchases
		(at, run_id, kind, target, quantity, cost, balance_after)
		VALUES (:at, :run_id, :kind, :target, :quantity, :cost, :balance_after)`, evt)
	return err
}

func (r *SQLiteRecorder) RecordCatchUp(evt *model.CatchUpEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.NamedExec(`INSERT INTO catch_ups
		(at, run_id, gap_ms, cycles, credited)
		VALUES (:at, :run_id, :gap_ms, :cycles, :credited)`, evt)
	return err
}

func (r *SQLiteRecorder) RecordRetirement(evt *model.RetirementEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.NamedExec(`INSERT INTO retirements
		(at, run_id, new_run_id, run_earnings, prior_earnings,
		 multiplier_before, multiplier_after, run_duration_ms)
		VALUES (:at, :run_id, :new_run_id, :run_earnings, :prior_earnings,
		 :multiplier_before, :multiplier_after, :run_duration_ms)`, evt)
	return err
}

func (r *SQLiteRecorder) RecordSnapshot(snap *model.EconomySnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.NamedExec(`INSERT INTO snapshots
		(at, run_id, balance, run_earnings, prior_earnings, total_levels, multiplier)
		VALUES (:at, :run_id, :balance, :run_earnings, :prior_earnings, :total_levels, :multiplier)`, snap)
	return err
}

// RecentRetirements returns up to limit retirements, newest first.
func (r *SQLiteRecorder) RecentRetirements(limit int) ([]model.RetirementEvent, error) {
	var out []model.RetirementEvent
	err := r.db.Select(&out, `SELECT run_id, new_run_id, run_earnings, prior_earnings,
		multiplier_before, multiplier_after, run_duration_ms, at
		FROM retirements ORDER BY at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select retirements: %w", err)
	}
	return out, nil
}

// RecentPurchases returns up to limit purchases, newest first.
func (r *SQLiteRecorder) RecentPurchases(limit int) ([]model.PurchaseEvent, error) {
	var out []model.PurchaseEvent
	err := r.db.Select(&out, `SELECT run_id, kind, target, quantity, cost, balance_after, at
		FROM purchases ORDER BY at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select purchases: %w", err)
	}
	return out, nil
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing history recorder")
	return r.db.Close()
}
