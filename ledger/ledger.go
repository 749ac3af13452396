// Package ledger records classification results of every run in a local
// SQLite database so that migrations of the same theme can be compared over
// time.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"thememig/common"
	"thememig/exclusion"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	started    TEXT NOT NULL,
	strategy   TEXT NOT NULL,
	preprocess TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS results (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	theme      TEXT NOT NULL,
	source     TEXT NOT NULL,
	tier       TEXT NOT NULL,
	excluded   INTEGER NOT NULL,
	included   INTEGER NOT NULL,
	header     INTEGER NOT NULL,
	navigation INTEGER NOT NULL,
	footer     INTEGER NOT NULL,
	recorded   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS results_theme ON results(theme);
`

// Ledger is a single connection to results database.
// NOTE: not to be used concurrently!
type Ledger struct {
	conn *sqlite.Conn
	run  uuid.UUID
	log  *zap.Logger
}

// Open opens (creating when necessary) ledger database at path.
func Open(path string, log *zap.Logger) (*Ledger, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := sqlite.OpenConn(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open ledger %q: %w", path, err)
	}
	// journal mode cannot be changed inside the script transaction
	if err := sqlitex.ExecuteTransient(conn, "PRAGMA journal_mode=WAL;", nil); err != nil {
		return nil, multierr.Append(fmt.Errorf("unable to switch ledger to WAL: %w", err), conn.Close())
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return nil, multierr.Append(fmt.Errorf("unable to prepare ledger schema: %w", err), conn.Close())
	}
	return &Ledger{conn: conn, log: log.Named("ledger")}, nil
}

// Close releases database connection.
func (l *Ledger) Close() error {
	if l == nil || l.conn == nil {
		return nil
	}
	err := l.conn.Close()
	l.conn = nil
	return err
}

// BeginRun registers new run, all subsequent Record calls are attributed to it.
func (l *Ledger) BeginRun(id uuid.UUID, started time.Time, strategy common.Strategy, preprocess common.PreprocessMode) error {
	err := sqlitex.Execute(l.conn,
		`INSERT INTO runs (id, started, strategy, preprocess) VALUES (?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{id.String(), started.UTC().Format(time.RFC3339Nano), strategy.String(), preprocess.String()}})
	if err != nil {
		return fmt.Errorf("unable to register run %s: %w", id, err)
	}
	l.run = id
	l.log.Debug("Run registered", zap.Stringer("run", id))
	return nil
}

// Record stores result of a single stylesheet.
func (l *Ledger) Record(source string, res *exclusion.Result) error {
	if l.run == uuid.Nil {
		return errors.New("no run has been registered")
	}
	err := sqlitex.Execute(l.conn,
		`INSERT INTO results (run_id, theme, source, tier, excluded, included, header, navigation, footer, recorded)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{
			l.run.String(), res.Theme, source, res.Tier.String(),
			res.ExcludedCount, res.IncludedCount,
			res.PatternsMatched[common.CategoryHeader],
			res.PatternsMatched[common.CategoryNavigation],
			res.PatternsMatched[common.CategoryFooter],
			time.Now().UTC().Format(time.RFC3339Nano),
		}})
	if err != nil {
		return fmt.Errorf("unable to record result for %q: %w", source, err)
	}
	return nil
}

// Totals is aggregated history of a single theme.
type Totals struct {
	Theme      string
	Runs       int
	Files      int
	Excluded   int
	Included   int
	ByCategory map[common.Category]int
	// Degraded counts files classified below structural tier.
	Degraded int
	LastRun  time.Time
}

// History returns per theme totals ordered by theme name. Empty theme
// selects all themes.
func (l *Ledger) History(theme string) ([]Totals, error) {
	var out []Totals
	err := sqlitex.Execute(l.conn,
		`SELECT r.theme, COUNT(DISTINCT r.run_id), COUNT(*), SUM(r.excluded), SUM(r.included),
			SUM(r.header), SUM(r.navigation), SUM(r.footer),
			SUM(CASE WHEN r.tier IN (:lenient, :conservative) THEN 1 ELSE 0 END),
			MAX(runs.started)
		FROM results r JOIN runs ON runs.id = r.run_id
		WHERE :theme = '' OR r.theme = :theme
		GROUP BY r.theme ORDER BY r.theme`,
		&sqlitex.ExecOptions{
			Named: map[string]any{
				":theme":        theme,
				":lenient":      common.TierLenient.String(),
				":conservative": common.TierConservative.String(),
			},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				t := Totals{
					Theme:    stmt.ColumnText(0),
					Runs:     stmt.ColumnInt(1),
					Files:    stmt.ColumnInt(2),
					Excluded: stmt.ColumnInt(3),
					Included: stmt.ColumnInt(4),
					ByCategory: map[common.Category]int{
						common.CategoryHeader:     stmt.ColumnInt(5),
						common.CategoryNavigation: stmt.ColumnInt(6),
						common.CategoryFooter:     stmt.ColumnInt(7),
					},
					Degraded: stmt.ColumnInt(8),
				}
				if last, err := time.Parse(time.RFC3339Nano, stmt.ColumnText(9)); err == nil {
					t.LastRun = last
				}
				out = append(out, t)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("unable to read history: %w", err)
	}
	return out, nil
}
