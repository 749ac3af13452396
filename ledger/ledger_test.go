package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"thememig/common"
	"thememig/exclusion"
)

func openTemp(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "ledger.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func result(theme string, tier common.Tier, header, nav, footer, included int) *exclusion.Result {
	return &exclusion.Result{
		Theme:         theme,
		Tier:          tier,
		ExcludedCount: header + nav + footer,
		IncludedCount: included,
		PatternsMatched: map[common.Category]int{
			common.CategoryHeader:     header,
			common.CategoryNavigation: nav,
			common.CategoryFooter:     footer,
		},
	}
}

func TestLedger_RoundTrip(t *testing.T) {
	l := openTemp(t)

	first, second := uuid.Must(uuid.NewV7()), uuid.Must(uuid.NewV7())
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := l.BeginRun(first, start, common.StrategyAuto, common.PreprocessModeMinimal); err != nil {
		t.Fatalf("BeginRun() error = %v", err)
	}
	records := []struct {
		source string
		res    *exclusion.Result
	}{
		{"acme/site.css", result("acme", common.TierStructural, 2, 1, 1, 10)},
		{"acme/extra.scss", result("acme", common.TierLenient, 0, 1, 0, 3)},
		{"zenith/site.css", result("zenith", common.TierConservative, 1, 0, 0, 0)},
	}
	for _, r := range records {
		if err := l.Record(r.source, r.res); err != nil {
			t.Fatalf("Record(%s) error = %v", r.source, err)
		}
	}

	if err := l.BeginRun(second, start.Add(time.Hour), common.StrategyStructuralOnly, common.PreprocessModeNone); err != nil {
		t.Fatalf("BeginRun() error = %v", err)
	}
	if err := l.Record("acme/site.css", result("acme", common.TierStructural, 1, 0, 0, 11)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	all, err := l.History("")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(all) != 2 || all[0].Theme != "acme" || all[1].Theme != "zenith" {
		t.Fatalf("History() = %+v", all)
	}

	acme := all[0]
	want := Totals{Theme: "acme", Runs: 2, Files: 3, Excluded: 6, Included: 24, Degraded: 1}
	if acme.Runs != want.Runs || acme.Files != want.Files || acme.Excluded != want.Excluded ||
		acme.Included != want.Included || acme.Degraded != want.Degraded {
		t.Errorf("acme totals = %+v, want %+v", acme, want)
	}
	if acme.ByCategory[common.CategoryHeader] != 3 || acme.ByCategory[common.CategoryNavigation] != 2 || acme.ByCategory[common.CategoryFooter] != 1 {
		t.Errorf("acme categories = %v", acme.ByCategory)
	}
	if !acme.LastRun.Equal(start.Add(time.Hour)) {
		t.Errorf("acme last run = %v", acme.LastRun)
	}

	zenith, err := l.History("zenith")
	if err != nil {
		t.Fatalf("History(zenith) error = %v", err)
	}
	if len(zenith) != 1 || zenith[0].Degraded != 1 || zenith[0].Runs != 1 {
		t.Errorf("History(zenith) = %+v", zenith)
	}

	none, err := l.History("unknown")
	if err != nil {
		t.Fatalf("History(unknown) error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("History(unknown) = %+v", none)
	}
}

func TestLedger_JournalMode(t *testing.T) {
	l := openTemp(t)

	var mode string
	err := sqlitex.ExecuteTransient(l.conn, "PRAGMA journal_mode;", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			mode = stmt.ColumnText(0)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("journal mode query error = %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal mode = %q, want wal", mode)
	}
}

func TestLedger_RecordWithoutRun(t *testing.T) {
	l := openTemp(t)
	if err := l.Record("site.css", result("acme", common.TierStructural, 0, 0, 0, 1)); err == nil {
		t.Error("Expected error when no run is registered")
	}
}

func TestLedger_DuplicateRun(t *testing.T) {
	l := openTemp(t)
	id := uuid.Must(uuid.NewV7())
	if err := l.BeginRun(id, time.Now(), common.StrategyAuto, common.PreprocessModeMinimal); err != nil {
		t.Fatalf("BeginRun() error = %v", err)
	}
	if err := l.BeginRun(id, time.Now(), common.StrategyAuto, common.PreprocessModeMinimal); err == nil {
		t.Error("Expected error for duplicate run id")
	}
}

func TestLedger_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	l, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := l.BeginRun(uuid.Must(uuid.NewV7()), time.Now(), common.StrategyAuto, common.PreprocessModeVariables); err != nil {
		t.Fatal(err)
	}
	if err := l.Record("site.css", result("acme", common.TierStructural, 1, 0, 0, 2)); err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	// second close is harmless
	if err := l.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	l, err = Open(path, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer l.Close()
	totals, err := l.History("acme")
	if err != nil || len(totals) != 1 || totals[0].Files != 1 {
		t.Errorf("History() after reopen = %+v, %v", totals, err)
	}
}

func TestLedger_OpenError(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "ledger.db"), nil); err == nil {
		t.Error("Expected error for database in nonexistent directory")
	}
}
