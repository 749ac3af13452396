package state

import (
	"context"
	"log"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/text/encoding/ianaindex"
)

func TestNewLocalEnv(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))

	if env.RunID.Version() != 7 {
		t.Errorf("RunID version = %d, want 7", env.RunID.Version())
	}
	if env.Started().IsZero() {
		t.Error("start time is not set")
	}
	if env.Uptime() < 0 {
		t.Errorf("negative uptime %v", env.Uptime())
	}
	// migrate settings are off until command line says otherwise
	if env.NoDirs || env.Overwrite || env.DryRun || env.CodePage != nil {
		t.Errorf("unexpected defaults: nodirs %v, overwrite %v, dry-run %v, code page %v",
			env.NoDirs, env.Overwrite, env.DryRun, env.CodePage)
	}
	if env.Cfg != nil || env.Rpt != nil || env.Log != nil {
		t.Error("configuration, report and log are prepared by the command, not by the environment")
	}
}

func TestRunID_UniqueAndOrdered(t *testing.T) {
	const runs = 64

	ids := make(map[string]bool, runs)
	prev := ""
	for range runs {
		id := EnvFromContext(ContextWithEnv(context.Background())).RunID.String()
		if ids[id] {
			t.Fatalf("run id %s was issued twice", id)
		}
		ids[id] = true
		// v7 ids sort in creation order
		if id <= prev {
			t.Errorf("run id %s is not after %s", id, prev)
		}
		prev = id
	}
}

func TestEnvFromContext(t *testing.T) {
	t.Run("derived contexts share environment", func(t *testing.T) {
		ctx := ContextWithEnv(context.Background())
		env := EnvFromContext(ctx)

		cctx, cancel := context.WithCancel(ctx)
		defer cancel()
		type other struct{}
		if got := EnvFromContext(context.WithValue(cctx, other{}, 1)); got != env {
			t.Error("derived context returned different environment")
		}
	})

	t.Run("missing environment panics", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("expected panic")
			}
		}()
		EnvFromContext(context.Background())
	})
}

func TestLocalEnv_MigrateSettings(t *testing.T) {
	ctx := ContextWithEnv(context.Background())

	// the way migrate applies its flags
	env := EnvFromContext(ctx)
	env.NoDirs, env.Overwrite, env.DryRun = true, false, true
	cp, err := ianaindex.IANA.Encoding("IBM866")
	if err != nil || cp == nil {
		t.Fatalf("unable to resolve code page: %v", err)
	}
	env.CodePage = cp

	// theme goroutines see the same settings
	var wg sync.WaitGroup
	for range 4 {
		wg.Go(func() {
			got := EnvFromContext(ctx)
			if !got.NoDirs || got.Overwrite || !got.DryRun {
				t.Errorf("settings lost: nodirs %v, overwrite %v, dry-run %v", got.NoDirs, got.Overwrite, got.DryRun)
			}
			name, err := got.CodePage.NewDecoder().String("\x80\xa0")
			if err != nil || name != "Аа" {
				t.Errorf("code page decoded %q, %v", name, err)
			}
		})
	}
	wg.Wait()
}

func TestLocalEnv_StdLog(t *testing.T) {
	t.Run("redirect and restore", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		env := &LocalEnv{Log: zap.New(core)}

		env.RedirectStdLog()
		log.Print("from standard logger")
		env.RestoreStdLog()
		log.Print("after restore")

		if n := logs.FilterMessage("from standard logger").Len(); n != 1 {
			t.Errorf("redirected %d entries, want 1", n)
		}
		if n := logs.FilterMessage("after restore").Len(); n != 0 {
			t.Error("standard logger still redirected after restore")
		}
	})

	t.Run("no logger", func(t *testing.T) {
		env := &LocalEnv{}
		env.RedirectStdLog()
		if env.restoreStdLog != nil {
			t.Error("nothing to restore without logger")
		}
		env.RestoreStdLog()
	})
}
