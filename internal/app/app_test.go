package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/yungbote/analytics-database/internal/config"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/services"
)

func TestNewInTestMode(t *testing.T) {
	t.Setenv("ANALYTICS_TEST_MODE", "true")
	t.Setenv("LOG_MODE", "test")

	var overridden bool
	a, err := New(Options{
		EnvFile: filepath.Join(t.TempDir(), "missing.env"),
		Migrate: true,
		Override: func(cfg *config.Config) {
			overridden = true
			cfg.Tracing.Enabled = false
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if !overridden {
		t.Fatalf("expected override to run")
	}
	if a.Cfg.Database.Driver != config.DriverSQLite {
		t.Fatalf("expected sqlite in test mode, got %q", a.Cfg.Database.Driver)
	}
	if a.Metrics != nil {
		t.Fatalf("metrics should stay off unless enabled")
	}

	dbc := dbctx.Context{Ctx: context.Background()}
	if _, err := a.Analytics.Users.GetOrCreate(dbc, services.UserRef{ExternalID: 1, Username: "ada"}); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	id, err := a.Analytics.Users.ID(dbc, 1)
	if err != nil || id == nil {
		t.Fatalf("Users.ID: id=%v err=%v", id, err)
	}

	a.Close()
	a.Close()
}
