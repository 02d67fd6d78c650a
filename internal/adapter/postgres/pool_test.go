package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/heartmarshall/jawiki-kana-dict/internal/config"
)

func TestPoolConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DatabaseConfig{
		DSN:             "postgres://u:p@localhost:5432/skk",
		MaxConns:        6,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: time.Minute,
		ApplicationName: "jawiki-kana-dict",
	}

	got, err := poolConfig(cfg)
	if err != nil {
		t.Fatalf("poolConfig: %v", err)
	}
	if got.MaxConns != 6 || got.MinConns != 2 {
		t.Errorf("conns = (%d, %d), want (6, 2)", got.MaxConns, got.MinConns)
	}
	if got.MaxConnIdleTime != time.Minute {
		t.Errorf("max_conn_idle_time = %v, want 1m", got.MaxConnIdleTime)
	}
	if name := got.ConnConfig.RuntimeParams["application_name"]; name != "jawiki-kana-dict" {
		t.Errorf("application_name = %q", name)
	}
}

func TestPoolConfig_NoDSN(t *testing.T) {
	t.Parallel()

	if _, err := poolConfig(config.DatabaseConfig{}); !errors.Is(err, ErrNoDSN) {
		t.Fatalf("poolConfig() error = %v, want ErrNoDSN", err)
	}
}

func TestPoolConfig_BadDSN(t *testing.T) {
	t.Parallel()

	if _, err := poolConfig(config.DatabaseConfig{DSN: "postgres://%zz"}); err == nil {
		t.Fatal("expected an error for an unparsable DSN")
	}
}
