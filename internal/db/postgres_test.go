package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alumnisphere/api/internal/config"
	"github.com/jackc/pgx/v5"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Commit(context.Context) error   { f.committed = true; return nil }
func (f *fakeTx) Rollback(context.Context) error { f.rolledBack = true; return nil }

type fakeBeginner struct {
	tx  *fakeTx
	err error
}

func (f *fakeBeginner) Begin(context.Context) (pgx.Tx, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tx, nil
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}

	err := WithTx(context.Background(), b, func(ctx context.Context, tx pgx.Tx) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("expected a default deadline on the transaction context")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}
	if !b.tx.committed || b.tx.rolledBack {
		t.Errorf("committed=%v rolledBack=%v", b.tx.committed, b.tx.rolledBack)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	sentinel := errors.New("boom")

	err := WithTx(context.Background(), b, func(context.Context, pgx.Tx) error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Fatalf("WithTx() error = %v, want %v", err, sentinel)
	}
	if b.tx.committed || !b.tx.rolledBack {
		t.Errorf("committed=%v rolledBack=%v", b.tx.committed, b.tx.rolledBack)
	}
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic to propagate")
		}
		if !b.tx.rolledBack {
			t.Error("expected rollback after panic")
		}
	}()

	_ = WithTx(context.Background(), b, func(context.Context, pgx.Tx) error { panic("bad") })
}

func TestWithTxBeginFailure(t *testing.T) {
	b := &fakeBeginner{err: errors.New("no connection")}
	called := false

	err := WithTx(context.Background(), b, func(context.Context, pgx.Tx) error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Errorf("err=%v called=%v", err, called)
	}
}

func TestPoolConfigFromSettings(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Host = "db.internal"
	cfg.Database.Port = "5433"
	cfg.Database.User = "alumni"
	cfg.Database.Password = "secret"
	cfg.Database.DBName = "alumnisphere"
	cfg.Database.SSLMode = "disable"
	cfg.Database.MaxConns = 12
	cfg.Database.MinConns = 2
	cfg.Database.ConnMaxLifetime = "30m"

	pc, err := poolConfig(cfg)
	if err != nil {
		t.Fatalf("poolConfig() error = %v", err)
	}
	if pc.MaxConns != 12 || pc.MinConns != 2 || pc.MaxConnLifetime != 30*time.Minute {
		t.Errorf("pool limits = %d/%d/%v", pc.MaxConns, pc.MinConns, pc.MaxConnLifetime)
	}
	if pc.ConnConfig.Host != "db.internal" || pc.ConnConfig.Port != 5433 {
		t.Errorf("conn = %s:%d", pc.ConnConfig.Host, pc.ConnConfig.Port)
	}
	if pc.BeforeAcquire == nil {
		t.Error("expected BeforeAcquire health check")
	}

	cfg.Database.ConnMaxLifetime = "forever"
	if _, err := poolConfig(cfg); err == nil {
		t.Error("expected error for bad lifetime")
	}
}
