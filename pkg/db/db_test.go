package db

import (
	"testing"

	"fieldservice/pkg/config"
)

func TestRuntimeConnString_PrefersDatabaseURL(t *testing.T) {
	cfg := config.Config{DatabaseURL: "postgres://pooler/db?pgbouncer=true"}
	if got := runtimeConnString(cfg); got != cfg.DatabaseURL {
		t.Fatalf("expected DATABASE_URL, got %q", got)
	}
}

func TestMigrationConnString_FallsBackToDSN(t *testing.T) {
	cfg := config.Config{DB: config.DBConfig{User: "u", Password: "p", Host: "h", Port: "5432", Name: "n"}}
	want := "postgres://u:p@h:5432/n?sslmode=disable"
	if got := migrationConnString(cfg); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
