package db

import (
	"errors"
	"testing"
)

func TestConnectSQLiteMemory(t *testing.T) {
	database, err := Connect("sqlite", "file:db_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() { _ = database.Close() }()

	var one int
	if err := database.DB.Raw("SELECT 1").Scan(&one).Error; err != nil {
		t.Fatalf("query: %v", err)
	}
	if one != 1 {
		t.Fatalf("expected 1, got %d", one)
	}
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	if _, err := Connect("mysql", "dsn"); !errors.Is(err, ErrUnsupportedDriver) {
		t.Fatalf("expected unsupported driver, got %v", err)
	}
	if _, err := Connect("postgres", ""); err == nil {
		t.Fatal("expected empty dsn rejected")
	}
}
