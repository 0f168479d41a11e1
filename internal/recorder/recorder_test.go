package recorder

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupRecorderDB creates an in-memory SQLite database with the catalogue tables.
func setupRecorderDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE knx_devices (
			individual_address TEXT PRIMARY KEY,
			first_seen INTEGER NOT NULL,
			last_seen INTEGER NOT NULL,
			telegram_count INTEGER NOT NULL DEFAULT 0
		) STRICT;

		CREATE TABLE knx_group_addresses (
			group_address TEXT PRIMARY KEY,
			first_seen INTEGER NOT NULL,
			last_seen INTEGER NOT NULL,
			telegram_count INTEGER NOT NULL DEFAULT 0,
			has_read_response INTEGER NOT NULL DEFAULT 0
		) STRICT;
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestAddressRecorder_StartStop(t *testing.T) {
	db := setupRecorderDB(t)
	rec := New(db, nil)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	// Double-start should be idempotent (no error).
	if err := rec.Start(); err != nil {
		t.Fatalf("second Start() error: %v", err)
	}

	rec.Stop()

	// Double-stop should not panic.
	rec.Stop()
}

func TestAddressRecorder_RecordTelegram(t *testing.T) {
	db := setupRecorderDB(t)
	rec := New(db, nil)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer rec.Stop()

	ctx := context.Background()

	rec.RecordTelegram("1.1.5", "1/2/3", false)

	gaCount, err := rec.GroupAddressCount(ctx)
	if err != nil {
		t.Fatalf("GroupAddressCount() error: %v", err)
	}
	if gaCount != 1 {
		t.Errorf("GroupAddressCount() = %d, want 1", gaCount)
	}

	devCount, err := rec.DeviceCount(ctx)
	if err != nil {
		t.Fatalf("DeviceCount() error: %v", err)
	}
	if devCount != 1 {
		t.Errorf("DeviceCount() = %d, want 1", devCount)
	}

	// Recording the same GA again upserts instead of inserting.
	rec.RecordTelegram("1.1.5", "1/2/3", false)

	gaCount, err = rec.GroupAddressCount(ctx)
	if err != nil {
		t.Fatalf("GroupAddressCount() error: %v", err)
	}
	if gaCount != 1 {
		t.Errorf("GroupAddressCount() after duplicate = %d, want 1", gaCount)
	}

	var telegramCount int
	err = db.QueryRow(`SELECT telegram_count FROM knx_group_addresses WHERE group_address = ?`, "1/2/3").Scan(&telegramCount)
	if err != nil {
		t.Fatalf("querying telegram_count: %v", err)
	}
	if telegramCount != 2 {
		t.Errorf("telegram_count = %d, want 2", telegramCount)
	}
}

func TestAddressRecorder_SkipsBroadcastSource(t *testing.T) {
	db := setupRecorderDB(t)
	rec := New(db, nil)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer rec.Stop()

	ctx := context.Background()

	// Source "0.0.0" should be skipped (broadcast/invalid).
	rec.RecordTelegram("0.0.0", "1/2/3", false)

	devCount, err := rec.DeviceCount(ctx)
	if err != nil {
		t.Fatalf("DeviceCount() error: %v", err)
	}
	if devCount != 0 {
		t.Errorf("DeviceCount() = %d, want 0 (broadcast should be skipped)", devCount)
	}

	// GA should still be recorded.
	gaCount, err := rec.GroupAddressCount(ctx)
	if err != nil {
		t.Fatalf("GroupAddressCount() error: %v", err)
	}
	if gaCount != 1 {
		t.Errorf("GroupAddressCount() = %d, want 1", gaCount)
	}
}

func TestAddressRecorder_ReadResponseIsSticky(t *testing.T) {
	db := setupRecorderDB(t)
	rec := New(db, nil)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer rec.Stop()

	ctx := context.Background()

	rec.RecordTelegram("1.1.5", "1/2/3", true)

	addrs, err := rec.ListGroupAddresses(ctx, 0)
	if err != nil {
		t.Fatalf("ListGroupAddresses() error: %v", err)
	}
	if len(addrs) != 1 || !addrs[0].HasReadResponse {
		t.Fatalf("addresses = %+v, want one entry with HasReadResponse", addrs)
	}

	// A subsequent non-response must not downgrade the flag (MAX behaviour).
	rec.RecordTelegram("1.1.5", "1/2/3", false)

	addrs, err = rec.ListGroupAddresses(ctx, 0)
	if err != nil {
		t.Fatalf("ListGroupAddresses() error: %v", err)
	}
	if !addrs[0].HasReadResponse {
		t.Error("HasReadResponse downgraded by a later non-response telegram")
	}
	if addrs[0].TelegramCount != 2 {
		t.Errorf("TelegramCount = %d, want 2", addrs[0].TelegramCount)
	}
}

func TestAddressRecorder_ListDevices(t *testing.T) {
	db := setupRecorderDB(t)
	rec := New(db, nil)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer rec.Stop()

	ctx := context.Background()

	rec.RecordTelegram("1.1.1", "1/0/1", false)
	rec.RecordTelegram("1.1.2", "1/0/2", false)

	devices, err := rec.ListDevices(ctx, 0)
	if err != nil {
		t.Fatalf("ListDevices() error: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("ListDevices() returned %d, want 2", len(devices))
	}

	// Limit should be respected.
	devices, err = rec.ListDevices(ctx, 1)
	if err != nil {
		t.Fatalf("ListDevices(limit=1) error: %v", err)
	}
	if len(devices) != 1 {
		t.Errorf("ListDevices(limit=1) returned %d, want 1", len(devices))
	}
}

func TestAddressRecorder_RecordAfterStop(t *testing.T) {
	db := setupRecorderDB(t)
	rec := New(db, nil)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	rec.Stop()

	// Recording after stop should not panic (silently ignored).
	rec.RecordTelegram("1.1.5", "1/2/3", false)

	ctx := context.Background()
	gaCount, err := rec.GroupAddressCount(ctx)
	if err != nil {
		t.Fatalf("GroupAddressCount() error: %v", err)
	}
	if gaCount != 0 {
		t.Errorf("GroupAddressCount() = %d, want 0 (should be ignored after stop)", gaCount)
	}
}

func TestAddressRecorder_RecordBeforeStart(t *testing.T) {
	db := setupRecorderDB(t)
	rec := New(db, nil)

	// Recording before start should not panic (silently ignored).
	rec.RecordTelegram("1.1.5", "1/2/3", false)

	ctx := context.Background()
	gaCount, err := rec.GroupAddressCount(ctx)
	if err != nil {
		t.Fatalf("GroupAddressCount() error: %v", err)
	}
	if gaCount != 0 {
		t.Errorf("GroupAddressCount() = %d, want 0 (should be ignored before start)", gaCount)
	}
}
