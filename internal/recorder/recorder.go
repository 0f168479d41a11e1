package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// Logger is the minimal logging interface the recorder needs.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// ObservedGroupAddress is one group address seen on the bus.
type ObservedGroupAddress struct {
	GroupAddress    string `json:"group_address"`
	FirstSeen       int64  `json:"first_seen"`
	LastSeen        int64  `json:"last_seen"`
	TelegramCount   int64  `json:"telegram_count"`
	HasReadResponse bool   `json:"has_read_response"`
}

// ObservedDevice is one individual (device) address seen on the bus.
type ObservedDevice struct {
	IndividualAddress string `json:"individual_address"`
	FirstSeen         int64  `json:"first_seen"`
	LastSeen          int64  `json:"last_seen"`
	TelegramCount     int64  `json:"telegram_count"`
}

// AddressRecorder passively records the individual and group addresses seen
// in monitored telegrams. It is called from the controller's ingestion path,
// so writes must never block that path on errors: failures are logged and
// dropped.
//
// Thread Safety: All methods are safe for concurrent use.
type AddressRecorder struct {
	db     *sql.DB
	logger Logger

	// Prepared statements for upserts (created once, reused)
	gaUpsertStmt     *sql.Stmt
	deviceUpsertStmt *sql.Stmt
	stmtMu           sync.Mutex

	// Shutdown coordination
	closed bool
	mu     sync.RWMutex
}

// New creates a recorder over the given database. The knx_group_addresses
// and knx_devices tables must exist (created by migrations).
func New(db *sql.DB, logger Logger) *AddressRecorder {
	return &AddressRecorder{
		db:     db,
		logger: logger,
	}
}

// Start prepares the upsert statements. Must be called before RecordTelegram.
func (r *AddressRecorder) Start() error {
	r.stmtMu.Lock()
	defer r.stmtMu.Unlock()

	if r.gaUpsertStmt != nil {
		return nil // Already started
	}

	gaStmt, err := r.db.Prepare(`
		INSERT INTO knx_group_addresses (group_address, first_seen, last_seen, telegram_count, has_read_response)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(group_address) DO UPDATE SET
			last_seen = excluded.last_seen,
			telegram_count = telegram_count + 1,
			has_read_response = MAX(has_read_response, excluded.has_read_response)
	`)
	if err != nil {
		return fmt.Errorf("preparing group address upsert: %w", err)
	}

	deviceStmt, err := r.db.Prepare(`
		INSERT INTO knx_devices (individual_address, first_seen, last_seen, telegram_count)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(individual_address) DO UPDATE SET
			last_seen = excluded.last_seen,
			telegram_count = telegram_count + 1
	`)
	if err != nil {
		gaStmt.Close() //nolint:errcheck // Best effort cleanup on error path
		return fmt.Errorf("preparing device upsert: %w", err)
	}

	r.gaUpsertStmt = gaStmt
	r.deviceUpsertStmt = deviceStmt
	r.log("address recorder started")
	return nil
}

// Stop closes the recorder and releases its prepared statements.
func (r *AddressRecorder) Stop() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.stmtMu.Lock()
	defer r.stmtMu.Unlock()

	if r.gaUpsertStmt != nil {
		r.gaUpsertStmt.Close() //nolint:errcheck // Shutdown path
		r.gaUpsertStmt = nil
	}
	if r.deviceUpsertStmt != nil {
		r.deviceUpsertStmt.Close() //nolint:errcheck // Shutdown path
		r.deviceUpsertStmt = nil
	}

	r.log("address recorder stopped")
}

// RecordTelegram records the source device and destination group address of
// one telegram. Implements the controller's Recorder interface.
//
// Parameters:
//   - source: Source individual address (e.g., "1.1.5") - the sending device
//   - destination: Destination group address (e.g., "1/2/3")
//   - isResponse: True for a GroupValueResponse telegram
func (r *AddressRecorder) RecordTelegram(source, destination string, isResponse bool) {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return
	}
	r.mu.RUnlock()

	r.stmtMu.Lock()
	gaStmt := r.gaUpsertStmt
	deviceStmt := r.deviceUpsertStmt
	r.stmtMu.Unlock()

	if gaStmt == nil || deviceStmt == nil {
		return // Not started
	}

	now := time.Now().Unix()

	// Record source device (skip 0.0.0 which is invalid/broadcast)
	if source != "" && source != "0.0.0" {
		if _, err := deviceStmt.Exec(source, now, now); err != nil {
			r.logError("recording device", err)
		}
	}

	if destination == "" {
		return
	}
	hasResponse := 0
	if isResponse {
		hasResponse = 1
	}
	if _, err := gaStmt.Exec(destination, now, now, hasResponse); err != nil {
		r.logError("recording group address", err)
	}
}

// ListGroupAddresses returns observed group addresses, most recently seen
// first, limited to limit rows (0 means no limit).
func (r *AddressRecorder) ListGroupAddresses(ctx context.Context, limit int) ([]ObservedGroupAddress, error) {
	query := `
		SELECT group_address, first_seen, last_seen, telegram_count, has_read_response
		FROM knx_group_addresses
		ORDER BY last_seen DESC, group_address ASC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying group addresses: %w", err)
	}
	defer rows.Close()

	var addresses []ObservedGroupAddress
	for rows.Next() {
		var a ObservedGroupAddress
		var hasResponse int
		if err := rows.Scan(&a.GroupAddress, &a.FirstSeen, &a.LastSeen, &a.TelegramCount, &hasResponse); err != nil {
			return nil, fmt.Errorf("scanning group address row: %w", err)
		}
		a.HasReadResponse = hasResponse != 0
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

// ListDevices returns observed devices, most recently seen first, limited to
// limit rows (0 means no limit).
func (r *AddressRecorder) ListDevices(ctx context.Context, limit int) ([]ObservedDevice, error) {
	query := `
		SELECT individual_address, first_seen, last_seen, telegram_count
		FROM knx_devices
		ORDER BY last_seen DESC, individual_address ASC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []ObservedDevice
	for rows.Next() {
		var d ObservedDevice
		if err := rows.Scan(&d.IndividualAddress, &d.FirstSeen, &d.LastSeen, &d.TelegramCount); err != nil {
			return nil, fmt.Errorf("scanning device row: %w", err)
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// GroupAddressCount returns the number of catalogued group addresses.
func (r *AddressRecorder) GroupAddressCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM knx_group_addresses`).Scan(&count)
	return count, err
}

// DeviceCount returns the number of catalogued devices.
func (r *AddressRecorder) DeviceCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM knx_devices`).Scan(&count)
	return count, err
}

func (r *AddressRecorder) log(msg string, keysAndValues ...any) {
	if r.logger != nil {
		r.logger.Info(msg, keysAndValues...)
	}
}

func (r *AddressRecorder) logError(msg string, err error) {
	if r.logger != nil {
		r.logger.Error(msg, "error", err)
	}
}
