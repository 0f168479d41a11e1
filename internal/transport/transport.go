package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/nerrad567/gray-logic-monitor/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-monitor/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-monitor/internal/monitor"
	"github.com/nerrad567/gray-logic-monitor/internal/telegram"
)

// MessageBus is the subset of the MQTT client the transport needs.
// *mqtt.Client satisfies it; tests substitute a fake.
type MessageBus interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Logger is the logging interface this package needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// CoreTransport delivers telegrams from Gray Logic Core: the authoritative
// recent-history snapshot over the core's REST API, and the live feed over
// MQTT. It implements monitor.Transport.
type CoreTransport struct {
	httpClient   *http.Client
	baseURL      string
	snapshotPath string
	topic        string
	qos          byte
	bus          MessageBus
	logger       Logger
}

// New creates a transport over the core's REST API and the message bus.
//
// Parameters:
//   - cfg: Full configuration (core endpoint, topic, timeouts, QoS)
//   - bus: Connected MQTT client for the live feed
//   - logger: Logger for decode warnings (may be nil)
func New(cfg *config.Config, bus MessageBus, logger Logger) *CoreTransport {
	topic := cfg.Core.TelegramTopic
	if topic == "" {
		topic = mqtt.Topics{}.KNXTelegram()
	}

	// #nosec G115 -- QoS validated to 0-2 by config.Validate
	return &CoreTransport{
		httpClient: &http.Client{
			Timeout: cfg.GetCoreRequestTimeout(),
		},
		baseURL:      strings.TrimRight(cfg.Core.BaseURL, "/"),
		snapshotPath: cfg.Core.SnapshotPath,
		topic:        topic,
		qos:          byte(cfg.MQTT.QoS),
		bus:          bus,
		logger:       logger,
	}
}

// FetchRecentTelegrams retrieves the core's recent-telegram snapshot.
//
// The snapshot is authoritative: callers merge it over the live stream to
// reconcile any gap (merge is idempotent by record ID).
//
// Parameters:
//   - ctx: Context for cancellation (the HTTP client also enforces the
//     configured request timeout)
//
// Returns:
//   - monitor.Snapshot: Recent telegrams plus the core's project state
//   - error: Wrapped ErrSnapshotFetch on request, status or decode failure
func (t *CoreTransport) FetchRecentTelegrams(ctx context.Context) (monitor.Snapshot, error) {
	endpoint, err := url.JoinPath(t.baseURL, t.snapshotPath)
	if err != nil {
		return monitor.Snapshot{}, fmt.Errorf("%w: bad endpoint: %w", ErrSnapshotFetch, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return monitor.Snapshot{}, fmt.Errorf("%w: %w", ErrSnapshotFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return monitor.Snapshot{}, fmt.Errorf("%w: %w", ErrSnapshotFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return monitor.Snapshot{}, fmt.Errorf("%w: unexpected status %d", ErrSnapshotFetch, resp.StatusCode)
	}

	var snapshot monitor.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return monitor.Snapshot{}, fmt.Errorf("%w: decode: %w", ErrSnapshotFetch, err)
	}

	return snapshot, nil
}

// SubscribeTelegrams installs the live-feed subscription on the telegram
// topic and returns a teardown function.
//
// Malformed payloads are logged and skipped; they never tear down the
// subscription. The returned unsubscribe function is safe to call once.
func (t *CoreTransport) SubscribeTelegrams(ctx context.Context, onEvent func(telegram.RawTelegram)) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubscribe, err)
	}

	handler := func(topic string, payload []byte) error {
		var raw telegram.RawTelegram
		if err := json.Unmarshal(payload, &raw); err != nil {
			if t.logger != nil {
				t.logger.Warn("discarding malformed telegram payload",
					"topic", topic,
					"error", err,
				)
			}
			return fmt.Errorf("unmarshal telegram: %w", err)
		}
		onEvent(raw)
		return nil
	}

	if err := t.bus.Subscribe(t.topic, t.qos, handler); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubscribe, err)
	}
	if t.logger != nil {
		t.logger.Debug("telegram feed subscription installed", "topic", t.topic)
	}

	unsubscribe := func() {
		if err := t.bus.Unsubscribe(t.topic); err != nil && t.logger != nil {
			t.logger.Warn("telegram feed unsubscribe failed",
				"topic", t.topic,
				"error", err,
			)
		}
	}
	return unsubscribe, nil
}

// SnapshotURL returns the resolved snapshot endpoint, for logging.
func (t *CoreTransport) SnapshotURL() string {
	endpoint, err := url.JoinPath(t.baseURL, t.snapshotPath)
	if err != nil {
		return t.baseURL + t.snapshotPath
	}
	return endpoint
}

// WithHTTPClient replaces the HTTP client. Intended for tests that need a
// custom transport or timeout.
func (t *CoreTransport) WithHTTPClient(client *http.Client) *CoreTransport {
	if client != nil {
		t.httpClient = client
	}
	return t
}

var _ monitor.Transport = (*CoreTransport)(nil)
