package monitor

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-monitor/internal/telegram"
)

// Snapshot is the authoritative recent-history payload fetched from the
// core on (re)connect, used to reconcile gaps in the live stream.
type Snapshot struct {
	RecentTelegrams []telegram.RawTelegram `json:"recent_telegrams"`
	ProjectLoaded   bool                   `json:"project_loaded"`
}

// Transport is the collaborator that delivers telegrams from the core.
//
// SubscribeTelegrams installs the live-event callback and returns a
// function that tears the subscription down. Implementations live in
// internal/transport; the monitor only depends on this interface.
type Transport interface {
	FetchRecentTelegrams(ctx context.Context) (Snapshot, error)
	SubscribeTelegrams(ctx context.Context, onEvent func(telegram.RawTelegram)) (unsubscribe func(), err error)
}

// ConnectionState is the subscription lifecycle state.
type ConnectionState string

// Connection states: disconnected → subscribing → subscribed, and back to
// disconnected on explicit unsubscribe or transport error.
const (
	StateDisconnected ConnectionState = "disconnected"
	StateSubscribing  ConnectionState = "subscribing"
	StateSubscribed   ConnectionState = "subscribed"
)

// ConnectionListener is notified when the subscription state changes.
// errMessage is empty unless the transition was caused by a failure.
type ConnectionListener func(connected bool, errMessage string)

// ConnectionService owns the live-feed subscription lifecycle.
//
// Reconnection is never automatic: callers trigger Reconnect explicitly and
// are expected to re-fetch an authoritative snapshot and merge it to cover
// any gap (the merge is idempotent by record ID, so overlap is harmless).
type ConnectionService struct {
	transport Transport
	logger    Logger

	mu          sync.Mutex
	state       ConnectionState
	errMessage  string
	unsubscribe func()
	onTelegram  func(telegram.RawTelegram)
	listeners   []ConnectionListener
}

// NewConnectionService creates a disconnected service over the transport.
func NewConnectionService(transport Transport, logger Logger) *ConnectionService {
	return &ConnectionService{
		transport: transport,
		logger:    logger,
		state:     StateDisconnected,
	}
}

// SetOnTelegram installs the live-event callback invoked for every telegram
// received while subscribed. Must be set before Subscribe.
func (s *ConnectionService) SetOnTelegram(fn func(telegram.RawTelegram)) {
	s.mu.Lock()
	s.onTelegram = fn
	s.mu.Unlock()
}

// AddListener registers a state-change listener.
func (s *ConnectionService) AddListener(fn ConnectionListener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Subscribe installs the live-event subscription.
//
// Calling Subscribe while already subscribed is a logged no-op, not an
// error. On failure the error message is captured, the state returns to
// disconnected and listeners are notified with (false, message).
func (s *ConnectionService) Subscribe(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateSubscribed {
		s.mu.Unlock()
		if s.logger != nil {
			s.logger.Warn("subscribe called while already subscribed")
		}
		return nil
	}
	s.state = StateSubscribing
	onTelegram := s.onTelegram
	s.mu.Unlock()

	unsubscribe, err := s.transport.SubscribeTelegrams(ctx, func(raw telegram.RawTelegram) {
		if onTelegram != nil {
			onTelegram(raw)
		}
	})
	if err != nil {
		s.mu.Lock()
		s.state = StateDisconnected
		s.errMessage = err.Error()
		s.mu.Unlock()

		s.notify(false, err.Error())
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	s.mu.Lock()
	s.state = StateSubscribed
	s.errMessage = ""
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	s.notify(true, "")
	if s.logger != nil {
		s.logger.Info("telegram feed subscribed")
	}
	return nil
}

// Reconnect clears any stored error, notifies listeners as disconnected,
// then subscribes again. Callers re-fetch and merge a snapshot around this
// call to avoid gaps.
func (s *ConnectionService) Reconnect(ctx context.Context) error {
	s.Unsubscribe()

	s.mu.Lock()
	s.errMessage = ""
	s.mu.Unlock()

	s.notify(false, "")
	return s.Subscribe(ctx)
}

// Unsubscribe tears down the live subscription. Idempotent: calling it when
// already disconnected does nothing.
func (s *ConnectionService) Unsubscribe() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	wasSubscribed := s.state == StateSubscribed
	s.state = StateDisconnected
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if wasSubscribed {
		s.notify(false, "")
		if s.logger != nil {
			s.logger.Info("telegram feed unsubscribed")
		}
	}
}

// ReportTransportError transitions to disconnected after an asynchronous
// transport failure and notifies listeners with the error message.
func (s *ConnectionService) ReportTransportError(errMessage string) {
	s.mu.Lock()
	s.state = StateDisconnected
	s.errMessage = errMessage
	s.unsubscribe = nil
	s.mu.Unlock()

	s.notify(false, errMessage)
}

// State returns the current lifecycle state.
func (s *ConnectionService) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsSubscribed reports whether the live feed is active.
func (s *ConnectionService) IsSubscribed() bool {
	return s.State() == StateSubscribed
}

// ErrorMessage returns the last captured transport error, empty when none.
func (s *ConnectionService) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMessage
}

// notify invokes listeners outside the service lock, so a listener may call
// back into the service without deadlocking.
func (s *ConnectionService) notify(connected bool, errMessage string) {
	s.mu.Lock()
	listeners := append([]ConnectionListener(nil), s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(connected, errMessage)
	}
}
