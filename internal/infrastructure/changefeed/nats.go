// Package changefeed tells other server instances that a user's job
// records changed so they can drop their cached copy.
package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"job-tracker/internal/config"
	"job-tracker/internal/pkg/apperr"
	"job-tracker/internal/pkg/logger"
	"job-tracker/internal/telemetry"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

var tracer = telemetry.Tracer("job-tracker/changefeed")

const SubjectPrefix = "jobs.changed."

type Event struct {
	UserID string    `json:"userId"`
	Op     string    `json:"op"`
	Origin string    `json:"origin"`
	At     time.Time `json:"at"`
}

func Subject(userID string) string {
	return SubjectPrefix + userID
}

// Feed publishes and receives change events. Without a NATS URL it is
// disabled: Publish and Subscribe succeed and do nothing.
type Feed struct {
	conn   *nats.Conn
	origin string
	logger *zap.Logger
	now    func() time.Time

	mu  sync.Mutex
	sub *nats.Subscription
}

func Connect(cfg config.NATSConfig, log *zap.Logger) (*Feed, error) {
	f := &Feed{origin: uuid.NewString(), logger: logger.OrNop(log), now: time.Now}
	if strings.TrimSpace(cfg.URL) == "" {
		f.logger.Info("nats not configured, change feed disabled")
		return f, nil
	}

	opts := []nats.Option{
		nats.Timeout(cfg.ConnTimeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}
	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, apperr.Unavailable("connecting to NATS", err)
	}
	f.conn = conn
	return f, nil
}

func (f *Feed) Enabled() bool {
	return f.conn != nil
}

// Origin identifies this process in published events.
func (f *Feed) Origin() string {
	return f.origin
}

func (f *Feed) Publish(ctx context.Context, userID, op string) error {
	if !f.Enabled() {
		return nil
	}
	_, span := tracer.Start(ctx, "changefeed.Publish")
	defer span.End()

	data, err := json.Marshal(Event{UserID: userID, Op: op, Origin: f.origin, At: f.now().UTC()})
	if err != nil {
		telemetry.Fail(span, err)
		return apperr.Internal("marshaling change event", err)
	}
	subject := Subject(userID)
	span.SetAttributes(
		telemetry.String("nats.subject", subject),
		telemetry.Int("message.size", len(data)),
	)

	if err := f.conn.Publish(subject, data); err != nil {
		telemetry.Fail(span, err)
		f.logger.Error("failed to publish change event", zap.String("user_id", userID), zap.Error(err))
		return apperr.Unavailable("publishing to NATS", err)
	}
	f.logger.Debug("published change event", zap.String("subject", subject), zap.String("op", op))
	return nil
}

// Subscribe calls onChange for every event published by another instance.
func (f *Feed) Subscribe(onChange func(userID string)) error {
	if !f.Enabled() {
		return nil
	}
	sub, err := f.conn.Subscribe(SubjectPrefix+"*", func(msg *nats.Msg) {
		f.handle(msg, onChange)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s*: %w", SubjectPrefix, err)
	}
	f.mu.Lock()
	f.sub = sub
	f.mu.Unlock()
	f.logger.Info("subscribed to change feed", zap.String("origin", f.origin))
	return nil
}

func (f *Feed) handle(msg *nats.Msg, onChange func(userID string)) {
	_, span := tracer.Start(context.Background(), "changefeed.handle")
	defer span.End()

	var ev Event
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		telemetry.Fail(span, err)
		f.logger.Warn("dropping malformed change event", zap.String("subject", msg.Subject), zap.Error(err))
		return
	}
	if ev.Origin == f.origin {
		return
	}
	if ev.UserID == "" {
		ev.UserID = strings.TrimPrefix(msg.Subject, SubjectPrefix)
	}
	if ev.UserID == "" {
		return
	}
	onChange(ev.UserID)
}

func (f *Feed) Close() {
	f.mu.Lock()
	sub := f.sub
	f.sub = nil
	f.mu.Unlock()
	if sub != nil {
		_ = sub.Unsubscribe()
	}
	if f.conn != nil {
		f.conn.Close()
	}
}
