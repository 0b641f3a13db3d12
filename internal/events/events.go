// Package events fans group change notifications out over NATS so that every
// API instance can drop its cached view of a group another instance changed.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bankroll/internal/logger"
	"bankroll/internal/models"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// SubjectPrefix starts every group change subject.
const SubjectPrefix = "bankroll.groups."

// SubjectWildcard matches the change subject of every group.
const SubjectWildcard = SubjectPrefix + "*.changed"

// Subject returns the change subject of one group.
func Subject(groupID int64) string {
	return SubjectPrefix + strconv.FormatInt(groupID, 10) + ".changed"
}

// GroupChanged is published after a mutation chain completes.
type GroupChanged struct {
	GroupID   int64                 `json:"group_id"`
	BalanceID int64                 `json:"balance_id,omitempty"`
	Category  models.ChangeCategory `json:"category,omitempty"`
	Origin    string                `json:"origin"`
	At        time.Time             `json:"at"`
}

// Publisher announces group changes.
type Publisher interface {
	PublishGroupChanged(ctx context.Context, ev GroupChanged) error
}

// Nop discards every event. It is used when NATS_URL is unset.
type Nop struct{}

// PublishGroupChanged implements Publisher.
func (Nop) PublishGroupChanged(context.Context, GroupChanged) error { return nil }

// Bus publishes and consumes group change events on a NATS connection.
type Bus struct {
	Conn   *nats.Conn
	origin string
	log    *zap.SugaredLogger
}

// Connect dials NATS at url, authenticating with token when it is set.
func Connect(url, token string) (*Bus, error) {
	opts := []nats.Option{
		nats.Name("bankroll-api"),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return NewBus(conn), nil
}

// NewBus wraps an existing connection. Each bus gets its own origin id so it
// can ignore the events it published itself.
func NewBus(conn *nats.Conn) *Bus {
	return &Bus{
		Conn:   conn,
		origin: uuid.NewString(),
		log:    logger.Named("events"),
	}
}

// Origin returns the id stamped on events from this bus.
func (b *Bus) Origin() string {
	return b.origin
}

// PublishGroupChanged implements Publisher.
func (b *Bus) PublishGroupChanged(_ context.Context, ev GroupChanged) error {
	ev.Origin = b.origin
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := b.Conn.Publish(Subject(ev.GroupID), payload); err != nil {
		b.log.Errorw("Error publishing group change", "group_id", ev.GroupID, "error", err)
		return err
	}
	return nil
}

// SubscribeGroupChanged calls fn for every change event published by other
// instances.
func (b *Bus) SubscribeGroupChanged(fn func(GroupChanged)) (*nats.Subscription, error) {
	return b.Conn.Subscribe(SubjectWildcard, func(msg *nats.Msg) {
		b.handle(msg, fn)
	})
}

func (b *Bus) handle(msg *nats.Msg, fn func(GroupChanged)) {
	var ev GroupChanged
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		b.log.Warnw("Dropping malformed group change", "subject", msg.Subject, "error", err)
		return
	}
	if ev.GroupID == 0 {
		ev.GroupID = groupFromSubject(msg.Subject)
	}
	if ev.Origin == b.origin {
		return
	}
	fn(ev)
}

func groupFromSubject(subject string) int64 {
	rest := strings.TrimPrefix(subject, SubjectPrefix)
	rest = strings.TrimSuffix(rest, ".changed")
	id, _ := strconv.ParseInt(rest, 10, 64)
	return id
}

// Close drains the connection.
func (b *Bus) Close() {
	if b.Conn != nil {
		_ = b.Conn.Drain()
	}
}
