// Package notify records notification documents and pushes them to the user's
// live channel. The persisted write is the record of truth; live delivery is
// best-effort and never affects the primary outcome.
package notify

import (
	"context"
	"fmt"

	"finbook/internal/core"
	applog "finbook/internal/log"
)

// ChannelInApp is logged on the notification once live delivery succeeds.
const ChannelInApp = "in-app"

// EventSink publishes an event for one user. Implementations may drop events;
// the dispatcher only logs failures.
type EventSink interface {
	Publish(ctx context.Context, userID int64, event string, payload any) error
}

// Store is the slice of persistence the dispatcher needs.
type Store interface {
	CreateNotification(ctx context.Context, n *core.Notification) error
	AppendDeliveredChannel(ctx context.Context, id int64, channel string) error
}

type Dispatcher struct {
	store Store
	sink  EventSink
	log   *applog.Logger
}

// NewDispatcher builds a dispatcher. sink may be nil, which disables live
// delivery entirely.
func NewDispatcher(store Store, sink EventSink) *Dispatcher {
	return &Dispatcher{
		store: store,
		sink:  sink,
		log:   applog.Default(applog.ComponentNotify),
	}
}

// Notify validates, persists, then attempts live delivery. The persisted
// document is always returned on success, whatever the delivery outcome.
func (d *Dispatcher) Notify(ctx context.Context, in core.NotificationInput) (core.Notification, error) {
	if err := in.Validate(); err != nil {
		return core.Notification{}, err
	}

	priority := in.Priority
	if priority == "" {
		priority = core.PriorityMedium
	}

	n := core.Notification{
		UserID:   in.UserID,
		Type:     in.Type,
		Title:    in.Title,
		Body:     in.Body,
		Data:     in.Data,
		Priority: priority,
	}
	if err := d.store.CreateNotification(ctx, &n); err != nil {
		return core.Notification{}, fmt.Errorf("persist notification: %w", err)
	}

	d.deliver(ctx, &n)
	return n, nil
}

// deliver pushes the notification to the live channel. Failures are logged
// and swallowed; the delivered-channels append may itself fail silently.
func (d *Dispatcher) deliver(ctx context.Context, n *core.Notification) {
	if d.sink == nil {
		d.log.DebugContext(ctx, "Event sink not configured, skipping live delivery",
			"notification_id", n.ID)
		return
	}

	err := d.sink.Publish(ctx, n.UserID, "notification."+n.Type, map[string]any{
		"id":       n.ID,
		"type":     n.Type,
		"title":    n.Title,
		"body":     n.Body,
		"priority": n.Priority,
		"data":     n.Data,
	})
	if err != nil {
		d.log.WarnContext(ctx, "Live notification delivery failed",
			"notification_id", n.ID,
			applog.FieldUserID, n.UserID,
			applog.FieldError, err)
		return
	}

	if err := d.store.AppendDeliveredChannel(ctx, n.ID, ChannelInApp); err != nil {
		d.log.DebugContext(ctx, "Failed to record delivery channel",
			"notification_id", n.ID,
			applog.FieldError, err)
		return
	}
	n.Delivered = append(n.Delivered, ChannelInApp)
}
