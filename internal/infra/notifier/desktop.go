package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"hackerfeed/internal/domain/entity"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsService  = "org.freedesktop.Notifications"
	notificationsPath     = dbus.ObjectPath("/org/freedesktop/Notifications")
	notificationsNotify   = notificationsService + ".Notify"
	defaultDesktopAppName = "Hacker News feed"
)

// DesktopConfig contains configuration for desktop notifications sent over
// the session D-Bus.
type DesktopConfig struct {
	// Enabled indicates whether desktop notifications are enabled
	Enabled bool

	// AppName is reported to the notification daemon as the sender
	AppName string

	// ExpireMS is the display timeout in milliseconds.
	// -1 leaves it to the daemon and 0 never expires.
	ExpireMS int32
}

// notificationBus is the slice of a D-Bus connection the desktop notifier uses.
type notificationBus interface {
	Notify(ctx context.Context, appName, summary, body string, expireMS int32) (uint32, error)
	Close() error
}

// busDialer opens a fresh bus connection.
type busDialer func() (notificationBus, error)

// sessionBus adapts *dbus.Conn to notificationBus.
type sessionBus struct {
	conn *dbus.Conn
}

func dialSessionBus() (notificationBus, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}
	return &sessionBus{conn: conn}, nil
}

func (b *sessionBus) Notify(ctx context.Context, appName, summary, body string, expireMS int32) (uint32, error) {
	var id uint32
	obj := b.conn.Object(notificationsService, notificationsPath)
	call := obj.CallWithContext(ctx, notificationsNotify, 0,
		appName, uint32(0), "", summary, body, []string{}, map[string]dbus.Variant{}, expireMS)
	if call.Err != nil {
		return 0, call.Err
	}
	if err := call.Store(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (b *sessionBus) Close() error {
	return b.conn.Close()
}

// DesktopNotifier shows each story as a desktop notification through the
// org.freedesktop.Notifications service.
//
// The bus connection is opened at the start of every batch and closed when
// the batch is done, so a restarted notification daemon is picked up on the
// next cycle.
type DesktopNotifier struct {
	config DesktopConfig
	dial   busDialer
}

// NewDesktopNotifier creates a DesktopNotifier, filling in the default
// application name when none is configured.
func NewDesktopNotifier(config DesktopConfig) *DesktopNotifier {
	if config.AppName == "" {
		config.AppName = defaultDesktopAppName
	}
	return &DesktopNotifier{config: config, dial: dialSessionBus}
}

// Notify sends one desktop notification per message.
//
// A failure on one message does not stop the rest of the batch; all failures
// are joined into the returned error, which wraps entity.ErrNotify.
func (d *DesktopNotifier) Notify(ctx context.Context, msgs []entity.NotificationMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	bus, err := d.dial()
	if err != nil {
		return fmt.Errorf("%w: connect session bus: %w", entity.ErrNotify, err)
	}
	defer func() {
		if cerr := bus.Close(); cerr != nil {
			slog.Warn("failed to close session bus", slog.Any("error", cerr))
		}
	}()

	var errs []error
	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := bus.Notify(ctx, d.config.AppName, msg.Title, msg.BodyHTML, d.config.ExpireMS); err != nil {
			slog.Warn("desktop notification failed",
				slog.String("url", msg.URL),
				slog.Any("error", err))
			errs = append(errs, fmt.Errorf("%s: %w", msg.URL, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: desktop: %w", entity.ErrNotify, errors.Join(errs...))
	}
	return nil
}
