package core

import (
	"context"
	"encoding/gob"
	"fmt"
	"log"

	"github.com/alexedwards/scs/v2"
)

type Notification struct {
	Message string
	Style   string // bootstrap alert style without the leading "alert-"
}

func init() {
	gob.Register([]Notification{}) // required for storing Notifications in a session
}

// A Notifier displays messages to the user. It must not fail.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

const notificationsKey = "notifications"

// SessionNotifier stores notifications in the session, until PopNotifications is called.
type SessionNotifier struct {
	Manager *scs.SessionManager
}

func (s SessionNotifier) Notify(ctx context.Context, n Notification) {
	notifications, _ := s.Manager.Get(ctx, notificationsKey).([]Notification)
	notifications = append(notifications, n)
	s.Manager.Put(ctx, notificationsKey, notifications)
}

// PopNotifications removes all notifications from the session and returns them.
func (s SessionNotifier) PopNotifications(ctx context.Context) []Notification {
	notifications, _ := s.Manager.Pop(ctx, notificationsKey).([]Notification)
	return notifications
}

// LogNotifier writes notifications to the log. It is used by command line tools.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) {
	log.Printf("[%s] %s", n.Style, n.Message)
}

func (c *CoreDB) notify(ctx context.Context, style, format string, args ...interface{}) {
	if c.Notifier != nil {
		c.Notifier.Notify(ctx, Notification{fmt.Sprintf(format, args...), style})
	}
}

func (c *CoreDB) success(ctx context.Context, format string, args ...interface{}) {
	c.notify(ctx, "success", format, args...)
}

func (c *CoreDB) warning(ctx context.Context, format string, args ...interface{}) {
	c.notify(ctx, "warning", format, args...)
}

// fail reports err to the user and returns it.
func (c *CoreDB) fail(ctx context.Context, err error) error {
	c.notify(ctx, "danger", "%s", Message(err))
	return err
}
