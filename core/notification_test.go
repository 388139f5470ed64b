package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/stretchr/testify/assert"
)

func TestSessionNotifier(t *testing.T) {

	var manager = scs.New()
	manager.Store = memstore.New()
	var notifier = SessionNotifier{Manager: manager}

	var popped []Notification
	var handler = manager.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var c = &CoreDB{Notifier: notifier}
		c.success(r.Context(), "saved %s", "Maria")
		_ = c.fail(r.Context(), ErrForbidden)
		popped = notifier.PopNotifications(r.Context())
		assert.Empty(t, notifier.PopNotifications(r.Context()))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []Notification{
		{"saved Maria", "success"},
		{"You are not allowed to do that.", "danger"},
	}, popped)
}

func TestNilNotifier(t *testing.T) {
	var c = &CoreDB{}
	assert.Equal(t, ErrNotFound, c.fail(context.Background(), ErrNotFound))
}
