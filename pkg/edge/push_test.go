package edge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cornella-local/cornella-edge/pkg/push"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDeliverer struct {
	mu        sync.Mutex
	delivered []*push.Notification
	err       error
}

func (r *recordingDeliverer) Deliver(_ context.Context, notif *push.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered = append(r.delivered, notif)
	return r.err
}

func TestPush_BuildsAndDelivers(t *testing.T) {
	deliverer := &recordingDeliverer{}
	h := newHarness(t, deliverer)
	h.server.now = func() time.Time { return time.UnixMilli(1700000000000) }

	req := httptest.NewRequest(http.MethodPost, "/_edge/push", strings.NewReader(`{"title":"Oferta","url":"/ofertas/3"}`))
	resp, body := h.do(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var notif push.Notification
	require.NoError(t, json.Unmarshal([]byte(body), &notif))
	assert.Equal(t, "Oferta", notif.Title)
	assert.Equal(t, push.DefaultBody, notif.Body)
	assert.Equal(t, "/ofertas/3", notif.Data.URL)
	assert.Equal(t, int64(1700000000000), notif.Data.DateOfArrival)

	require.Len(t, deliverer.delivered, 1)
	assert.Equal(t, "Oferta", deliverer.delivered[0].Title)
}

func TestPush_EmptyPayloadIsNoop(t *testing.T) {
	deliverer := &recordingDeliverer{}
	h := newHarness(t, deliverer)

	resp, _ := h.do(t, httptest.NewRequest(http.MethodPost, "/_edge/push", nil))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, deliverer.delivered)
}

func TestPush_MalformedPayload(t *testing.T) {
	deliverer := &recordingDeliverer{}
	h := newHarness(t, deliverer)

	resp, _ := h.do(t, httptest.NewRequest(http.MethodPost, "/_edge/push", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, deliverer.delivered)
}

func TestPush_WithoutNotifier(t *testing.T) {
	h := newHarness(t, nil)

	resp, body := h.do(t, httptest.NewRequest(http.MethodPost, "/_edge/push", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, push.DefaultTitle)
}

func TestPush_DeliveryFailure(t *testing.T) {
	h := newHarness(t, &recordingDeliverer{err: errors.New("ntfy down")})

	resp, _ := h.do(t, httptest.NewRequest(http.MethodPost, "/_edge/push", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestPushClick(t *testing.T) {
	h := newHarness(t, nil)

	tests := []struct {
		name string
		body string
		want push.Action
	}{
		{
			name: "close",
			body: `{"click":{"action":"close","data":{"url":"/ofertas"}},"windows":[{"id":"w1","url":"https://cornella.local/"}]}`,
			want: push.Action{Kind: push.ActionNone},
		},
		{
			name: "focus root window",
			body: `{"click":{"action":"open","data":{"url":"/ofertas"}},"windows":[{"id":"w1","url":"https://cornella.local/"}]}`,
			want: push.Action{Kind: push.ActionFocus, WindowID: "w1", URL: "https://cornella.local/"},
		},
		{
			name: "open deep link",
			body: `{"click":{"data":{"url":"/ofertas/9"}},"windows":[]}`,
			want: push.Action{Kind: push.ActionOpenWindow, URL: "/ofertas/9"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := h.do(t, httptest.NewRequest(http.MethodPost, "/_edge/push/click", strings.NewReader(tt.body)))
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var got push.Action
			require.NoError(t, json.Unmarshal([]byte(body), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPushClick_Malformed(t *testing.T) {
	h := newHarness(t, nil)

	resp, _ := h.do(t, httptest.NewRequest(http.MethodPost, "/_edge/push/click", strings.NewReader("[")))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
