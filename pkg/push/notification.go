// Package push turns push payloads into notification descriptors and
// notification clicks into navigation actions. Both are pure functions;
// Notifier is the thin binding that delivers descriptors.
package push

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Payload defaults.
const (
	DefaultTitle = "Cornellà Local"
	DefaultBody  = "Nueva notificación de Cornellà Local"
	DefaultURL   = "/"
)

// Notification assets and actions.
const (
	IconPath  = "/icons/icon-192x192.png"
	BadgePath = "/icons/icon-72x72.png"

	ActionOpen  = "open"
	ActionClose = "close"
)

// ErrMalformedPayload is returned for payloads that are not a JSON object.
var ErrMalformedPayload = errors.New("malformed push payload")

// Payload is the push message wire format. Every field is optional.
type Payload struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
	URL   string `json:"url,omitempty"`
}

// NotificationData travels with the notification and comes back on click.
type NotificationData struct {
	URL           string `json:"url"`
	DateOfArrival int64  `json:"dateOfArrival"`
}

// NotificationAction is a button shown on the notification.
type NotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Notification describes what to display.
type Notification struct {
	Title   string               `json:"title"`
	Body    string               `json:"body"`
	Icon    string               `json:"icon"`
	Badge   string               `json:"badge"`
	Vibrate []int                `json:"vibrate"`
	Data    NotificationData     `json:"data"`
	Actions []NotificationAction `json:"actions"`
}

// BuildNotification builds the descriptor for a raw push payload received
// at now. An absent payload yields (nil, nil): nothing is displayed.
// Empty fields fall back to the defaults.
func BuildNotification(raw []byte, now time.Time) (*Notification, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil
	}

	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	return &Notification{
		Title:   orDefault(p.Title, DefaultTitle),
		Body:    orDefault(p.Body, DefaultBody),
		Icon:    IconPath,
		Badge:   BadgePath,
		Vibrate: []int{100, 50, 100},
		Data: NotificationData{
			URL:           orDefault(p.URL, DefaultURL),
			DateOfArrival: now.UnixMilli(),
		},
		Actions: []NotificationAction{
			{Action: ActionOpen, Title: "Ver"},
			{Action: ActionClose, Title: "Cerrar"},
		},
	}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// ActionKind is what a notification click leads to.
type ActionKind string

const (
	// ActionNone: the notification is closed and nothing else happens.
	ActionNone ActionKind = "none"

	// ActionFocus: an already open window is brought to front.
	ActionFocus ActionKind = "focus"

	// ActionOpenWindow: a new window is opened at URL.
	ActionOpenWindow ActionKind = "open_window"
)

// Click is a notification click event.
type Click struct {
	Action string           `json:"action"`
	Data   NotificationData `json:"data"`
}

// Window is an open page controlled by the app.
type Window struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Action is the result of resolving a click.
type Action struct {
	Kind     ActionKind `json:"kind"`
	WindowID string     `json:"window_id,omitempty"`
	URL      string     `json:"url,omitempty"`
}

// ResolveClick decides what a click does. The notification is always
// closed first; "close" stops there. Otherwise a window already at the
// root URL is focused, or a new window is opened at the deep link.
func ResolveClick(click Click, windows []Window) Action {
	if click.Action == ActionClose {
		return Action{Kind: ActionNone}
	}

	for _, win := range windows {
		if isRoot(win.URL) {
			return Action{Kind: ActionFocus, WindowID: win.ID, URL: win.URL}
		}
	}

	return Action{Kind: ActionOpenWindow, URL: orDefault(click.Data.URL, DefaultURL)}
}

func isRoot(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Path == "/" || (u.Path == "" && u.Host != "")
}
