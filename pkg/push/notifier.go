package push

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cornella_push_deliveries_total",
	Help: "Notification deliveries by outcome",
}, []string{"outcome"})

// Sender delivers a message to one or more notification services.
type Sender interface {
	Send(message string, params *types.Params) []error
}

// Notifier displays notifications through shoutrrr services (ntfy,
// Telegram, Discord...).
type Notifier struct {
	sender Sender
	logger zerolog.Logger
}

// NewNotifier creates a notifier for the given shoutrrr service URLs.
func NewNotifier(serviceURLs []string) (*Notifier, error) {
	if len(serviceURLs) == 0 {
		return nil, fmt.Errorf("at least one service URL is required")
	}
	sender, err := shoutrrr.CreateSender(serviceURLs...)
	if err != nil {
		return nil, fmt.Errorf("create shoutrrr sender: %w", err)
	}
	return NewNotifierWithSender(sender), nil
}

// NewNotifierWithSender wraps an existing sender.
func NewNotifierWithSender(sender Sender) *Notifier {
	return &Notifier{
		sender: sender,
		logger: log.With().Str("component", "push").Logger(),
	}
}

// Deliver displays notif. The deep link is appended to the message body.
func (n *Notifier) Deliver(ctx context.Context, notif *Notification) error {
	if notif == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	message := notif.Body
	if notif.Data.URL != "" && notif.Data.URL != DefaultURL {
		message = strings.TrimSpace(message + "\n" + notif.Data.URL)
	}

	params := types.Params{"title": notif.Title}
	errs := n.sender.Send(message, &params)

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	if len(failed) > 0 {
		deliveriesTotal.WithLabelValues("failed").Inc()
		err := errors.Join(failed...)
		n.logger.Error().Err(err).Str("title", notif.Title).Msg("Notification delivery failed")
		return fmt.Errorf("deliver notification: %w", err)
	}

	deliveriesTotal.WithLabelValues("delivered").Inc()
	n.logger.Info().Str("title", notif.Title).Str("url", notif.Data.URL).Msg("Notification delivered")
	return nil
}
