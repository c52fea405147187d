// Package push delivers chore reminders over the Web Push protocol.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/bayitbeseder/bayit/internal/model"
)

// ErrExpired means the push service no longer knows the subscription.
var ErrExpired = errors.New("push subscription expired")

// Payload is what the service worker receives.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// Reminders are stale after a day.
const defaultTTL = 24 * time.Hour

// Service signs and sends notifications with a VAPID key pair.
type Service struct {
	publicKey  string
	privateKey string
	subscriber string
	ttl        time.Duration
	urgency    webpush.Urgency
	client     *http.Client
}

type Option func(*Service)

// WithTTL sets how long the push service keeps an undelivered message.
func WithTTL(d time.Duration) Option {
	return func(s *Service) { s.ttl = d }
}

func WithUrgency(u webpush.Urgency) Option {
	return func(s *Service) { s.urgency = u }
}

func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.client = c }
}

// NewService returns a service for the given keys. subscriber is a contact
// e-mail or https URL; a leading "mailto:" is accepted and stripped.
func NewService(publicKey, privateKey, subscriber string, opts ...Option) *Service {
	s := &Service{
		publicKey:  publicKey,
		privateKey: privateKey,
		subscriber: strings.TrimPrefix(subscriber, "mailto:"),
		ttl:        defaultTTL,
		urgency:    webpush.UrgencyNormal,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether both VAPID keys are configured.
func (s *Service) Enabled() bool {
	return s.publicKey != "" && s.privateKey != ""
}

func (s *Service) VAPIDPublicKey() string {
	return s.publicKey
}

// Send delivers payload to one subscription. A 404 or 410 from the push
// service yields ErrExpired so callers can drop the subscription.
func (s *Service) Send(ctx context.Context, sub *model.PushSubscription, payload Payload) error {
	if !s.Enabled() {
		return errors.New("push not configured")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	opts := &webpush.Options{
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		Subscriber:      s.subscriber,
		TTL:             int(s.ttl / time.Second),
		Urgency:         s.urgency,
	}
	if s.client != nil {
		opts.HTTPClient = s.client
	}

	resp, err := webpush.SendNotificationWithContext(ctx, data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.P256dhKey, Auth: sub.AuthKey},
	}, opts)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone, resp.StatusCode == http.StatusNotFound:
		return ErrExpired
	case resp.StatusCode >= 400:
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return nil
}

// GenerateVAPIDKeys returns a fresh P-256 key pair, both URL-safe base64.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	if err != nil {
		return "", "", fmt.Errorf("generate vapid keys: %w", err)
	}
	return publicKey, privateKey, nil
}
