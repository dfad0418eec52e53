// Package notification handles sending notifications to external services.
package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/containrrr/shoutrrr"
)

// sendFunc delivers one message. Injectable for tests.
type sendFunc func(url, message string) error

// Notifier delivers lifecycle events via Shoutrrr.
type Notifier struct {
	enabled     bool
	shoutrrrURL string
	send        sendFunc
}

// NewNotifier initializes a Shoutrrr-based notification client. When enabled
// is false the notifier is inert and all sends succeed silently.
func NewNotifier(enabled bool, shoutrrrURL string) (*Notifier, error) {
	if !enabled {
		return &Notifier{enabled: false}, nil
	}

	url := strings.TrimSpace(shoutrrrURL)
	if url == "" {
		return &Notifier{enabled: false}, fmt.Errorf("notification enabled but shoutrrr_url not configured: provide URL in format 'service://credentials' (e.g., discord://token@webhookid)")
	}

	return &Notifier{enabled: true, shoutrrrURL: url, send: shoutrrr.Send}, nil
}

// WithSender replaces the delivery function, for tests.
func (n *Notifier) WithSender(send func(url, message string) error) *Notifier {
	n.send = send
	return n
}

// PullCompleted announces a finished image pull.
func (n *Notifier) PullCompleted(ref string) error {
	return n.deliver(fmt.Sprintf("📦 PwnBox image %s pulled successfully", ref))
}

// UpdateAvailable announces a newer published CLI release.
func (n *Notifier) UpdateAvailable(latest string) error {
	return n.deliver(fmt.Sprintf("⬆️ PwnBox CLI %s has been released", latest))
}

func (n *Notifier) deliver(body string) error {
	if !n.enabled {
		return nil // Notifications disabled
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := body + "\n🕐 " + timestamp

	if err := n.send(n.shoutrrrURL, message); err != nil {
		serviceType := "unknown"
		if idx := strings.Index(n.shoutrrrURL, "://"); idx > 0 {
			serviceType = n.shoutrrrURL[:idx]
		}
		return fmt.Errorf("notification failed to send via %s: %w", serviceType, err)
	}
	return nil
}

// IsEnabled reports whether notifications are configured and active.
func (n *Notifier) IsEnabled() bool {
	return n.enabled
}
