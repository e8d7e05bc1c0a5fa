package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// EmailRequest represents an email to be sent.
type EmailRequest struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Provider is an email backend.
type Provider interface {
	Name() string
	Send(ctx context.Context, req *EmailRequest) error
	IsConfigured() bool
}

// Registry picks a configured email provider, preferring the primary and
// falling back in registration order.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
	primary   string
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider. Re-registering a name replaces it in place.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[p.Name()]; !exists {
		r.order = append(r.order, p.Name())
	}
	r.providers[p.Name()] = p
	slog.Info("Registered email provider", "name", p.Name(), "configured", p.IsConfigured())
}

// SetPrimary sets the preferred provider by name.
func (r *Registry) SetPrimary(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("provider %q not registered", name)
	}
	r.primary = name
	return nil
}

// candidates returns configured providers, primary first.
func (r *Registry) candidates() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Provider
	if p, ok := r.providers[r.primary]; ok && p.IsConfigured() {
		out = append(out, p)
	}
	for _, name := range r.order {
		if name == r.primary {
			continue
		}
		if p := r.providers[name]; p.IsConfigured() {
			out = append(out, p)
		}
	}
	return out
}

// Configured reports whether any provider can send.
func (r *Registry) Configured() bool {
	return len(r.candidates()) > 0
}

// Send tries each configured provider until one succeeds. It returns the
// first provider's error when all fail.
func (r *Registry) Send(ctx context.Context, req *EmailRequest) error {
	providers := r.candidates()
	if len(providers) == 0 {
		return fmt.Errorf("no configured email provider available")
	}

	var firstErr error
	for i, p := range providers {
		err := p.Send(ctx, req)
		if err == nil {
			return nil
		}
		if firstErr == nil {
			firstErr = err
		}
		if i+1 < len(providers) {
			slog.Warn("Email provider failed, trying fallback",
				"provider", p.Name(),
				"fallback", providers[i+1].Name(),
				"error", err,
			)
		}
	}
	return firstErr
}

// EmailNotifier sends alerts through a provider registry.
type EmailNotifier struct {
	registry *Registry
	from     string
	to       []string
}

// NewEmailNotifier creates an email channel. to is a comma-separated list.
func NewEmailNotifier(registry *Registry, from, to string) *EmailNotifier {
	return &EmailNotifier{registry: registry, from: from, to: parseRecipients(to)}
}

func (e *EmailNotifier) Name() string { return "email" }

func (e *EmailNotifier) Notify(ctx context.Context, alert *Alert) error {
	if len(e.to) == 0 {
		return fmt.Errorf("no recipients specified")
	}
	return e.registry.Send(ctx, &EmailRequest{
		From:    e.from,
		To:      e.to,
		Subject: alert.Subject,
		Body:    alert.Body,
	})
}
