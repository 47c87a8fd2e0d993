// Package report publishes the final mission summary to the configured metrics sinks.
package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/aerosweep/sweep/pkg/core"
)

// Sink is one metrics destination.
type Sink interface {
	Name() string
	Submit(ctx context.Context, summary core.Summary) error
}

// Publisher sends a summary to every sink once. Failures are logged and dropped.
type Publisher struct {
	sinks []Sink
	log   *slog.Logger
}

// NewPublisher creates a publisher over sinks. A nil logger discards failures.
func NewPublisher(log *slog.Logger, sinks ...Sink) *Publisher {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Publisher{sinks: sinks, log: log}
}

// Add registers another sink.
func (p *Publisher) Add(s Sink) {
	p.sinks = append(p.sinks, s)
}

// Len returns the number of registered sinks.
func (p *Publisher) Len() int {
	return len(p.sinks)
}

// Publish submits summary to each sink in registration order.
func (p *Publisher) Publish(ctx context.Context, summary core.Summary) {
	for _, s := range p.sinks {
		start := time.Now()
		if err := s.Submit(ctx, summary); err != nil {
			p.log.Warn("Metrics submission failed", "sink", s.Name(), "error", err)
			continue
		}
		p.log.Debug("Metrics submitted", "sink", s.Name(), "duration", time.Since(start))
	}
}
