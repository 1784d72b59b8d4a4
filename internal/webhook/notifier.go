package webhook

import (
	"context"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/zinc-sig/packhost/internal/output"
	"github.com/zinc-sig/packhost/internal/publish"
)

// Notifier delivers upload cycle results to a webhook. Each delivery runs in
// its own goroutine.
type Notifier struct {
	client *Client
	events []string
	logger *log.Logger

	wg sync.WaitGroup
}

// NewNotifier creates a notifier that delivers the listed outcomes,
// DefaultEvents when events is empty
func NewNotifier(client *Client, events []string, logger *log.Logger) *Notifier {
	if len(events) == 0 {
		events = DefaultEvents
	}
	return &Notifier{
		client: client,
		events: events,
		logger: logger,
	}
}

// ObserveCycle implements publish.Observer
func (n *Notifier) ObserveCycle(result publish.CycleResult) {
	if !slices.Contains(n.events, string(result.Outcome)) {
		return
	}

	payload := Payload(result)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.client.Deliver(context.Background(), payload); err != nil && n.logger != nil {
			n.logger.Warn("webhook delivery failed", "outcome", result.Outcome, "err", err)
		}
	}()
}

// Wait blocks until in-flight deliveries have finished
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// Payload converts a cycle result to the JSON document sent to webhooks
func Payload(result publish.CycleResult) *output.Result {
	status := output.StatusUploaded
	switch result.Outcome {
	case publish.OutcomeFailed:
		status = output.StatusFailed
	case publish.OutcomeNotified:
		status = output.StatusNotified
	case publish.OutcomeSuppressed:
		status = output.StatusSuppressed
	}

	r := output.NewResult(status, result.Provider, result.Artifact, result.Duration)
	r.URL = result.URL
	r.SHA1 = result.SHA1
	if result.Err != nil {
		r.Error = result.Err.Error()
	}
	if result.Outcome != publish.OutcomeFailed {
		r.Strategy = result.Strategy.String()
	}
	if result.Outcome == publish.OutcomeNotified {
		pushed := result.Pushed
		r.Clients = &pushed
	}
	return r
}
