package kube

import (
	"context"
	"fmt"
	"sort"
	"time"

	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

const maxEvents = 20

// Event is a trimmed Kubernetes Event focused on what the LLM needs.
type Event struct {
	Reason   string
	Message  string
	Count    int32
	LastSeen time.Time
	// InvolvedObject is "Pod/my-pod" or "Job/my-job".
	InvolvedObject string
}

// FetchWarningEvents returns the most recent Warning events in namespace
// whose InvolvedObject name is one of involvedNames (the Job and its pods).
//
// Events are sorted newest-first and capped at maxEvents.
func FetchWarningEvents(
	ctx context.Context,
	c client.Client,
	namespace string,
	involvedNames map[string]bool,
) ([]Event, error) {
	var eventList corev1.EventList
	if err := c.List(ctx, &eventList, client.InNamespace(namespace)); err != nil {
		return nil, fmt.Errorf("listing events in %s: %w", namespace, err)
	}

	var out []Event
	for _, ev := range eventList.Items {
		if ev.Type != corev1.EventTypeWarning || !involvedNames[ev.InvolvedObject.Name] {
			continue
		}
		last := ev.LastTimestamp.Time
		if last.IsZero() {
			last = ev.EventTime.Time
		}
		out = append(out, Event{
			Reason:         ev.Reason,
			Message:        ev.Message,
			Count:          ev.Count,
			LastSeen:       last,
			InvolvedObject: ev.InvolvedObject.Kind + "/" + ev.InvolvedObject.Name,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastSeen.After(out[j].LastSeen)
	})

	if len(out) > maxEvents {
		out = out[:maxEvents]
	}
	return out, nil
}
