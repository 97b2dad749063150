package ws

import (
	"encoding/json"
	"time"

	"jobradar/internal/ingest"
)

type RunStartedEvent struct {
	Type      string `json:"type"`
	RunID     string `json:"run_id"`
	Timestamp string `json:"timestamp"`
}

type RunFinishedEvent struct {
	Type      string         `json:"type"`
	RunID     string         `json:"run_id"`
	Summary   ingest.Summary `json:"summary"`
	Timestamp string         `json:"timestamp"`
}

// RunNotifier broadcasts run lifecycle events over the hub.
type RunNotifier struct {
	hub *Hub
	now func() time.Time
}

func NewRunNotifier(hub *Hub) *RunNotifier {
	return &RunNotifier{hub: hub, now: time.Now}
}

func (n *RunNotifier) RunStarted(runID string) {
	if n == nil || n.hub == nil {
		return
	}
	evt := RunStartedEvent{
		Type:      "run_started",
		RunID:     runID,
		Timestamp: n.now().UTC().Format(time.RFC3339),
	}
	n.publish(evt)
}

func (n *RunNotifier) RunFinished(runID string, summary ingest.Summary) {
	if n == nil || n.hub == nil {
		return
	}
	evt := RunFinishedEvent{
		Type:      "run_finished",
		RunID:     runID,
		Summary:   summary,
		Timestamp: n.now().UTC().Format(time.RFC3339),
	}
	n.publish(evt)
}

func (n *RunNotifier) publish(evt any) {
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	n.hub.Broadcast(b)
}
