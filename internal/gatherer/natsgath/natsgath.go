// Package natsgath streams batch progress events to a NATS subject so other
// systems can follow long unattended runs.
package natsgath

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/programme-lv/benchrunner/api"
)

type natsGatherer struct {
	nc      *nats.Conn
	subject string
	runID   string
}

// New creates a gatherer that publishes JSON events to the given subject,
// stamped with the batch run's id.
func New(nc *nats.Conn, runID string, subject string) *natsGatherer {
	return &natsGatherer{nc: nc, subject: subject, runID: runID}
}

func (s *natsGatherer) send(msg any) {
	b, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal progress event", "err", err)
		return
	}
	if err := s.nc.Publish(s.subject, b); err != nil {
		slog.Error("failed to publish progress event", "err", err)
	}
}

func (s *natsGatherer) StartRun(total int) {
	msg := struct {
		MsgType string `json:"msg_type"`
		RunID   string `json:"run_id"`
		Total   int    `json:"total"`
	}{
		MsgType: "started_run",
		RunID:   s.runID,
		Total:   total,
	}
	s.send(msg)
}

func (s *natsGatherer) StartProject(name string) {
	msg := struct {
		MsgType   string `json:"msg_type"`
		RunID     string `json:"run_id"`
		Benchmark string `json:"benchmark"`
	}{
		MsgType:   "started_benchmark",
		RunID:     s.runID,
		Benchmark: name,
	}
	s.send(msg)
}

func (s *natsGatherer) FinishProject(outcome api.ProjectOutcome) {
	msg := struct {
		MsgType string             `json:"msg_type"`
		RunID   string             `json:"run_id"`
		Outcome api.ProjectOutcome `json:"outcome"`
	}{
		MsgType: "finished_benchmark",
		RunID:   s.runID,
		Outcome: outcome,
	}
	s.send(msg)
}

func (s *natsGatherer) FinishRun(summary api.RunSummary, elapsed time.Duration, resultsDir string) {
	msg := struct {
		MsgType   string         `json:"msg_type"`
		RunID     string         `json:"run_id"`
		Summary   api.RunSummary `json:"summary"`
		ElapsedMs int64          `json:"elapsed_ms"`
	}{
		MsgType:   "finished_run",
		RunID:     s.runID,
		Summary:   summary,
		ElapsedMs: elapsed.Milliseconds(),
	}
	s.send(msg)
}
