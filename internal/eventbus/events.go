// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package eventbus

import "time"

// Event names published during a swarm run. These form the contract with
// the presentation layers (console printer, TUI) and are stable.
const (
	WorkerStarted   = "worker:started"
	WorkerOutput    = "worker:output"
	WorkerComplete  = "worker:complete"
	WorkerError     = "worker:error"
	WorkerRetrying  = "worker:retrying"
	WorkerCanceling = "worker:canceling"

	WorkersProgress    = "workers:progress"
	WorkersAllComplete = "workers:all-complete"
	WorkersCanceling   = "workers:canceling"

	MergeStarted  = "merge:started"
	MergeProgress = "merge:progress"
	MergeComplete = "merge:complete"
	MergeError    = "merge:error"
)

// Stream identifies which output stream a chunk of worker output came from.
const (
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns the string identifier for this event type.
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// WorkerStartedEvent is emitted when a worker attempt begins execution.
// An attempt number greater than one indicates a retry.
type WorkerStartedEvent struct {
	baseEvent
	WorkerID     int
	GroupingName string
	Attempt      int
}

// NewWorkerStartedEvent creates a WorkerStartedEvent.
func NewWorkerStartedEvent(workerID int, groupingName string, attempt int) WorkerStartedEvent {
	return WorkerStartedEvent{
		baseEvent:    newBaseEvent(WorkerStarted),
		WorkerID:     workerID,
		GroupingName: groupingName,
		Attempt:      attempt,
	}
}

// WorkerOutputEvent is emitted for each chunk of output a worker produces
// while it is still running.
type WorkerOutputEvent struct {
	baseEvent
	WorkerID     int
	GroupingName string
	Stream       string // StreamStdout or StreamStderr
	Chunk        string
}

// NewWorkerOutputEvent creates a WorkerOutputEvent.
func NewWorkerOutputEvent(workerID int, groupingName, stream, chunk string) WorkerOutputEvent {
	return WorkerOutputEvent{
		baseEvent:    newBaseEvent(WorkerOutput),
		WorkerID:     workerID,
		GroupingName: groupingName,
		Stream:       stream,
		Chunk:        chunk,
	}
}

// WorkerCompleteEvent is emitted when a worker reaches a successful
// terminal state.
type WorkerCompleteEvent struct {
	baseEvent
	WorkerID     int
	GroupingName string
	ExitCode     int
	Duration     time.Duration
}

// NewWorkerCompleteEvent creates a WorkerCompleteEvent.
func NewWorkerCompleteEvent(workerID int, groupingName string, exitCode int, duration time.Duration) WorkerCompleteEvent {
	return WorkerCompleteEvent{
		baseEvent:    newBaseEvent(WorkerComplete),
		WorkerID:     workerID,
		GroupingName: groupingName,
		ExitCode:     exitCode,
		Duration:     duration,
	}
}

// WorkerErrorEvent is emitted when a worker attempt fails.
// WillRetry reports whether another attempt will be scheduled.
type WorkerErrorEvent struct {
	baseEvent
	WorkerID     int
	GroupingName string
	Attempt      int
	Error        string
	WillRetry    bool
}

// NewWorkerErrorEvent creates a WorkerErrorEvent.
func NewWorkerErrorEvent(workerID int, groupingName string, attempt int, errMsg string, willRetry bool) WorkerErrorEvent {
	return WorkerErrorEvent{
		baseEvent:    newBaseEvent(WorkerError),
		WorkerID:     workerID,
		GroupingName: groupingName,
		Attempt:      attempt,
		Error:        errMsg,
		WillRetry:    willRetry,
	}
}

// WorkerRetryingEvent is emitted before the backoff sleep that precedes a
// retry attempt. Attempt is the upcoming attempt number, not the one that
// just failed.
type WorkerRetryingEvent struct {
	baseEvent
	WorkerID      int
	GroupingName  string
	Attempt       int
	MaxRetries    int
	Delay         time.Duration
	PreviousError string
}

// NewWorkerRetryingEvent creates a WorkerRetryingEvent.
func NewWorkerRetryingEvent(workerID int, groupingName string, attempt, maxRetries int, delay time.Duration, previousError string) WorkerRetryingEvent {
	return WorkerRetryingEvent{
		baseEvent:     newBaseEvent(WorkerRetrying),
		WorkerID:      workerID,
		GroupingName:  groupingName,
		Attempt:       attempt,
		MaxRetries:    maxRetries,
		Delay:         delay,
		PreviousError: previousError,
	}
}

// WorkerCancelingEvent is emitted for each live worker when cancellation
// begins.
type WorkerCancelingEvent struct {
	baseEvent
	WorkerID     int
	GroupingName string
}

// NewWorkerCancelingEvent creates a WorkerCancelingEvent.
func NewWorkerCancelingEvent(workerID int, groupingName string) WorkerCancelingEvent {
	return WorkerCancelingEvent{
		baseEvent:    newBaseEvent(WorkerCanceling),
		WorkerID:     workerID,
		GroupingName: groupingName,
	}
}

// ProgressEvent is emitted once per resource monitor sample while workers
// are active. CPU and memory figures are host-wide, not per-worker.
type ProgressEvent struct {
	baseEvent
	Running    int
	Completed  int
	Failed     int
	Total      int
	CPUPercent float64
	MemoryMB   float64
}

// NewProgressEvent creates a ProgressEvent.
func NewProgressEvent(running, completed, failed, total int, cpuPercent, memoryMB float64) ProgressEvent {
	return ProgressEvent{
		baseEvent:  newBaseEvent(WorkersProgress),
		Running:    running,
		Completed:  completed,
		Failed:     failed,
		Total:      total,
		CPUPercent: cpuPercent,
		MemoryMB:   memoryMB,
	}
}

// AllCompleteEvent is emitted once every worker has reached a terminal
// state.
type AllCompleteEvent struct {
	baseEvent
	SuccessCount  int
	FailedCount   int
	TotalDuration time.Duration
	SpeedupFactor float64
}

// NewAllCompleteEvent creates an AllCompleteEvent.
func NewAllCompleteEvent(successCount, failedCount int, totalDuration time.Duration, speedupFactor float64) AllCompleteEvent {
	return AllCompleteEvent{
		baseEvent:     newBaseEvent(WorkersAllComplete),
		SuccessCount:  successCount,
		FailedCount:   failedCount,
		TotalDuration: totalDuration,
		SpeedupFactor: speedupFactor,
	}
}

// CancelingEvent is emitted once when run-level cancellation begins.
type CancelingEvent struct {
	baseEvent
	RunningCount int
	TotalCount   int
}

// NewCancelingEvent creates a CancelingEvent.
func NewCancelingEvent(runningCount, totalCount int) CancelingEvent {
	return CancelingEvent{
		baseEvent:    newBaseEvent(WorkersCanceling),
		RunningCount: runningCount,
		TotalCount:   totalCount,
	}
}

// MergeStartedEvent is emitted when the merge stage begins.
type MergeStartedEvent struct {
	baseEvent
	WorkerCount int
}

// NewMergeStartedEvent creates a MergeStartedEvent.
func NewMergeStartedEvent(workerCount int) MergeStartedEvent {
	return MergeStartedEvent{
		baseEvent:   newBaseEvent(MergeStarted),
		WorkerCount: workerCount,
	}
}

// MergeProgressEvent is emitted as the merge stage moves between stages.
type MergeProgressEvent struct {
	baseEvent
	Stage string
}

// NewMergeProgressEvent creates a MergeProgressEvent.
func NewMergeProgressEvent(stage string) MergeProgressEvent {
	return MergeProgressEvent{
		baseEvent: newBaseEvent(MergeProgress),
		Stage:     stage,
	}
}

// MergeCompleteEvent is emitted when the merged document has been written.
type MergeCompleteEvent struct {
	baseEvent
	OutputPath string
	Duration   time.Duration
}

// NewMergeCompleteEvent creates a MergeCompleteEvent.
func NewMergeCompleteEvent(outputPath string, duration time.Duration) MergeCompleteEvent {
	return MergeCompleteEvent{
		baseEvent:  newBaseEvent(MergeComplete),
		OutputPath: outputPath,
		Duration:   duration,
	}
}

// MergeErrorEvent is emitted when the merge stage fails. BackupPath points
// at the raw per-worker backup artifact, if one was written.
type MergeErrorEvent struct {
	baseEvent
	Error      string
	BackupPath string
}

// NewMergeErrorEvent creates a MergeErrorEvent.
func NewMergeErrorEvent(errMsg, backupPath string) MergeErrorEvent {
	return MergeErrorEvent{
		baseEvent:  newBaseEvent(MergeError),
		Error:      errMsg,
		BackupPath: backupPath,
	}
}
