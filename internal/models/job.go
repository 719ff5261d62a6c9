package models

import "time"

type JobPriority int

const (
	PriorityHigh   JobPriority = 1
	PriorityMedium JobPriority = 2
	PriorityLow    JobPriority = 3
)

// ConnectorJobType names the order-lifecycle work a persisted record asks for.
type ConnectorJobType string

const (
	ConnectorJobCreate   ConnectorJobType = "create"
	ConnectorJobRecreate ConnectorJobType = "recreate"
	ConnectorJobCancel   ConnectorJobType = "cancel"
	ConnectorJobCheck    ConnectorJobType = "check"
)

// ConnectorJob is the persisted intent record. Its ID is its own identifier;
// dispatch dedup happens on UserExAccID, not here. Records may accumulate
// faster than dispatch and are drained in (priority, nextJobAt) order.
type ConnectorJob struct {
	ID          string
	UserExAccID string
	OrderID     string
	NextJobAt   time.Time
	Priority    JobPriority
	Type        ConnectorJobType
	Data        map[string]any
}

// ConnectorJobRequest is the upstream event shape mapped onto AddConnectorJob.
type ConnectorJobRequest struct {
	UserExAccID string
	OrderID     string
	Type        ConnectorJobType
	Priority    JobPriority
	NextJobAt   time.Time
	Data        map[string]any
}

// QueueJobType is the payload type of an execution queue entry.
type QueueJobType string

const (
	QueueJobOrder   QueueJobType = "order"
	QueueJobBalance QueueJobType = "balance"
)

type QueueEntryState string

const (
	QueueStateWaiting   QueueEntryState = "waiting"
	QueueStateActive    QueueEntryState = "active"
	QueueStateCompleted QueueEntryState = "completed"
	QueueStateFailed    QueueEntryState = "failed"
	QueueStateStuck     QueueEntryState = "stuck"
)

// Terminal reports whether the entry is eligible for removal. Stuck is a
// worker-observed liveness timeout, treated the same as failed.
func (s QueueEntryState) Terminal() bool {
	switch s {
	case QueueStateCompleted, QueueStateFailed, QueueStateStuck:
		return true
	case QueueStateWaiting, QueueStateActive:
		return false
	}
	return false
}

// QueueEntry is the dispatch unit. ID always equals UserExAccID - the
// primary key on id is what enforces at most one in-flight entry per account.
type QueueEntry struct {
	ID               string
	Type             QueueJobType
	UserExAccID      string
	State            QueueEntryState
	RemoveOnComplete bool
	RemoveOnFail     int
	UpdatedAt        time.Time
}
