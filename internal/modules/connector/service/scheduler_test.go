package service

import (
	"context"
	"sync"
	"testing"

	"connector_runner/internal/models"
	"connector_runner/pkg/logger"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	m.Run()
}

type fakeAccounts struct {
	mu       sync.Mutex
	statuses map[string]models.AccountStatus
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{statuses: map[string]models.AccountStatus{}}
}

func (f *fakeAccounts) GetStatus(_ context.Context, accountID string) (models.AccountStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.statuses[accountID]
	if !ok {
		return "", errors.Errorf("account %s not found", accountID)
	}
	return status, nil
}

type fakeJobs struct {
	mu   sync.Mutex
	jobs []*models.ConnectorJob

	createErr error
}

func (f *fakeJobs) Create(_ context.Context, job *models.ConnectorJob) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

// fakeQueue mirrors the insert-if-absent contract on the entry id.
type fakeQueue struct {
	mu      sync.Mutex
	entries map[string]models.QueueEntry

	adds      int
	removeErr error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{entries: map[string]models.QueueEntry{}}
}

func (f *fakeQueue) Get(_ context.Context, id string) (*models.QueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[id]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (f *fakeQueue) Add(_ context.Context, entry models.QueueEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds++
	if _, ok := f.entries[entry.ID]; ok {
		return nil
	}
	f.entries[entry.ID] = entry
	return nil
}

func (f *fakeQueue) Remove(_ context.Context, id string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, id)
	return nil
}

func newTestScheduler(accounts *fakeAccounts, jobs *fakeJobs, queue *fakeQueue) *Scheduler {
	return &Scheduler{
		accounts:     accounts,
		jobs:         jobs,
		queue:        queue,
		removeOnFail: 100,
	}
}

func TestQueueJob_EnqueuesWaitingEntry(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.statuses["acc-1"] = models.AccountStatusEnabled
	queue := newFakeQueue()
	s := newTestScheduler(accounts, &fakeJobs{}, queue)

	require.NoError(t, s.QueueJob(context.Background(), "acc-1", models.QueueJobOrder))

	entry, ok := queue.entries["acc-1"]
	require.True(t, ok)
	assert.Equal(t, "acc-1", entry.ID)
	assert.Equal(t, "acc-1", entry.UserExAccID)
	assert.Equal(t, models.QueueJobOrder, entry.Type)
	assert.Equal(t, models.QueueStateWaiting, entry.State)
	assert.True(t, entry.RemoveOnComplete)
	assert.Equal(t, 100, entry.RemoveOnFail)
}

func TestQueueJob_SecondCallIsNoOp(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.statuses["acc-1"] = models.AccountStatusEnabled
	queue := newFakeQueue()
	s := newTestScheduler(accounts, &fakeJobs{}, queue)

	require.NoError(t, s.QueueJob(context.Background(), "acc-1", models.QueueJobOrder))
	require.NoError(t, s.QueueJob(context.Background(), "acc-1", models.QueueJobOrder))

	assert.Len(t, queue.entries, 1)
	// the second call returns before reaching Add
	assert.Equal(t, 1, queue.adds)
}

func TestQueueJob_ActiveEntryNotDisturbed(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.statuses["acc-1"] = models.AccountStatusEnabled
	queue := newFakeQueue()
	queue.entries["acc-1"] = models.QueueEntry{ID: "acc-1", State: models.QueueStateActive, Type: models.QueueJobOrder}
	s := newTestScheduler(accounts, &fakeJobs{}, queue)

	require.NoError(t, s.QueueJob(context.Background(), "acc-1", models.QueueJobBalance))

	entry := queue.entries["acc-1"]
	assert.Equal(t, models.QueueStateActive, entry.State)
	assert.Equal(t, models.QueueJobOrder, entry.Type)
	assert.Equal(t, 0, queue.adds)
}

func TestQueueJob_TerminalEntryReplaced(t *testing.T) {
	for _, state := range []models.QueueEntryState{
		models.QueueStateCompleted,
		models.QueueStateFailed,
		models.QueueStateStuck,
	} {
		t.Run(string(state), func(t *testing.T) {
			accounts := newFakeAccounts()
			accounts.statuses["acc-1"] = models.AccountStatusEnabled
			queue := newFakeQueue()
			queue.entries["acc-1"] = models.QueueEntry{ID: "acc-1", State: state}
			s := newTestScheduler(accounts, &fakeJobs{}, queue)

			require.NoError(t, s.QueueJob(context.Background(), "acc-1", models.QueueJobOrder))

			entry := queue.entries["acc-1"]
			assert.Equal(t, models.QueueStateWaiting, entry.State)
		})
	}
}

func TestQueueJob_RemovalConflictAborts(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.statuses["acc-1"] = models.AccountStatusEnabled
	queue := newFakeQueue()
	queue.entries["acc-1"] = models.QueueEntry{ID: "acc-1", State: models.QueueStateCompleted}
	queue.removeErr = errors.New("picked up by another replica")
	s := newTestScheduler(accounts, &fakeJobs{}, queue)

	// fail-open: no error surfaced, nothing inserted
	require.NoError(t, s.QueueJob(context.Background(), "acc-1", models.QueueJobOrder))
	assert.Equal(t, 0, queue.adds)
	assert.Equal(t, models.QueueStateCompleted, queue.entries["acc-1"].State)
}

func TestQueueJob_DisabledAccountSkipped(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.statuses["acc-1"] = models.AccountStatusDisabled
	accounts.statuses["acc-2"] = models.AccountStatusInvalid
	queue := newFakeQueue()
	s := newTestScheduler(accounts, &fakeJobs{}, queue)

	require.NoError(t, s.QueueJob(context.Background(), "acc-1", models.QueueJobOrder))
	require.NoError(t, s.QueueJob(context.Background(), "acc-2", models.QueueJobOrder))
	assert.Empty(t, queue.entries)
}

func TestQueueJob_AccountLookupError(t *testing.T) {
	accounts := newFakeAccounts()
	queue := newFakeQueue()
	s := newTestScheduler(accounts, &fakeJobs{}, queue)

	err := s.QueueJob(context.Background(), "missing", models.QueueJobOrder)
	assert.Error(t, err)
	assert.Empty(t, queue.entries)
}

func TestAddConnectorJob_PersistsBeforeDispatch(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.statuses["acc-1"] = models.AccountStatusEnabled
	jobs := &fakeJobs{}
	queue := newFakeQueue()
	s := newTestScheduler(accounts, jobs, queue)

	job := &models.ConnectorJob{
		UserExAccID: "acc-1",
		OrderID:     "order-1",
		Priority:    models.PriorityHigh,
		Type:        models.ConnectorJobCreate,
	}
	require.NoError(t, s.AddConnectorJob(context.Background(), job))

	require.Len(t, jobs.jobs, 1)
	assert.NotEmpty(t, jobs.jobs[0].ID)
	assert.Contains(t, queue.entries, "acc-1")
	assert.Equal(t, models.QueueJobOrder, queue.entries["acc-1"].Type)
}

func TestAddConnectorJob_PersistFailureSkipsDispatch(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.statuses["acc-1"] = models.AccountStatusEnabled
	jobs := &fakeJobs{createErr: errors.New("pg down")}
	queue := newFakeQueue()
	s := newTestScheduler(accounts, jobs, queue)

	err := s.AddConnectorJob(context.Background(), &models.ConnectorJob{UserExAccID: "acc-1"})
	assert.Error(t, err)
	assert.Empty(t, queue.entries)
}

func TestAddConnectorJob_KeepsProvidedID(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.statuses["acc-1"] = models.AccountStatusEnabled
	jobs := &fakeJobs{}
	s := newTestScheduler(accounts, jobs, newFakeQueue())

	job := &models.ConnectorJob{ID: "fixed-id", UserExAccID: "acc-1"}
	require.NoError(t, s.AddConnectorJob(context.Background(), job))
	assert.Equal(t, "fixed-id", jobs.jobs[0].ID)
}

func TestAddConnectorJob_SecondJobSameAccountOneEntry(t *testing.T) {
	accounts := newFakeAccounts()
	accounts.statuses["acc-1"] = models.AccountStatusEnabled
	jobs := &fakeJobs{}
	queue := newFakeQueue()
	s := newTestScheduler(accounts, jobs, queue)

	require.NoError(t, s.AddConnectorJob(context.Background(), &models.ConnectorJob{UserExAccID: "acc-1", OrderID: "o1"}))
	require.NoError(t, s.AddConnectorJob(context.Background(), &models.ConnectorJob{UserExAccID: "acc-1", OrderID: "o2"}))

	// both intent records are persisted, dispatch stays deduplicated
	assert.Len(t, jobs.jobs, 2)
	assert.Len(t, queue.entries, 1)
}
