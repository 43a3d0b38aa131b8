// Package memory provides an in-process store for the local orchestrator.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/backend/local"
	"github.com/cschleiden/swf-workers/core"
)

// leaseRetention bounds how long a lease is kept when it is neither released nor expired by the
// orchestrator, for example when the reaper is not running.
const leaseRetention = 24 * time.Hour

type store struct {
	mu sync.Mutex

	// executions holds the serialized execution documents
	executions map[string][]byte

	// current maps a workflow id to its latest run
	current map[string]string

	queues map[local.Queue][]local.QueuedTask

	// notify is closed and replaced whenever a task is enqueued
	notify chan struct{}

	leases *ttlcache.Cache[string, *local.Lease]
}

var _ local.Store = (*store)(nil)

func NewStore() local.Store {
	return &store{
		executions: make(map[string][]byte),
		current:    make(map[string]string),
		queues:     make(map[local.Queue][]local.QueuedTask),
		notify:     make(chan struct{}),
		leases: ttlcache.New(
			ttlcache.WithTTL[string, *local.Lease](leaseRetention),
		),
	}
}

// NewBackend returns a local orchestrator keeping all state in memory.
func NewBackend(opts ...backend.BackendOption) *local.Orchestrator {
	return local.New("memory", NewStore(), opts...)
}

func workflowKey(domain core.Domain, workflowID string) string {
	return fmt.Sprintf("%s/%s", domain, workflowID)
}

func executionKey(domain core.Domain, execution core.WorkflowExecution) string {
	return fmt.Sprintf("%s/%s/%s", domain, execution.WorkflowID, execution.RunID)
}

func (s *store) CreateExecution(ctx context.Context, e *local.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wk := workflowKey(e.Domain, e.Execution.WorkflowID)

	if runID, ok := s.current[wk]; ok {
		current, err := s.get(e.Domain, core.NewWorkflowExecution(e.Execution.WorkflowID, runID))
		if err != nil {
			return err
		}

		if current.Open() {
			return backend.ErrExecutionAlreadyStarted
		}
	}

	if err := s.put(e); err != nil {
		return err
	}

	s.current[wk] = e.Execution.RunID
	s.enqueue(e.Scheduled)

	return nil
}

func (s *store) GetExecution(ctx context.Context, domain core.Domain, execution core.WorkflowExecution) (*local.Execution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.get(domain, execution)
}

func (s *store) UpdateExecution(ctx context.Context, domain core.Domain, execution core.WorkflowExecution, fn func(*local.Execution) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.get(domain, execution)
	if err != nil {
		return err
	}

	if err := fn(e); err != nil {
		return err
	}

	if err := s.put(e); err != nil {
		return err
	}

	s.enqueue(e.Scheduled)

	return nil
}

func (s *store) get(domain core.Domain, execution core.WorkflowExecution) (*local.Execution, error) {
	if execution.RunID == "" {
		runID, ok := s.current[workflowKey(domain, execution.WorkflowID)]
		if !ok {
			return nil, backend.ErrExecutionNotFound
		}

		execution.RunID = runID
	}

	data, ok := s.executions[executionKey(domain, execution)]
	if !ok {
		return nil, backend.ErrExecutionNotFound
	}

	var e local.Execution
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshaling execution: %w", err)
	}

	return &e, nil
}

func (s *store) put(e *local.Execution) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling execution: %w", err)
	}

	s.executions[executionKey(e.Domain, e.Execution)] = data

	return nil
}

// enqueue adds tasks to their queues and wakes up waiting pollers. s.mu must be held.
func (s *store) enqueue(tasks []local.ScheduledTask) {
	if len(tasks) == 0 {
		return
	}

	for _, st := range tasks {
		s.queues[st.Queue] = append(s.queues[st.Queue], st.Task)
	}

	close(s.notify)
	s.notify = make(chan struct{})
}

func (s *store) Dequeue(ctx context.Context, queue local.Queue) (*local.QueuedTask, error) {
	for {
		s.mu.Lock()

		if q := s.queues[queue]; len(q) > 0 {
			t := q[0]
			s.queues[queue] = q[1:]
			s.mu.Unlock()

			return &t, nil
		}

		notify := s.notify
		s.mu.Unlock()

		select {
		case <-notify:
		case <-ctx.Done():
			return nil, nil
		}
	}
}

func (s *store) Lease(ctx context.Context, l *local.Lease) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lease := *l
	s.leases.Set(l.Token, &lease, ttlcache.DefaultTTL)

	return nil
}

func (s *store) Release(ctx context.Context, token string) (*local.Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.leases.Get(token)
	if item == nil {
		return nil, backend.ErrUnknownTaskToken
	}

	s.leases.Delete(token)

	return item.Value(), nil
}

func (s *store) Expired(ctx context.Context, now time.Time) ([]*local.Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []*local.Lease

	for token, item := range s.leases.Items() {
		if l := item.Value(); !l.ExpiresAt.After(now) {
			s.leases.Delete(token)
			expired = append(expired, l)
		}
	}

	return expired, nil
}

func (s *store) Close() error {
	s.leases.DeleteAll()

	return nil
}
