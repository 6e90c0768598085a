package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"platereader/internal/config"
	"platereader/internal/logger"
	"platereader/internal/models"
	"platereader/internal/repository"
	"platereader/internal/services/pipeline"
	"platereader/internal/services/websocket"
)

// ErrQueueFull is returned by Submit when no more runs can be queued.
var ErrQueueFull = errors.New("run queue is full")

// Runner executes the pipeline. *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, only ...string) ([]pipeline.StageReport, error)
	Validate(only []string) error
	Stages() []string
}

type runTask struct {
	run    *models.Run
	stages []string
}

// Manager queues pipeline runs and executes them one at a time, so two runs
// never write to the same directories concurrently.
type Manager struct {
	pipeline Runner
	runs     repository.RunRepository
	hub      *websocket.HubService
	logger   *logger.Logger

	queue  chan runTask
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	current *models.Run
	stopped bool
}

func NewManager(p Runner, runs repository.RunRepository, hub *websocket.HubService, cfg *config.Config, logger *logger.Logger) *Manager {
	size := cfg.RunQueueSize
	if size <= 0 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		pipeline: p,
		runs:     runs,
		hub:      hub,
		logger:   logger,
		queue:    make(chan runTask, size),
		ctx:      ctx,
		cancel:   cancel,
	}

	m.wg.Add(1)
	go m.worker()

	m.logger.Info("Run manager started, queue size %d, stages %s", size, strings.Join(p.Stages(), ","))
	return m
}

// Submit records a queued run for the given stages (all when empty) and hands
// it to the worker.
func (m *Manager) Submit(stages []string) (*models.Run, error) {
	if err := m.pipeline.Validate(stages); err != nil {
		return nil, err
	}

	names := stages
	if len(names) == 0 {
		names = m.pipeline.Stages()
	}
	run := &models.Run{Stages: strings.Join(names, ","), Status: models.RunQueued}
	if _, err := m.runs.Insert(run); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		m.fail(run)
		return nil, errors.New("run manager stopped")
	}

	// the worker owns run once it is queued
	queued := *run
	select {
	case m.queue <- runTask{run: run, stages: stages}:
		m.logger.Info("Run %d queued (%s)", queued.ID, queued.Stages)
		m.publish(&queued)
		return &queued, nil
	default:
		m.logger.Warning("Run queue full, rejecting run %d", run.ID)
		m.fail(run)
		return nil, ErrQueueFull
	}
}

// Current returns a copy of the run in progress, or nil.
func (m *Manager) Current() *models.Run {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	run := *m.current
	return &run
}

func (m *Manager) GetWebsocketService() *websocket.HubService {
	return m.hub
}

func (m *Manager) worker() {
	defer m.wg.Done()

	for task := range m.queue {
		m.execute(task)
	}
	m.logger.Info("Run worker stopped")
}

func (m *Manager) execute(task runTask) {
	run := task.run
	if m.ctx.Err() != nil {
		m.logger.Warning("Run %d dropped, manager stopping", run.ID)
		m.fail(run)
		return
	}
	run.Status = models.RunRunning
	run.StartedAt = time.Now()

	snapshot := *run
	m.mu.Lock()
	m.current = &snapshot
	m.mu.Unlock()
	m.publish(run)

	m.logger.Info("Run %d started (%s)", run.ID, run.Stages)
	ctx := pipeline.WithRunID(m.ctx, run.ID)
	reports, err := m.pipeline.Run(ctx, task.stages...)

	for i := range reports {
		r := reports[i]
		run.Images += r.Images
		run.Succeeded += r.Succeeded
		run.Failed += r.Failed
		if m.hub != nil {
			m.hub.Publish(websocket.Event{Type: websocket.EventStage, Stage: &r})
		}
	}

	run.Status = models.RunFinished
	if err != nil {
		run.Status = models.RunFailed
		m.logger.Error("Run %d failed: %v", run.ID, err)
	}
	run.FinishedAt = time.Now()

	if err := m.runs.Finish(run); err != nil {
		m.logger.Error("Failed to store run %d: %v", run.ID, err)
	}

	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
	m.publish(run)

	m.logger.Info("Run %d %s: %d images, %d succeeded, %d failed",
		run.ID, run.Status, run.Images, run.Succeeded, run.Failed)
}

func (m *Manager) fail(run *models.Run) {
	run.Status = models.RunFailed
	if err := m.runs.Finish(run); err != nil {
		m.logger.Error("Failed to store run %d: %v", run.ID, err)
	}
}

func (m *Manager) publish(run *models.Run) {
	if m.hub == nil {
		return
	}
	snapshot := *run
	if err := m.hub.Publish(websocket.Event{Type: websocket.EventRun, Run: &snapshot}); err != nil {
		m.logger.Error("Failed to publish run %d: %v", run.ID, err)
	}
}

// Stop cancels the run in progress, drops pending runs and waits for the worker.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	close(m.queue)
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
	m.logger.Info("Run manager stopped")
}
