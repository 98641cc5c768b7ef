package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task interface for scheduled tasks
type Task interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler runs its tasks one after another, immediately on Start and then
// on every tick. A round never overlaps the next one.
type Scheduler struct {
	ctx      context.Context
	cancel   context.CancelFunc
	interval time.Duration
	tasks    []Task
	wg       sync.WaitGroup
}

// New creates a new task scheduler
func New(ctx context.Context, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		ctx:      ctx,
		cancel:   cancel,
		interval: interval,
		tasks:    make([]Task, 0),
	}
}

// AddTask adds a task to the scheduler
func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	slog.Info("Starting task scheduler", "task_count", len(s.tasks), "interval", s.interval)
	s.wg.Add(1)
	go s.loop()
}

// Stop cancels the running round and waits for it to return
func (s *Scheduler) Stop() {
	slog.Info("Stopping task scheduler")
	s.cancel()
	s.wg.Wait()
	slog.Info("Task scheduler stopped")
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Run immediately on start
	s.runRound()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runRound()
		}
	}
}

// runRound runs every task in order
func (s *Scheduler) runRound() {
	for _, task := range s.tasks {
		if s.ctx.Err() != nil {
			return
		}
		if err := task.Run(s.ctx); err != nil {
			slog.Error("Error running task", "task", task.Name(), "error", err)
		}
	}
}
