package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lexforge/manualqa/internal/cache"
	"github.com/lexforge/manualqa/internal/config"
	"github.com/lexforge/manualqa/internal/export"
	"github.com/lexforge/manualqa/internal/extract"
	"github.com/lexforge/manualqa/internal/structure"
)

// Orchestrator manages the question pipeline.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	parser *structure.Parser
	client *extract.OpenAIClient
	store  *cache.Store
	log    *slog.Logger
	cfg    config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, client *extract.OpenAIClient, store *cache.Store, log *slog.Logger) *Orchestrator {
	parserCfg := structure.Config{
		SeparatorWidth: cfg.SeparatorWidth,
		WidthTolerance: cfg.WidthTolerance,
		MaxRuleHeight:  cfg.MaxRuleHeight,
	}
	return &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL),
		queue:  make(chan *Job, cfg.MaxQueueSize),
		parser: structure.NewParser(parserCfg, log),
		client: client,
		store:  store,
		log:    log,
		cfg:    cfg,
	}
}

// Parser returns the section parser for synchronous use by API
// handlers.
func (o *Orchestrator) Parser() *structure.Parser {
	return o.parser
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	exportOpts := export.Options{Domain: o.cfg.Domain, ManualName: o.cfg.ManualName}
	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.parser, o.client, o.store, o.log, o.cfg.OutputDir, exportOpts, o.cfg.MaxConcurrentLLM)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
