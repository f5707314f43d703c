package smssensor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jask/smssensor/logger"
)

// Coordinator run states.
type State int32

const (
	StateIdle State = iota
	StateScanning
	StatePartitioning
	StateRunning
	StateAggregating
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StatePartitioning:
		return "partitioning"
	case StateRunning:
		return "running"
	case StateAggregating:
		return "aggregating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// CoordinatorOptions tunes a scan run. Zero values fall back to defaults.
type CoordinatorOptions struct {
	Workers         int
	LookbackDays    int
	ScanAllTime     bool
	Overlap         time.Duration
	ReportEvery     int64
	MonitorInterval time.Duration
	TriageRetention time.Duration
}

func (o *CoordinatorOptions) fillDefaults() {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.LookbackDays <= 0 {
		o.LookbackDays = 90
	}
	if o.Overlap <= 0 {
		o.Overlap = 72 * time.Hour
	}
	if o.ReportEvery <= 0 {
		o.ReportEvery = 10
	}
	if o.MonitorInterval <= 0 {
		o.MonitorInterval = 50 * time.Millisecond
	}
	if o.TriageRetention <= 0 {
		o.TriageRetention = 30 * 24 * time.Hour
	}
}

// Coordinator runs one extraction pass over the message corpus: it picks
// the scan window, splits the messages into fixed contiguous partitions,
// drives one pipeline worker per partition, and aggregates the result.
type Coordinator struct {
	source   MessageSource
	store    Store
	pipeline *Pipeline
	opts     CoordinatorOptions

	onProgress ProgressSink
	onSaved    SavedHook

	state atomic.Int32

	total     atomic.Int64
	processed atomic.Int64
	parsed    atomic.Int64
	saved     atomic.Int64
	skipped   atomic.Int64
	triaged   atomic.Int64
	subs      atomic.Int64
}

func NewCoordinator(source MessageSource, store Store, pipeline *Pipeline, opts CoordinatorOptions) *Coordinator {
	opts.fillDefaults()
	return &Coordinator{
		source:   source,
		store:    store,
		pipeline: pipeline,
		opts:     opts,
	}
}

// OnProgress registers the sink that receives monitor snapshots. Call
// before Run.
func (c *Coordinator) OnProgress(sink ProgressSink) { c.onProgress = sink }

// OnSaved registers the hook fired after a run that saved new records.
func (c *Coordinator) OnSaved(hook SavedHook) { c.onSaved = hook }

// State returns the coordinator's current run state.
func (c *Coordinator) State() State { return State(c.state.Load()) }

// Run executes one full extraction pass and blocks until it finishes. On a
// run-level failure (source read or store unavailable) it returns the error
// and leaves the previous checkpoint untouched, so the next run retries the
// same window. Per-message failures never fail the run; they are logged and
// counted as processed-but-not-saved.
func (c *Coordinator) Run(ctx context.Context) (ProcessingStats, error) {
	log := logger.FromContext(ctx)
	c.resetCounters()

	c.state.Store(int32(StateScanning))
	cp, err := c.store.LastCheckpoint(ctx)
	if err != nil {
		return c.fail(fmt.Errorf("load checkpoint: %w", err))
	}
	now := time.Now()
	window := scanWindow(cp, now, c.opts.LookbackDays, c.opts.Overlap, c.opts.ScanAllTime)
	log.Info().
		Time("from", window.From).
		Time("to", window.To).
		Msg("scanning message corpus")

	messages, err := c.source.Messages(ctx, window.From, window.To)
	if err != nil {
		return c.fail(fmt.Errorf("read messages: %w", err))
	}

	c.state.Store(int32(StatePartitioning))
	c.total.Store(int64(len(messages)))
	partitions := partition(messages, c.opts.Workers)

	c.state.Store(int32(StateRunning))
	start := time.Now()
	workersDone := make(chan struct{})
	monitorDone := make(chan struct{})
	go c.monitor(ctx, start, workersDone, monitorDone)

	g, gctx := errgroup.WithContext(ctx)
	for _, part := range partitions {
		part := part
		g.Go(func() error {
			return c.runPartition(gctx, part)
		})
	}
	runErr := g.Wait()
	close(workersDone)
	<-monitorDone

	if runErr != nil {
		return c.fail(runErr)
	}

	c.state.Store(int32(StateAggregating))
	stats := c.snapshot(start)
	if err := c.store.SetCheckpoint(ctx, Checkpoint{ScannedAt: now, LookbackDays: c.opts.LookbackDays}); err != nil {
		return c.fail(fmt.Errorf("persist checkpoint: %w", err))
	}
	if purged, err := c.store.PurgeUnrecognizedBefore(ctx, now.Add(-c.opts.TriageRetention)); err != nil {
		log.Warn().Err(err).Msg("purging aged unrecognized messages failed")
	} else if purged > 0 {
		log.Debug().Int64("purged", purged).Msg("purged aged unrecognized messages")
	}
	if stats.Saved > 0 && c.onSaved != nil {
		c.onSaved()
	}
	if c.onProgress != nil {
		c.onProgress(stats)
	}

	c.state.Store(int32(StateDone))
	log.Info().
		Int64("processed", stats.Processed).
		Int64("parsed", stats.Parsed).
		Int64("saved", stats.Saved).
		Msg("extraction run complete")
	return stats, nil
}

// runPartition walks one contiguous slice of the corpus in order. Every
// message increments the processed counter exactly once, whatever its
// outcome; a cancelled context is honored only between messages so a
// half-written record can never result.
func (c *Coordinator) runPartition(ctx context.Context, part []RawMessage) error {
	log := logger.FromContext(ctx)
	for _, msg := range part {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		// Detach the message from the run context: once processing has
		// started the message finishes, so cancellation cannot leave a
		// half-written record behind.
		outcome, err := c.pipeline.Process(context.WithoutCancel(ctx), msg)
		if err != nil {
			log.Warn().Err(err).
				Str("sender", msg.Sender).
				Msg("message processing failed")
		}
		switch outcome {
		case OutcomeSkipped:
			c.skipped.Add(1)
		case OutcomeUnrecognized:
			c.triaged.Add(1)
		case OutcomeMandate:
			c.parsed.Add(1)
			c.subs.Add(1)
		case OutcomeBalance:
			c.parsed.Add(1)
		case OutcomeDuplicate, OutcomeBlocked:
			c.parsed.Add(1)
		case OutcomeSaved:
			c.parsed.Add(1)
			c.saved.Add(1)
		}
		c.processed.Add(1)
	}
	return nil
}

// monitor polls the shared counters and pushes a snapshot to the progress
// sink each time enough new messages have landed. It exits once every
// message is accounted for, the workers have stopped, or the run is
// cancelled.
func (c *Coordinator) monitor(ctx context.Context, start time.Time, workersDone <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.opts.MonitorInterval)
	defer ticker.Stop()

	var lastReported int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-workersDone:
			return
		case <-ticker.C:
		}
		processed := c.processed.Load()
		total := c.total.Load()
		if processed-lastReported >= c.opts.ReportEvery || (total > 0 && processed >= total) {
			lastReported = processed
			if c.onProgress != nil {
				c.onProgress(c.snapshot(start))
			}
		}
		if processed >= total {
			return
		}
	}
}

func (c *Coordinator) snapshot(start time.Time) ProcessingStats {
	return ProcessingStats{
		Total:                c.total.Load(),
		Processed:            c.processed.Load(),
		Parsed:               c.parsed.Load(),
		Saved:                c.saved.Load(),
		Skipped:              c.skipped.Load(),
		Triaged:              c.triaged.Load(),
		SubscriptionsTouched: c.subs.Load(),
		StartTime:            start,
	}
}

func (c *Coordinator) resetCounters() {
	c.total.Store(0)
	c.processed.Store(0)
	c.parsed.Store(0)
	c.saved.Store(0)
	c.skipped.Store(0)
	c.triaged.Store(0)
	c.subs.Store(0)
}

func (c *Coordinator) fail(err error) (ProcessingStats, error) {
	c.state.Store(int32(StateFailed))
	return c.snapshot(time.Now()), err
}

// partition splits msgs into at most n contiguous slices of near-equal
// size. Assignment is computed once up front; workers never steal from each
// other, so no message is ever processed twice.
func partition(msgs []RawMessage, n int) [][]RawMessage {
	if len(msgs) == 0 {
		return nil
	}
	if n > len(msgs) {
		n = len(msgs)
	}
	parts := make([][]RawMessage, 0, n)
	size := len(msgs) / n
	rem := len(msgs) % n
	idx := 0
	for i := 0; i < n; i++ {
		end := idx + size
		if i < rem {
			end++
		}
		parts = append(parts, msgs[idx:end])
		idx = end
	}
	return parts
}
