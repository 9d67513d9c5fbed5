package import_feature

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-crm-import/internal/frappe"
	"go-crm-import/internal/logger"

	"go.uber.org/zap"
)

// StatusBackend is what the poller needs from the document backend.
type StatusBackend interface {
	GetImportStatus(ctx context.Context, name string) (*frappe.ImportStatus, error)
	GetImportWarnings(ctx context.Context, name string) ([]frappe.ImportWarning, error)
	GetImportLogs(ctx context.Context, name string) ([]frappe.ImportLog, error)
}

type PollerConfig struct {
	Interval   time.Duration
	RetryDelay time.Duration
	// MaxRetries bounds consecutive failed fetches. Zero retries forever.
	MaxRetries int
}

// Poller watches a triggered import until it reaches a terminal status or
// is aborted by backend warnings.
type Poller struct {
	backend StatusBackend
	cfg     PollerConfig
	metrics *Metrics
	log     *zap.Logger
}

func NewPoller(backend StatusBackend, cfg PollerConfig, metrics *Metrics, log *zap.Logger) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{backend: backend, cfg: cfg, metrics: metrics, log: log}
}

// Start begins polling job in its own goroutine. observe, when non-nil, is
// called with every report before subscribers see it.
func (p *Poller) Start(ctx context.Context, job string, observe func(ImportStatusReport)) *PollHandle {
	ctx, cancel := context.WithCancel(ctx)
	h := &PollHandle{
		job:    job,
		cancel: cancel,
		done:   make(chan struct{}),
		subs:   make(map[chan ImportStatusReport]struct{}),
	}

	go func() {
		err := p.run(ctx, h, observe)
		if errors.Is(err, context.Canceled) {
			err = ErrPollCancelled
		}
		h.finish(err)
	}()

	return h
}

func (p *Poller) run(ctx context.Context, h *PollHandle, observe func(ImportStatusReport)) error {
	log := p.log.With(zap.String(logger.JobKey, h.job))
	emit := func(r ImportStatusReport) {
		if observe != nil {
			observe(r)
		}
		h.publish(r)
	}

	if err := sleep(ctx, p.cfg.Interval); err != nil {
		return err
	}

	tick := 0
	failures := 0
	for {
		status, err := p.backend.GetImportStatus(ctx, h.job)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := p.failed(ctx, log, &failures, "status", err); err != nil {
				return err
			}
			continue
		}
		failures = 0
		tick++

		st := parseBackendStatus(status.Status)
		report := ImportStatusReport{
			Job:          h.job,
			Tick:         tick,
			Status:       st,
			TotalRecords: status.TotalRecords,
			SuccessCount: status.Success,
			FailedCount:  status.Failed,
			Progress:     progressOf(status.TotalRecords, status.Success, status.Failed),
		}
		log.Debug("Import status", zap.Int("tick", tick), zap.String("status", string(st)), zap.Float64("progress", report.Progress))

		if st.IsTerminal() {
			logs, err := p.fetchLogs(ctx, log, h.job)
			if err != nil {
				return err
			}
			report.Terminal = true
			report.Logs = logs
			log.Info("Import finished", zap.String("status", string(st)), zap.Int("success", status.Success), zap.Int("failed", status.Failed))
			emit(report)
			return nil
		}

		warnings, err := p.backend.GetImportWarnings(ctx, h.job)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			emit(report)
			if err := p.failed(ctx, log, &failures, "warnings", err); err != nil {
				return err
			}
			continue
		}

		if len(warnings) > 0 {
			abort := &AbortError{Messages: warningMessages(warnings)}
			report.Status = JobAborted
			report.Terminal = true
			report.Error = abort.Error()
			log.Warn("Import aborted by backend warnings", zap.Int("warnings", len(warnings)))
			emit(report)
			return abort
		}

		emit(report)
		if err := sleep(ctx, p.cfg.Interval); err != nil {
			return err
		}
	}
}

// fetchLogs is attempted until it succeeds, under the same retry policy as status.
func (p *Poller) fetchLogs(ctx context.Context, log *zap.Logger, job string) ([]ImportLogEntry, error) {
	failures := 0
	for {
		logs, err := p.backend.GetImportLogs(ctx, job)
		if err == nil {
			return logEntries(logs), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err := p.failed(ctx, log, &failures, "logs", err); err != nil {
			return nil, err
		}
	}
}

func (p *Poller) failed(ctx context.Context, log *zap.Logger, failures *int, what string, err error) error {
	*failures++
	p.metrics.pollError()
	log.Warn("Import poll failed, retrying", zap.String("fetch", what), zap.Int("attempt", *failures), zap.Error(err))
	if p.cfg.MaxRetries > 0 && *failures >= p.cfg.MaxRetries {
		return fmt.Errorf("%w after %d attempts: %w", ErrPollGaveUp, *failures, err)
	}
	return sleep(ctx, p.cfg.RetryDelay)
}

func warningMessages(warnings []frappe.ImportWarning) []string {
	out := make([]string, 0, len(warnings))
	for _, w := range warnings {
		if w.Row != nil {
			out = append(out, fmt.Sprintf("Row %d: %s", *w.Row, w.Message))
		} else {
			out = append(out, w.Message)
		}
	}
	return out
}

func logEntries(logs []frappe.ImportLog) []ImportLogEntry {
	out := make([]ImportLogEntry, 0, len(logs))
	for _, l := range logs {
		out = append(out, ImportLogEntry{
			RowIndexes: l.RowIndexes,
			Success:    l.Success,
			Docname:    l.Docname,
			Messages:   l.Messages,
			Exception:  l.Exception,
		})
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// PollHandle observes one running import. Cancel stops observation only;
// the backend job keeps running.
type PollHandle struct {
	job    string
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.RWMutex
	latest *ImportStatusReport
	err    error
	closed bool
	subs   map[chan ImportStatusReport]struct{}
}

func (h *PollHandle) Job() string { return h.job }

func (h *PollHandle) Cancel() { h.cancel() }

func (h *PollHandle) Done() <-chan struct{} { return h.done }

// Latest returns the most recent report.
func (h *PollHandle) Latest() (ImportStatusReport, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.latest == nil {
		return ImportStatusReport{}, false
	}
	return *h.latest, true
}

// Err is the reason polling stopped: nil after a terminal status,
// *AbortError, ErrPollCancelled or ErrPollGaveUp.
func (h *PollHandle) Err() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

// Wait blocks until polling stops or ctx is done.
func (h *PollHandle) Wait(ctx context.Context) (ImportStatusReport, error) {
	select {
	case <-h.done:
	case <-ctx.Done():
		return ImportStatusReport{}, ctx.Err()
	}
	report, ok := h.Latest()
	if err := h.Err(); err != nil {
		return report, err
	}
	if !ok {
		return report, ErrNoReport
	}
	return report, nil
}

// Subscribe returns a channel of reports, starting with the latest one.
// Slow readers miss intermediate reports but always receive the last one
// before the channel is closed. The channel is closed when polling stops or
// the returned func is called.
func (h *PollHandle) Subscribe() (<-chan ImportStatusReport, func()) {
	ch := make(chan ImportStatusReport, 8)

	h.mu.Lock()
	if h.latest != nil {
		ch <- *h.latest
	}
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
		})
	}
}

func (h *PollHandle) publish(r ImportStatusReport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = &r
	for ch := range h.subs {
		select {
		case ch <- r:
			continue
		default:
		}
		// Buffer full: drop the oldest report so the newest is kept.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- r:
		default:
		}
	}
}

func (h *PollHandle) finish(err error) {
	h.mu.Lock()
	h.err = err
	h.closed = true
	for ch := range h.subs {
		close(ch)
	}
	h.subs = nil
	h.mu.Unlock()
	h.cancel()
	close(h.done)
}
