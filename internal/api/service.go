package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Roelanb/autoremove-webui/internal/config"
	"github.com/Roelanb/autoremove-webui/internal/history"
	"github.com/Roelanb/autoremove-webui/internal/observability"
	"github.com/Roelanb/autoremove-webui/internal/runner"
)

// Runner executes autoremove-torrents. *runner.Runner implements it.
type Runner interface {
	Preview(ctx context.Context) (runner.Result, error)
	Run(ctx context.Context) (runner.Result, error)
}

// Service is the backend the HTTP handlers drive: config persistence,
// command execution and the history log.
type Service struct {
	log     observability.Logger
	store   *config.Store
	runner  Runner
	history history.Store

	// serializes a write with the revision it records
	mu sync.Mutex
}

// NewService wires the backend. hist may be nil, which disables history.
func NewService(log observability.Logger, store *config.Store, r Runner, hist history.Store) *Service {
	return &Service{log: log, store: store, runner: r, history: hist}
}

func (s *Service) Config() config.Snapshot {
	return s.store.Read()
}

// SaveTasks writes the form model and returns the resulting snapshot.
func (s *Service) SaveTasks(cfg config.Configuration) (config.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := s.store.WriteForm(cfg)
	if err != nil {
		return config.Snapshot{}, err
	}
	s.record(history.SourceForm, raw)
	return s.store.Read(), nil
}

// SaveRaw validates and writes raw text verbatim.
func (s *Service) SaveRaw(raw string) (config.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.WriteRaw(raw); err != nil {
		return config.Snapshot{}, err
	}
	s.record(history.SourceRaw, raw)
	return s.store.Read(), nil
}

// RecordExternal stores the file as it is now if it changed outside the
// service. Writes made by the service dedupe against their own revision.
func (s *Service) RecordExternal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.store.Read()
	if snap.Raw == "" && snap.Err() != "" {
		return
	}
	s.record(history.SourceExternal, snap.Raw)
}

func (s *Service) record(src history.Source, raw string) {
	if s.history == nil {
		return
	}
	rev, added, err := s.history.AddRevision(src, raw)
	if err != nil {
		s.log.Errorw("record revision failed", "source", string(src), "error", err)
		return
	}
	if added {
		s.log.Infow("config revision recorded", "source", string(src), "id", rev.ID, "size", rev.Size)
	}
}

func (s *Service) Preview(ctx context.Context) (runner.Result, error) {
	return s.execute(ctx, "preview", s.runner.Preview)
}

func (s *Service) Run(ctx context.Context) (runner.Result, error) {
	return s.execute(ctx, "run", s.runner.Run)
}

func (s *Service) execute(ctx context.Context, mode string, fn func(context.Context) (runner.Result, error)) (runner.Result, error) {
	started := time.Now()
	res, err := fn(ctx)
	if s.history != nil {
		rec := &history.RunRecord{
			ID:        uuid.NewString(),
			Mode:      mode,
			OK:        res.OK,
			Code:      res.Code,
			Output:    res.Output,
			StartedAt: started.UTC(),
			Duration:  time.Since(started),
		}
		if herr := s.history.AddRun(rec); herr != nil {
			s.log.Errorw("record run failed", "mode", mode, "error", herr)
		}
	}
	return res, err
}

// History returns the latest revisions and runs, newest first.
func (s *Service) History(limit int) ([]history.Revision, []history.RunRecord, error) {
	if s.history == nil {
		return []history.Revision{}, []history.RunRecord{}, nil
	}
	revs, err := s.history.Revisions(limit)
	if err != nil {
		return nil, nil, err
	}
	runs, err := s.history.Runs(limit)
	if err != nil {
		return nil, nil, err
	}
	return revs, runs, nil
}

// IsTimeout reports whether err came from a run exceeding its timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, runner.ErrTimeout)
}
