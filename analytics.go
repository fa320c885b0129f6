package shortstack

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Recorder writes analytics events without blocking the request that
// produced them. Each Record* call spawns a detached task; failures are
// logged and never surface to the caller.
type Recorder struct {
	repo         AnalyticsRepo
	writeTimeout time.Duration
	wg           sync.WaitGroup
}

// NewRecorder creates a Recorder. writeTimeout bounds each background
// insert; values <= 0 default to 5s.
func NewRecorder(repo AnalyticsRepo, writeTimeout time.Duration) *Recorder {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &Recorder{repo: repo, writeTimeout: writeTimeout}
}

// RecordClick records a shortener click for the given link.
func (r *Recorder) RecordClick(linkID string, meta RequestMeta) {
	r.record("click", linkID, meta, r.repo.InsertClick)
}

// RecordVisit records a site visit for the given site.
func (r *Recorder) RecordVisit(siteID string, meta RequestMeta) {
	r.record("visit", siteID, meta, r.repo.InsertVisit)
}

func (r *Recorder) record(kind, refID string, meta RequestMeta, insert func(context.Context, Event) error) {
	event := NewEvent(uuid.NewString(), refID, meta, time.Now().UTC())

	// Detached from the request context on purpose: the response must not
	// wait for this write, and request cancellation must not abort it.
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
		defer cancel()

		if err := insert(ctx, event); err != nil {
			slog.Error("analytics write failed",
				"kind", kind,
				"ref_id", refID,
				"err", err,
			)
		}
	}()
}

// Wait blocks until all in-flight writes finish. Used during shutdown and
// in tests.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
