package matcher

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dkwan/tasklens/internal/domain"
)

// ResolutionFunc receives the outcome of a resolution cycle.
type ResolutionFunc func(domain.ResolutionResponse)

// ResolutionCoordinator owns the ambiguous-match workflow: it holds at
// most one pending resolution request for the presentation layer to show,
// and resolves it into a task choice, a create-new decision, or a
// cancellation. Opening a request never re-queries the matcher; it is
// handed an already-computed result set. No expiry is imposed here; a
// stale request is the caller's to cancel.
type ResolutionCoordinator struct {
	log *logrus.Logger

	mu        sync.Mutex
	pending   *domain.ResolutionRequest
	onResolve ResolutionFunc
}

func NewResolutionCoordinator(log *logrus.Logger) *ResolutionCoordinator {
	if log == nil {
		log = logrus.New()
	}
	return &ResolutionCoordinator{log: log}
}

// Open stores a request and the continuation to invoke on resolve. An
// already-pending request is overwritten: at most one resolution is in
// flight at a time.
func (rc *ResolutionCoordinator) Open(req *domain.ResolutionRequest, fn ResolutionFunc) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.pending != nil {
		rc.log.WithField("query", rc.pending.Query).Debug("replacing pending resolution request")
	}
	rc.pending = req
	rc.onResolve = fn
}

// Resolve completes the pending request, invoking its continuation with
// the response and clearing the slot. It fails if nothing is pending.
func (rc *ResolutionCoordinator) Resolve(resp domain.ResolutionResponse) error {
	rc.mu.Lock()
	if rc.pending == nil {
		rc.mu.Unlock()
		return fmt.Errorf("no resolution request pending")
	}
	fn := rc.onResolve
	rc.pending = nil
	rc.onResolve = nil
	rc.mu.Unlock()

	if fn != nil {
		fn(resp)
	}
	return nil
}

// Cancel clears the pending request without invoking the continuation's
// success path.
func (rc *ResolutionCoordinator) Cancel() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.pending = nil
	rc.onResolve = nil
}

// Pending reports whether a request is waiting on the user.
func (rc *ResolutionCoordinator) Pending() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.pending != nil
}

// Current returns the pending request, if any.
func (rc *ResolutionCoordinator) Current() *domain.ResolutionRequest {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.pending
}
