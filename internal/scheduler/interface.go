package scheduler

import (
	"github.com/mattjoyce/frontctl/internal/queue"
)

//go:generate mockgen -destination=mocks/mock_submitter.go -package=mocks github.com/mattjoyce/frontctl/internal/scheduler Submitter

// Submitter is the part of the dispatcher the scheduler needs. TrySubmit
// keeps a full queue from stalling the timer.
type Submitter interface {
	TrySubmit(ev queue.Event) bool
}
