package host

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// AsyncScheduler runs each task on its own goroutine.
// A panicking task is recovered and reported by Wait.
type AsyncScheduler struct {
	group errgroup.Group
}

// NewAsyncScheduler creates a scheduler
func NewAsyncScheduler() *AsyncScheduler {
	return &AsyncScheduler{}
}

// RunAsync schedules fn and returns immediately
func (s *AsyncScheduler) RunAsync(fn func()) {
	s.group.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("async task panicked: %v", r)
			}
		}()
		fn()
		return nil
	})
}

// Wait blocks until every scheduled task has finished
func (s *AsyncScheduler) Wait() error {
	return s.group.Wait()
}
