// Package workers provides abstractions for managing and running
// background workers in the application.
// It defines the Worker interface and a Workers aggregate that runs a set
// of workers concurrently and drains them together on cancellation.
package workers

import "context"

// Worker is the interface that must be implemented by any background worker.
// Run blocks for the duration of the worker's work and returns when ctx is
// cancelled or the worker's event source is exhausted.
//
// Example implementation:
//
//	type MyListener struct{}
//
//	func (w *MyListener) Run(ctx context.Context) error {
//	    for event := range source(ctx) {
//	        // process event
//	    }
//	    return nil
//	}
type Worker interface {
	Run(ctx context.Context) error
}
