// Package services holds the background-thread collaborators the editor
// hands work to without waiting for it: persisting committed edits and
// generating thumbnails (§5 "Background threads"). Each owns its own
// goroutine and an unbounded request queue; Stop sends a stop request and
// joins the goroutine, mirroring the donor's Drop-time "send Stop, join
// the thread" convention.
package services

import (
	"sync"

	"github.com/lumenforge/salon/edit"
)

type editWriteRequest struct {
	edit      edit.Edit
	imagePath string
	stop      bool
}

// EditWriterService serializes committed edits to JSON on a background
// goroutine, writing them atomically under storageRoot (§6: persisted edit
// path is "<storage-root>/library/<sha256-of-image-path>/edit.json").
type EditWriterService struct {
	storageRoot string

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []editWriteRequest
	closed bool
	wg     sync.WaitGroup
}

// NewEditWriterService starts the worker goroutine and returns a service
// ready to accept RequestUpdate calls.
func NewEditWriterService(storageRoot string) *EditWriterService {
	s := &EditWriterService{storageRoot: storageRoot}
	s.cond = sync.NewCond(&s.mu)
	s.wg.Add(1)
	go s.run()
	return s
}

// RequestUpdate enqueues e to be persisted for originalImagePath. It never
// blocks the caller; the queue is unbounded.
func (s *EditWriterService) RequestUpdate(e edit.Edit, originalImagePath string) {
	s.enqueue(editWriteRequest{edit: e, imagePath: originalImagePath})
}

func (s *EditWriterService) enqueue(req editWriteRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, req)
	s.cond.Signal()
}

// Stop sends the worker a stop request and blocks until it has drained the
// queue and exited. Safe to call more than once.
func (s *EditWriterService) Stop() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.wg.Wait()
		return
	}
	s.closed = true
	s.queue = append(s.queue, editWriteRequest{stop: true})
	s.cond.Signal()
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *EditWriterService) run() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		for len(s.queue) == 0 {
			s.cond.Wait()
		}
		req := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if req.stop {
			return
		}
		s.write(req)
	}
}

func (s *EditWriterService) write(req editWriteRequest) {
	if err := edit.Save(req.edit, s.storageRoot, req.imagePath); err != nil {
		slogger().Error("edit writer: save failed", "image_path", req.imagePath, "error", err)
	}
}
