package sqlite

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/banshee-data/posetrack/internal/avatar/pipeline"
	"github.com/banshee-data/posetrack/internal/monitoring"
)

const recorderBatch = 32

// Recorder is a pipeline sink that writes every frame to a Store on a
// background goroutine. A new pipeline session starts a new recording
// session. Frames are dropped rather than blocking Process when the
// writer falls behind.
type Recorder struct {
	store   *Store
	rigName string
	ch      chan *pipeline.FrameResult
	done    chan struct{}
	dropped atomic.Uint64
	written atomic.Uint64

	closeOnce sync.Once
	open      map[string]bool
}

// NewRecorder starts the writer. buffer is the number of frames that may
// be queued.
func NewRecorder(store *Store, rigName string, buffer int) *Recorder {
	if buffer < 1 {
		buffer = 1
	}
	r := &Recorder{
		store:   store,
		rigName: rigName,
		ch:      make(chan *pipeline.FrameResult, buffer),
		done:    make(chan struct{}),
		open:    make(map[string]bool),
	}
	go r.run()
	return r
}

// Publish queues res for writing.
func (r *Recorder) Publish(res *pipeline.FrameResult) {
	select {
	case r.ch <- res:
	default:
		if r.dropped.Add(1)%100 == 1 {
			monitoring.Logf("[record] writer behind, %d frames dropped", r.dropped.Load())
		}
	}
}

// Dropped counts frames discarded because the queue was full.
func (r *Recorder) Dropped() uint64 { return r.dropped.Load() }

// Written counts frames committed to the store.
func (r *Recorder) Written() uint64 { return r.written.Load() }

// Close flushes the queue, ends every session the recorder opened and
// stops the writer. Publish must not be called afterwards.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() { close(r.ch) })
	<-r.done
	return nil
}

func (r *Recorder) run() {
	defer close(r.done)
	ctx := context.Background()
	batch := make([]FrameRecord, 0, recorderBatch)
	var last time.Time

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := r.store.InsertFrames(ctx, batch); err != nil {
			monitoring.Logf("[record] failed to write %d frames: %v", len(batch), err)
		} else {
			r.written.Add(uint64(len(batch)))
		}
		batch = batch[:0]
	}

	for {
		res, ok := <-r.ch
		if !ok {
			flush()
			r.endAll(ctx, last)
			return
		}
		id := res.SessionID.String()
		if !r.open[id] {
			flush()
			r.endAll(ctx, last)
			if err := r.store.CreateSession(ctx, Session{ID: id, RigName: r.rigName, StartedAt: res.Timestamp}); err != nil {
				monitoring.Logf("[record] %v", err)
			}
			r.open[id] = true
			monitoring.Logf("[record] recording session %s", id)
		}
		last = res.Timestamp
		batch = append(batch, frameRecord(res))
		if len(batch) >= recorderBatch || len(r.ch) == 0 {
			flush()
		}
	}
}

func (r *Recorder) endAll(ctx context.Context, at time.Time) {
	for id := range r.open {
		if err := r.store.EndSession(ctx, id, at); err != nil {
			monitoring.Logf("[record] %v", err)
		}
		delete(r.open, id)
	}
}

func frameRecord(res *pipeline.FrameResult) FrameRecord {
	locked := make([]string, 0, len(res.Locked()))
	for _, id := range res.Locked() {
		locked = append(locked, id.String())
	}
	f := res.Input
	f.Timestamp = res.Timestamp
	return FrameRecord{
		SessionID:      res.SessionID.String(),
		Seq:            res.Sequence,
		Frame:          f,
		EstimatedScore: res.EstimatedScore,
		PoseValid:      res.PoseValid,
		PoorLowerBody:  res.PoorLowerBody,
		Locked:         locked,
	}
}
