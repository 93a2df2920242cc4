package speech

import (
	"context"
	"log"
	"sync"
	"time"
)

const (
	minRate       = 50
	pausePollTick = 100 * time.Millisecond
)

// State is a snapshot of the controller for status endpoints and events.
type State struct {
	Speaking bool    `json:"speaking"`
	Paused   bool    `json:"paused"`
	Volume   float64 `json:"volume"`
	Rate     int     `json:"rate"`
	Queued   int     `json:"queued"`
}

type item struct {
	text     string
	shutdown bool
}

// Controller serializes speech through a single worker goroutine. Items
// are spoken FIFO in chunks; Interrupt abandons the current item at the
// next chunk boundary and pauses the worker until Resume.
type Controller struct {
	engine  Engine
	notify  func(State)
	onError func(error)

	mu       sync.Mutex
	cond     *sync.Cond
	queue    []item
	gen      uint64
	paused   bool
	speaking bool
	volume   float64
	rate     int
	closed   bool

	done chan struct{}
}

// NewController starts the worker immediately. notify may be nil; when
// set it receives a state snapshot after every transition.
func NewController(engine Engine, volume float64, rate int, notify func(State)) *Controller {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	if rate < minRate {
		rate = minRate
	}
	c := &Controller{
		engine: engine,
		notify: notify,
		volume: volume,
		rate:   rate,
		done:   make(chan struct{}),
	}
	c.cond = sync.NewCond(&c.mu)
	go c.run()
	return c
}

// OnEngineError registers a hook called whenever the engine fails on a
// chunk and the rest of the item is dropped.
func (c *Controller) OnEngineError(fn func(error)) {
	c.mu.Lock()
	c.onError = fn
	c.mu.Unlock()
}

// Enqueue appends text to the speech queue. It never blocks; text handed
// in after Shutdown is dropped.
func (c *Controller) Enqueue(text string) {
	if text == "" {
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.queue = append(c.queue, item{text: text})
	c.cond.Signal()
	c.mu.Unlock()
	c.emit()
}

// Interrupt stops playback at the next chunk boundary, discards the rest
// of the current item, and pauses the worker until Resume. Calling it
// while nothing is speaking is a no-op, so a stray hotkey press on an
// idle assistant cannot silence later speech.
func (c *Controller) Interrupt() {
	c.mu.Lock()
	if !c.speaking {
		c.mu.Unlock()
		c.engine.Stop()
		return
	}
	c.gen++
	c.paused = true
	c.speaking = false
	c.mu.Unlock()
	c.engine.Stop()
	c.emit()
}

// Resume lifts a pause. Interrupted items are not replayed; the worker
// continues with the next queued item.
func (c *Controller) Resume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
	c.emit()
}

// AdjustVolume shifts volume by delta clamped to [0, 1] and returns the
// new value. It applies from the next chunk onward.
func (c *Controller) AdjustVolume(delta float64) float64 {
	c.mu.Lock()
	c.volume += delta
	if c.volume < 0 {
		c.volume = 0
	}
	if c.volume > 1 {
		c.volume = 1
	}
	v := c.volume
	c.mu.Unlock()
	c.emit()
	return v
}

// AdjustRate shifts the speaking rate by delta words per minute with a
// floor of 50 and returns the new value.
func (c *Controller) AdjustRate(delta int) int {
	c.mu.Lock()
	c.rate += delta
	if c.rate < minRate {
		c.rate = minRate
	}
	r := c.rate
	c.mu.Unlock()
	c.emit()
	return r
}

// Status reports the current controller state.
func (c *Controller) Status() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Shutdown stops accepting work, lets the worker drain up to the sentinel,
// and waits at most timeout for it to exit. The engine is stopped either
// way.
func (c *Controller) Shutdown(timeout time.Duration) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.queue = append(c.queue, item{shutdown: true})
	c.cond.Signal()
	c.mu.Unlock()

	select {
	case <-c.done:
	case <-time.After(timeout):
		log.Printf("speech: worker did not drain within %s", timeout)
	}
	c.engine.Stop()
}

func (c *Controller) stateLocked() State {
	return State{
		Speaking: c.speaking,
		Paused:   c.paused,
		Volume:   c.volume,
		Rate:     c.rate,
		Queued:   len(c.queue),
	}
}

func (c *Controller) emit() {
	if c.notify == nil {
		return
	}
	c.mu.Lock()
	s := c.stateLocked()
	c.mu.Unlock()
	c.notify(s)
}

func (c *Controller) run() {
	defer close(c.done)
	for {
		c.mu.Lock()
		for len(c.queue) == 0 {
			c.cond.Wait()
		}
		next := c.queue[0]
		c.queue = c.queue[1:]
		if next.shutdown {
			c.mu.Unlock()
			return
		}
		gen := c.gen
		c.speaking = true
		c.mu.Unlock()
		c.emit()

		c.speakItem(next.text, gen)

		c.mu.Lock()
		c.speaking = false
		c.mu.Unlock()
		c.emit()
	}
}

// speakItem vocalizes one queued item chunk by chunk. The generation
// captured at dequeue time is rechecked at every chunk boundary so an
// Interrupt abandons the remainder without replay.
func (c *Controller) speakItem(text string, gen uint64) {
	for _, chunk := range chunkText(text) {
		for {
			c.mu.Lock()
			if c.gen != gen || c.closed {
				c.mu.Unlock()
				return
			}
			if !c.paused {
				break
			}
			c.mu.Unlock()
			time.Sleep(pausePollTick)
		}
		volume := c.volume
		rate := c.rate
		c.mu.Unlock()

		if err := c.engine.Speak(context.Background(), chunk, volume, rate); err != nil {
			log.Printf("speech: %s engine error, dropping item: %v", c.engine.Name(), err)
			c.mu.Lock()
			hook := c.onError
			c.mu.Unlock()
			if hook != nil {
				hook(err)
			}
			return
		}

		c.mu.Lock()
		stale := c.gen != gen
		c.mu.Unlock()
		if stale {
			return
		}
	}
}
