// Package transport owns the hardware MIDI driver and translates its raw
// packed words into logical events on a bounded queue. The queue is the
// single async boundary between the platform's realtime callback thread
// and the engine's state-owner goroutine.
package transport

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cgcardona/Stori-sub007/internal/wire"
	"github.com/cgcardona/Stori-sub007/sdk/contracts"
)

// DefaultQueueCapacity bounds the decoded-event queue when no capacity
// option is supplied.
const DefaultQueueCapacity = 256

// topologyPollInterval paces the endpoint watcher. Topology churn is a
// rare event, so a coarse interval is fine.
const topologyPollInterval = time.Second

// Transport decodes driver words into events. When driver initialization
// failed it stays in a degraded, uninitialized state: every operation
// no-ops instead of failing loudly, and the event queue simply never
// produces anything.
type Transport struct {
	log contracts.Logger
	drv Driver

	events  chan contracts.Event
	dropped atomic.Uint64

	topology  func()
	watchStop chan struct{}
	closeOnce sync.Once
}

// New wraps a driver. A nil driver yields an uninitialized transport,
// which is the degraded mode used when hardware setup failed.
func New(drv Driver, log contracts.Logger, queueCapacity int) *Transport {
	if queueCapacity <= 0 {
		queueCapacity = DefaultQueueCapacity
	}
	t := &Transport{
		log:       log,
		drv:       drv,
		events:    make(chan contracts.Event, queueCapacity),
		watchStop: make(chan struct{}),
	}
	if drv == nil {
		log.Warn("MIDI transport running uninitialized; hardware operations disabled")
	}
	return t
}

// Ready reports whether hardware initialization succeeded.
func (t *Transport) Ready() bool {
	return t.drv != nil
}

// Events is the decoded-event queue drained by the state-owner goroutine.
func (t *Transport) Events() <-chan contracts.Event {
	return t.events
}

// Dropped returns the number of events rejected because the queue was
// full.
func (t *Transport) Dropped() uint64 {
	return t.dropped.Load()
}

// sink runs on the realtime callback thread. It decodes each word and
// enqueues the event without blocking; when the queue is full the event
// is rejected and counted.
func (t *Transport) sink(words []uint32) {
	now := uint64(time.Now().UnixNano())
	for _, word := range words {
		ev, ok := wire.DecodeWord(word)
		if !ok {
			continue
		}
		ev.Timestamp = now
		select {
		case t.events <- ev:
		default:
			t.dropped.Add(1)
		}
	}
}

// Inputs enumerates input endpoints. Uninitialized transports report an
// empty topology.
func (t *Transport) Inputs() []contracts.DeviceInfo {
	if t.drv == nil {
		return nil
	}
	devices, err := t.drv.Inputs()
	if err != nil {
		t.log.Warn("input enumeration failed", t.log.Field().Error("error", err))
		return nil
	}
	return devices
}

// Outputs enumerates output endpoints.
func (t *Transport) Outputs() []contracts.DeviceInfo {
	if t.drv == nil {
		return nil
	}
	devices, err := t.drv.Outputs()
	if err != nil {
		t.log.Warn("output enumeration failed", t.log.Field().Error("error", err))
		return nil
	}
	return devices
}

// Connect attaches the decode sink to an input endpoint.
func (t *Transport) Connect(id contracts.EndpointID) error {
	if t.drv == nil {
		return nil
	}
	return t.drv.Connect(id, t.sink)
}

// Disconnect detaches the decode sink from an input endpoint.
func (t *Transport) Disconnect(id contracts.EndpointID) error {
	if t.drv == nil {
		return nil
	}
	return t.drv.Disconnect(id)
}

// Send delivers a raw message to an output endpoint.
func (t *Transport) Send(id contracts.EndpointID, data []byte) error {
	if t.drv == nil {
		return nil
	}
	return t.drv.Send(id, data)
}

// Watch starts the topology watcher. onChange fires from the watcher
// goroutine whenever the set of visible endpoints differs from the last
// poll; the caller reschedules the actual rescan onto its own context.
func (t *Transport) Watch(onChange func()) {
	if t.drv == nil {
		return
	}
	t.topology = onChange
	go t.watch()
}

func (t *Transport) watch() {
	ticker := time.NewTicker(topologyPollInterval)
	defer ticker.Stop()

	last := t.signature()
	for {
		select {
		case <-t.watchStop:
			return
		case <-ticker.C:
			sig := t.signature()
			if sig != last {
				last = sig
				if t.topology != nil {
					t.topology()
				}
			}
		}
	}
}

// signature folds the visible endpoint IDs into a comparable string.
func (t *Transport) signature() string {
	var ids []string
	for _, d := range t.Inputs() {
		ids = append(ids, string(d.ID))
	}
	for _, d := range t.Outputs() {
		ids = append(ids, string(d.ID))
	}
	sort.Strings(ids)
	return strings.Join(ids, "\n")
}

// Close tears the transport down: the watcher stops and the driver
// releases every handle it owns. Safe to call from any goroutine, runs
// exactly once.
func (t *Transport) Close() {
	t.closeOnce.Do(func() {
		close(t.watchStop)
		if t.drv == nil {
			return
		}
		if err := t.drv.Close(); err != nil {
			t.log.Warn("driver close failed", t.log.Field().Error("error", err))
		}
		if n := t.dropped.Load(); n > 0 {
			t.log.Info("transport closed", t.log.Field().Uint64("droppedEvents", n))
		}
	})
}
