// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bus

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrEndOfStream is returned by SubChan.Next once the channel has been
// closed and fully drained.
var ErrEndOfStream = errors.New("bus: end of stream")

// subscriberQueueSize bounds each subscriber's own queue. A slow subscriber
// drops events past this bound rather than blocking the publisher.
const subscriberQueueSize = 256

// SubChan is a cancellable, bounded asynchronous iterator of events for one
// subscription against one dialog's PubChan.
type SubChan struct {
	ch     chan Event
	cancel func()
}

// Next pulls one event, blocking until one arrives, ctx is done, or the
// stream ends.
func (s *SubChan) Next(ctx context.Context) (Event, error) {
	select {
	case evt, ok := <-s.ch:
		if !ok {
			return Event{}, ErrEndOfStream
		}
		return evt, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Close cancels the subscription, releasing it from the PubChan's fan-out.
func (s *SubChan) Close() {
	s.cancel()
}

// PubChan is one dialog's publish channel: every Write fans out to every
// currently-subscribed SubChan. Write never blocks on a slow subscriber:
// when that subscriber's queue is full the event is dropped for it and the
// overflow hook logs a warning. No stream_overflow event is emitted.
type PubChan struct {
	mu          sync.Mutex
	subscribers map[int]chan Event
	nextID      int
	overflow    func(Event)
}

func newPubChan() *PubChan {
	return &PubChan{subscribers: make(map[int]chan Event)}
}

// Subscribe registers a new SubChan against this dialog's publish channel.
func (p *PubChan) Subscribe() *SubChan {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	ch := make(chan Event, subscriberQueueSize)
	p.subscribers[id] = ch
	p.mu.Unlock()

	return &SubChan{
		ch: ch,
		cancel: func() {
			p.mu.Lock()
			if c, ok := p.subscribers[id]; ok {
				delete(p.subscribers, id)
				close(c)
			}
			p.mu.Unlock()
		},
	}
}

// Write fans evt out to every current subscriber, non-blocking.
func (p *PubChan) Write(evt Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.subscribers {
		select {
		case ch <- evt:
		default:
			if p.overflow != nil {
				p.overflow(evt)
			}
		}
	}
}

// BroadcastFunc receives every dialog event across every dialog, after
// enrichment, as the single process-wide global listener.
type BroadcastFunc func(Event)

// Bus owns one PubChan per live dialog plus the optional global broadcaster.
// Its setter is historically named SetQ4HBroadcaster after its original
// narrow purpose (surfacing question-for-human events); the broadcaster is
// now a general dialog event listener.
type Bus struct {
	mu           sync.RWMutex
	channels     map[string]*PubChan
	broadcaster  BroadcastFunc
	overflowHook func(Event)
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{channels: make(map[string]*PubChan)}
}

// SetQ4HBroadcaster installs (or clears, with nil) the process-wide global
// listener. Clearing it disables global broadcast but never affects
// already-subscribed per-dialog SubChans.
func (b *Bus) SetQ4HBroadcaster(fn BroadcastFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broadcaster = fn
}

// channelFor returns (creating if absent) the PubChan for a dialog key.
func (b *Bus) channelFor(key string) *PubChan {
	b.mu.Lock()
	defer b.mu.Unlock()
	pc, ok := b.channels[key]
	if !ok {
		pc = newPubChan()
		pc.overflow = func(evt Event) {
			slog.Warn("bus: subscriber overflow, dropping event", "dialog", evt.Dialog, "type", evt.Type)
		}
		b.channels[key] = pc
	}
	return pc
}

// Subscribe opens a SubChan for the dialog keyed by key (DialogID.Key()).
func (b *Bus) Subscribe(key string) *SubChan {
	return b.channelFor(key).Subscribe()
}

// Close tears down a dialog's PubChan, e.g. when the dialog goes terminal.
func (b *Bus) Close(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.channels, key)
}

// Post enriches evt with ts/dialog context (if not already set), writes it
// to the dialog's PubChan, invokes the global broadcaster if set, and
// synthesizes the paired dlg_touched_evt — in that order, per dialog key.
func (b *Bus) Post(key string, ref DialogRef, evt Event) {
	evt.Dialog = ref
	if evt.TS.IsZero() {
		evt.TS = time.Now()
	}

	pc := b.channelFor(key)
	pc.Write(evt)

	b.mu.RLock()
	broadcaster := b.broadcaster
	b.mu.RUnlock()

	if broadcaster != nil {
		broadcaster(evt)
	}

	if evt.Type == KindDlgTouched {
		return
	}
	touched := Touched(evt)
	pc.Write(touched)
	if broadcaster != nil {
		broadcaster(touched)
	}
}
