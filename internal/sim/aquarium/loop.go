package aquarium

import (
	"context"
	"sort"
	"time"

	"fishtank.gg/internal/protocol"
)

// Run drives the world until the context is canceled or Stop is called.
// All mutation happens here: channel receives are buffered between ticks and
// applied at the tick boundary, so command order within a tick is arrival
// order.
func (w *World) Run(ctx context.Context) error {
	interval := time.Duration(w.tune.TickMs) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingJoins []JoinRequest
	var pendingLeaves []string
	var pendingCmds []Command

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-w.leave:
			pendingLeaves = append(pendingLeaves, id)
		case cmd := <-w.inbox:
			pendingCmds = append(pendingCmds, cmd)
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now

			for _, id := range pendingLeaves {
				w.handleLeave(id)
			}
			for _, req := range pendingJoins {
				w.handleJoin(req)
			}
			w.step(dt, pendingCmds)

			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingCmds = pendingCmds[:0]

			if took := time.Since(now); took > interval {
				w.log.Printf("tick %d overran: %v > %v", w.tick.Load(), took, interval)
			}
		}
	}
}

// step advances the world by dt seconds: commands first, then every entity,
// then the broadcast and persistence cadences. Exercised directly by tests
// with a fixed dt.
func (w *World) step(dt float64, cmds []Command) {
	tick := w.tick.Add(1)

	for _, cmd := range cmds {
		w.applyCommand(cmd)
		w.cmdsApplied.Add(1)
	}

	// Update over a sorted id snapshot: entities added mid-tick start next
	// tick, entities removed mid-tick (eaten, expired) are skipped.
	ids := make([]string, 0, len(w.entities))
	for id := range w.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		e, ok := w.entities[id]
		if !ok {
			continue
		}
		if e.Update(dt) {
			w.pushUpdate(e.Summarize())
		}
	}

	w.flushBroadcasts(dt)
	w.maybeSnapshot(dt)

	if w.cfg.TickLogger != nil {
		entry := TickLogEntry{
			Tick:     tick,
			Commands: append([]Command(nil), cmds...),
			Entities: len(w.entities),
			Updates:  len(w.updates),
		}
		if err := w.cfg.TickLogger.WriteTick(entry); err != nil {
			w.log.Printf("tick journal: %v", err)
		}
	}

	w.updates = w.updates[:0]
}

// flushBroadcasts sends either one full sync (on the full-sync cadence or
// when a resync was requested) or the tick's incremental updates.
func (w *World) flushBroadcasts(dt float64) {
	w.sinceFull += dt * 1000
	if w.forceSync || w.sinceFull >= float64(w.tune.FullSyncEveryMs) {
		w.broadcast(w.fullSyncMsg())
		w.forceSync = false
		w.sinceFull = 0
		return
	}
	for _, s := range w.updates {
		w.broadcast(protocol.UpdateMsg{Type: protocol.TypeUpdate, Object: s})
	}
}

// maybeSnapshot exports state on the snapshot cadence. The export is cheap;
// compression and disk IO happen on the sink's goroutine. A full sink means
// the writer is behind, so this interval's snapshot is skipped.
func (w *World) maybeSnapshot(dt float64) {
	if w.cfg.SnapshotSink == nil || w.tune.SnapshotEverySecs <= 0 {
		return
	}
	w.sinceSnap += dt
	if w.sinceSnap < float64(w.tune.SnapshotEverySecs) {
		return
	}
	w.sinceSnap = 0
	select {
	case w.cfg.SnapshotSink <- w.ExportSnapshot():
	default:
		w.log.Printf("snapshot sink full, skipping tick %d", w.tick.Load())
	}
}
