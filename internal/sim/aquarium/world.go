package aquarium

import (
	"encoding/json"
	"log"
	"math"
	"math/rand"
	"sort"
	"sync/atomic"
	"time"

	"fishtank.gg/internal/persistence/snapshot"
	"fishtank.gg/internal/protocol"
	"fishtank.gg/internal/sim/geom"
	"fishtank.gg/internal/sim/tuning"
)

// UserDirectory is the slice of the user ledger the simulation needs: it
// credits payouts and asks who is currently watching (for fish happiness).
type UserDirectory interface {
	Credit(username string, amount float64) (float64, error)
	OnlineUsers() []string
}

// TickLogger records one journal entry per tick. Implemented in
// internal/persistence/log.
type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// TickLogEntry is the per-tick journal record.
type TickLogEntry struct {
	Tick     uint64    `json:"tick"`
	Commands []Command `json:"commands,omitempty"`
	Entities int       `json:"entities"`
	Updates  int       `json:"updates"`
}

// JoinRequest registers a watching client. Out receives marshaled server
// messages; the loop never blocks on it.
type JoinRequest struct {
	SessionID string
	Username  string
	Out       chan []byte
}

type clientState struct {
	Username string
	Out      chan []byte
}

// Config is the per-world wiring that is not tuning data.
type Config struct {
	WorldID string
	Seed    int64
	Logger  *log.Logger

	Users UserDirectory

	// Optional tick journal (may be nil).
	TickLogger TickLogger

	// Optional snapshot sink (may be nil). Snapshot writing is off-thread;
	// the loop only exports state and hands it over.
	SnapshotSink chan<- snapshot.SnapshotV1
}

// World owns all simulation state. A single goroutine (Run) mutates it;
// everything else talks to it through the inbox/join/leave channels, so no
// entity or map access is ever locked.
type World struct {
	cfg  Config
	tune tuning.Tuning
	log  *log.Logger
	rng  *rand.Rand

	users    UserDirectory
	registry map[string]Factory

	tick     atomic.Uint64
	entities map[string]Entity

	// updates accumulates this tick's changed/removed summaries.
	updates   []protocol.EntitySummary
	forceSync bool
	sinceFull float64 // ms since last full sync
	sinceSnap float64 // seconds since last snapshot export

	clients map[string]*clientState

	inbox chan Command
	join  chan JoinRequest
	leave chan string
	stop  chan struct{}

	entityGauge atomic.Int64
	clientGauge atomic.Int64
	cmdsApplied atomic.Uint64
}

func New(cfg Config, tune tuning.Tuning) (*World, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	w := &World{
		cfg:      cfg,
		tune:     tune,
		log:      cfg.Logger,
		rng:      rand.New(rand.NewSource(seed)),
		users:    cfg.Users,
		entities: map[string]Entity{},
		clients:  map[string]*clientState{},
		inbox:    make(chan Command, 256),
		join:     make(chan JoinRequest, 16),
		leave:    make(chan string, 16),
		stop:     make(chan struct{}),
	}
	if err := w.buildRegistry(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *World) ID() string            { return w.cfg.WorldID }
func (w *World) Tuning() tuning.Tuning { return w.tune }
func (w *World) CurrentTick() uint64   { return w.tick.Load() }

// Enqueue hands a command to the loop. It blocks only if the inbox is full,
// which backpressures a flooding client instead of growing without bound.
func (w *World) Enqueue(cmd Command) {
	select {
	case w.inbox <- cmd:
	case <-w.stop:
	}
}

func (w *World) Join(req JoinRequest) {
	select {
	case w.join <- req:
	case <-w.stop:
	}
}

func (w *World) Leave(sessionID string) {
	select {
	case w.leave <- sessionID:
	case <-w.stop:
	}
}

func (w *World) Stop() { close(w.stop) }

// Metrics is a point-in-time reading of the world gauges, safe to call from
// any goroutine.
type Metrics struct {
	Tick     uint64
	Entities int64
	Clients  int64
	Commands uint64
}

func (w *World) ReadMetrics() Metrics {
	return Metrics{
		Tick:     w.tick.Load(),
		Entities: w.entityGauge.Load(),
		Clients:  w.clientGauge.Load(),
		Commands: w.cmdsApplied.Load(),
	}
}

// AddObject registers an entity and broadcasts its first summary. Safe to
// call from entity Update methods; new entities start updating next tick.
func (w *World) AddObject(e Entity) {
	t := e.Base()
	t.world = w
	t.self = e
	w.entities[t.ID] = e
	w.entityGauge.Store(int64(len(w.entities)))
	w.pushUpdate(e.Summarize())
}

// RemoveObject drops an entity and broadcasts a tombstone summary.
func (w *World) RemoveObject(e Entity) {
	t := e.Base()
	if _, ok := w.entities[t.ID]; !ok {
		return
	}
	delete(w.entities, t.ID)
	w.entityGauge.Store(int64(len(w.entities)))
	s := e.Summarize()
	s["removed"] = true
	w.pushUpdate(s)
}

func (w *World) pushUpdate(s protocol.EntitySummary) {
	w.updates = append(w.updates, s)
}

// findClosest returns the nearest entity (other than the seeker) whose tag
// set contains all the given tags, with its distance. Returns nil and +Inf
// when nothing matches.
func (w *World) findClosest(from *Thing, tags ...string) (Entity, float64) {
	var best Entity
	bestDist := math.Inf(1)
	for id, e := range w.entities {
		if id == from.ID {
			continue
		}
		t := e.Base()
		if !t.HasTags(tags...) {
			continue
		}
		d := geom.Distance(from.X, from.Y, t.X, t.Y)
		if d < bestDist {
			best, bestDist = e, d
		}
	}
	return best, bestDist
}

// creditUser pays a user and broadcasts their new balance. Ledger errors are
// logged, not propagated: a payout failure must never stall the tick.
func (w *World) creditUser(username string, amount float64) {
	if w.users == nil || username == "" {
		return
	}
	balance, err := w.users.Credit(username, amount)
	if err != nil {
		w.log.Printf("credit %s %.2f: %v", username, amount, err)
		return
	}
	w.broadcast(protocol.UserUpdateMsg{
		Type:     protocol.TypeUserUpdate,
		Username: username,
		Money:    balance,
	})
}

// Summarize projects every live entity, sorted by id so full syncs are
// stable.
func (w *World) Summarize() []protocol.EntitySummary {
	ids := make([]string, 0, len(w.entities))
	for id := range w.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]protocol.EntitySummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, w.entities[id].Summarize())
	}
	return out
}

func (w *World) fullSyncMsg() protocol.SyncMsg {
	return protocol.SyncMsg{
		Type:       protocol.TypeSync,
		UpdateTime: time.Now().UnixMilli(),
		Width:      w.tune.WorldWidth,
		Height:     w.tune.WorldHeight,
		Objects:    w.Summarize(),
	}
}

func (w *World) broadcast(msg any) {
	b, err := json.Marshal(msg)
	if err != nil {
		w.log.Printf("broadcast marshal: %v", err)
		return
	}
	for _, c := range w.clients {
		sendLatest(c.Out, b)
	}
}

// sendLatest delivers b without blocking: if the client's queue is full the
// oldest queued message is dropped to make room. Slow readers lose
// intermediate updates and recover on the next full sync.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}

func (w *World) handleJoin(req JoinRequest) {
	if req.SessionID == "" || req.Out == nil {
		return
	}
	w.clients[req.SessionID] = &clientState{Username: req.Username, Out: req.Out}
	w.clientGauge.Store(int64(len(w.clients)))

	// The newcomer gets an immediate full sync; everyone else stays on the
	// regular cadence.
	b, err := json.Marshal(w.fullSyncMsg())
	if err != nil {
		w.log.Printf("join sync marshal: %v", err)
		return
	}
	sendLatest(req.Out, b)
}

func (w *World) handleLeave(sessionID string) {
	delete(w.clients, sessionID)
	w.clientGauge.Store(int64(len(w.clients)))
}
