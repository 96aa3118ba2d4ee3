package aquarium

import (
	"encoding/json"
	"testing"

	"fishtank.gg/internal/protocol"
)

func TestWorld_CreateCommandSpawnsKind(t *testing.T) {
	w := newTestWorld(t, nil)

	w.step(0.05, []Command{{
		Verb: VerbCreate,
		Kind: "guppy",
		Spec: CreateSpec{Name: "Bubbles", Username: "alice"},
	}})

	found := false
	for _, e := range w.entities {
		f, ok := e.(*Fish)
		if ok && f.Species == "guppy" && f.Name == "Bubbles" {
			found = true
		}
	}
	if !found {
		t.Fatalf("create command should spawn the guppy")
	}
}

func TestWorld_UnknownKindAndVerbAreDropped(t *testing.T) {
	w := newTestWorld(t, nil)

	w.step(0.05, []Command{
		{Verb: VerbCreate, Kind: "kraken"},
		{Verb: "dance"},
	})

	if len(w.entities) != 0 {
		t.Fatalf("bad commands must not spawn anything, got %d entities", len(w.entities))
	}
}

func TestWorld_StaleTargetCommandIsNoop(t *testing.T) {
	w := newTestWorld(t, nil)
	f := mustFish(t, w, "clownfish", 100, 100)

	before := len(w.entities)
	w.step(0.05, []Command{{Verb: VerbPickup, TargetID: "long-gone", Username: "alice"}})
	if len(w.entities) != before {
		t.Fatalf("stale pickup changed the world")
	}
	if _, ok := w.entities[f.ID]; !ok {
		t.Fatalf("fish vanished on stale pickup")
	}
}

func TestWorld_CoinPickupCreditsUser(t *testing.T) {
	users := newFakeUsers("alice")
	w := newTestWorld(t, users)
	coin := newCoin(w, 100, 500)
	w.AddObject(coin)

	w.step(0.05, []Command{{Verb: VerbPickup, TargetID: coin.ID, Username: "alice"}})

	if _, ok := w.entities[coin.ID]; ok {
		t.Fatalf("picked-up coin should be removed")
	}
	if !approx(users.credits["alice"], w.tune.Things.CoinValue, 1e-9) {
		t.Fatalf("credit = %v, want %v", users.credits["alice"], w.tune.Things.CoinValue)
	}
}

func TestWorld_ChestPayoutGoesToFirstClicker(t *testing.T) {
	users := newFakeUsers("alice", "bob")
	w := newTestWorld(t, users)
	chest := newTreasureChest(w, CreateSpec{})
	w.AddObject(chest)
	chest.State = ChestFull
	chest.Value = 0.25

	w.step(0.05, []Command{
		{Verb: VerbPickup, TargetID: chest.ID, Username: "alice"},
		{Verb: VerbPickup, TargetID: chest.ID, Username: "bob"},
	})

	if !approx(users.credits["alice"], 0.25, 1e-9) {
		t.Fatalf("alice credit = %v, want 0.25", users.credits["alice"])
	}
	if users.credits["bob"] != 0 {
		t.Fatalf("bob must not be paid from an emptied chest, got %v", users.credits["bob"])
	}
	if chest.State != ChestEmpty {
		t.Fatalf("chest state = %q, want empty", chest.State)
	}
}

func TestWorld_UseToolDropsFood(t *testing.T) {
	w := newTestWorld(t, nil)

	w.step(0.05, []Command{{Verb: VerbUse, Tool: "pellet_feeder", X: 200, Y: 0, Username: "alice"}})

	var pellet *Food
	for _, e := range w.entities {
		if f, ok := e.(*Food); ok && f.HasTags(TagPellet) {
			pellet = f
		}
	}
	if pellet == nil {
		t.Fatalf("pellet feeder should drop a pellet")
	}
	if pellet.Username != "alice" {
		t.Fatalf("pellet should remember its feeder, got %q", pellet.Username)
	}
}

func TestWorld_TapCommandPlacesTap(t *testing.T) {
	w := newTestWorld(t, nil)
	w.step(0.05, []Command{{Verb: VerbTap, X: 300, Y: 200, Username: "alice"}})
	if countTagged(w, TagTap) != 1 {
		t.Fatalf("tap command should place exactly one tap")
	}
}

func TestWorld_JoinGetsImmediateFullSync(t *testing.T) {
	w := newTestWorld(t, nil)
	mustFish(t, w, "clownfish", 100, 100)

	out := make(chan []byte, 8)
	w.handleJoin(JoinRequest{SessionID: "s1", Username: "alice", Out: out})

	var sync protocol.SyncMsg
	select {
	case b := <-out:
		if err := json.Unmarshal(b, &sync); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
	default:
		t.Fatalf("join should push a full sync")
	}
	if sync.Type != protocol.TypeSync {
		t.Fatalf("type = %q, want SYNC", sync.Type)
	}
	if len(sync.Objects) != 1 {
		t.Fatalf("objects = %d, want 1", len(sync.Objects))
	}
	if sync.Width != w.tune.WorldWidth || sync.Height != w.tune.WorldHeight {
		t.Fatalf("sync should carry tank dimensions")
	}
}

func TestWorld_FullSyncCadenceAndResync(t *testing.T) {
	w := newTestWorld(t, nil)
	out := make(chan []byte, 64)
	w.handleJoin(JoinRequest{SessionID: "s1", Username: "alice", Out: out})
	drain(out)

	// Below the cadence: nothing changed, nothing broadcast.
	w.step(0.05, nil)
	if got := len(drain(out)); got != 0 {
		t.Fatalf("quiet tick broadcast %d messages, want 0", got)
	}

	// Crossing the full-sync cadence broadcasts one SYNC.
	w.step(1.0, nil)
	msgs := drain(out)
	if len(msgs) != 1 || typeOf(t, msgs[0]) != protocol.TypeSync {
		t.Fatalf("expected a single SYNC at the cadence, got %d messages", len(msgs))
	}

	// A resync request forces a SYNC regardless of the cadence.
	w.step(0.05, []Command{{Verb: VerbResync, Username: "alice"}})
	msgs = drain(out)
	if len(msgs) != 1 || typeOf(t, msgs[0]) != protocol.TypeSync {
		t.Fatalf("resync should force a SYNC, got %d messages", len(msgs))
	}
}

func TestWorld_IncrementalUpdatesBetweenSyncs(t *testing.T) {
	w := newTestWorld(t, nil)
	out := make(chan []byte, 64)
	w.handleJoin(JoinRequest{SessionID: "s1", Username: "alice", Out: out})
	drain(out)

	w.step(0.05, []Command{{Verb: VerbTap, X: 10, Y: 10, Username: "alice"}})

	msgs := drain(out)
	if len(msgs) == 0 {
		t.Fatalf("placing a tap should broadcast an update")
	}
	var upd protocol.UpdateMsg
	if err := json.Unmarshal(msgs[0], &upd); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if upd.Type != protocol.TypeUpdate {
		t.Fatalf("type = %q, want UPDATE", upd.Type)
	}
	if upd.Object["username"] != "alice" {
		t.Fatalf("tap update should carry the tapper")
	}
}

func TestWorld_RemovalBroadcastsTombstone(t *testing.T) {
	w := newTestWorld(t, nil)
	coin := newCoin(w, 100, 500)
	w.AddObject(coin)
	w.updates = w.updates[:0]

	out := make(chan []byte, 64)
	w.handleJoin(JoinRequest{SessionID: "s1", Username: "alice", Out: out})
	drain(out)

	w.step(0.05, []Command{{Verb: VerbPickup, TargetID: coin.ID, Username: "alice"}})

	sawRemoval := false
	for _, b := range drain(out) {
		var upd protocol.UpdateMsg
		if err := json.Unmarshal(b, &upd); err != nil || upd.Type != protocol.TypeUpdate {
			continue
		}
		if upd.Object["label"] == coin.ID && upd.Object["removed"] == true {
			sawRemoval = true
		}
	}
	if !sawRemoval {
		t.Fatalf("coin pickup should broadcast a removal tombstone")
	}
}

func TestWorld_SummarizeIsStable(t *testing.T) {
	w := newTestWorld(t, nil)
	w.SeedStarterTank()

	a := w.Summarize()
	b := w.Summarize()
	if len(a) != len(b) {
		t.Fatalf("summaries disagree on length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i]["label"] != b[i]["label"] {
			t.Fatalf("summary order unstable at %d: %v vs %v", i, a[i]["label"], b[i]["label"])
		}
	}
}

func drain(ch chan []byte) [][]byte {
	var out [][]byte
	for {
		select {
		case b := <-ch:
			out = append(out, b)
		default:
			return out
		}
	}
}

func typeOf(t *testing.T, b []byte) string {
	t.Helper()
	base, err := protocol.DecodeBase(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return base.Type
}
