package aquarium

import (
	"sort"
	"time"

	"fishtank.gg/internal/persistence/snapshot"
)

// ExportSnapshot projects the live tank into its persisted form. Called on
// the loop goroutine only.
func (w *World) ExportSnapshot() snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version:     1,
			WorldID:     w.cfg.WorldID,
			SavedUnixMs: time.Now().UnixMilli(),
		},
		Width:  w.tune.WorldWidth,
		Height: w.tune.WorldHeight,
	}

	ids := make([]string, 0, len(w.entities))
	for id := range w.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		switch e := w.entities[id].(type) {
		case *Fish:
			rel := make(map[string]float64, len(e.Relationships))
			for k, v := range e.Relationships {
				rel[k] = v
			}
			snap.Fish = append(snap.Fish, snapshot.FishV1{
				ThingV1:       exportThing(&e.Thing),
				Species:       e.Species,
				Name:          e.Name,
				State:         e.State,
				Health:        e.Health,
				Hunger:        e.Hunger,
				Relationships: rel,
			})
		case *Food:
			subtype := TagFlake
			if e.HasTags(TagPellet) {
				subtype = TagPellet
			}
			snap.Food = append(snap.Food, snapshot.FoodV1{
				ThingV1:   exportThing(&e.Thing),
				Subtype:   subtype,
				Nutrition: e.Nutrition,
				Username:  e.Username,
			})
		case *Coin:
			snap.Coins = append(snap.Coins, snapshot.CoinV1{
				ThingV1: exportThing(&e.Thing),
				Value:   e.Value,
			})
		case *TreasureChest:
			snap.Chests = append(snap.Chests, snapshot.ChestV1{
				ThingV1:     exportThing(&e.Thing),
				State:       e.State,
				Value:       e.Value,
				SinceChange: e.sinceChange,
				SinceBubble: e.sinceBubble,
			})
		case *Bubble:
			snap.Bubbles = append(snap.Bubbles, exportThing(&e.Thing))
		case *Skeleton:
			snap.Skeletons = append(snap.Skeletons, snapshot.SkeletonV1{
				ThingV1: exportThing(&e.Thing),
			})
		case *Tap:
			snap.Taps = append(snap.Taps, snapshot.TapV1{
				ThingV1:  exportThing(&e.Thing),
				Username: e.Username,
			})
		}
	}
	return snap
}

// ImportSnapshot rebuilds entity state before the loop starts. Species and
// kinds no longer present in tuning are logged and skipped rather than
// failing the whole restore; the rest of the tank comes back.
func (w *World) ImportSnapshot(snap snapshot.SnapshotV1) {
	for _, fv := range snap.Fish {
		f, err := newFish(w, fv.Species, CreateSpec{Name: fv.Name, HasPos: true, X: fv.X, Y: fv.Y})
		if err != nil {
			w.log.Printf("restore fish %s: %v, skipping", fv.ID, err)
			continue
		}
		restoreThing(&f.Thing, fv.ThingV1)
		f.State = fv.State
		f.Health = fv.Health
		f.Hunger = fv.Hunger
		if fv.Relationships != nil {
			f.Relationships = fv.Relationships
		}
		w.AddObject(f)
	}
	for _, fv := range snap.Food {
		var f *Food
		if fv.Subtype == TagPellet {
			f = newPellet(w, fv.X, fv.Y, fv.Username)
		} else {
			f = newFlake(w, fv.X, fv.Y, fv.Username)
		}
		restoreThing(&f.Thing, fv.ThingV1)
		f.Nutrition = fv.Nutrition
		w.AddObject(f)
	}
	for _, cv := range snap.Coins {
		c := newCoin(w, cv.X, cv.Y)
		restoreThing(&c.Thing, cv.ThingV1)
		c.Value = cv.Value
		w.AddObject(c)
	}
	for _, cv := range snap.Chests {
		c := newTreasureChest(w, CreateSpec{HasPos: true, X: cv.X, Y: cv.Y})
		restoreThing(&c.Thing, cv.ThingV1)
		c.State = cv.State
		c.Value = cv.Value
		c.sinceChange = cv.SinceChange
		c.sinceBubble = cv.SinceBubble
		w.AddObject(c)
	}
	for _, bv := range snap.Bubbles {
		b := newBubble(w, bv.X, bv.Y)
		restoreThing(&b.Thing, bv)
		w.AddObject(b)
	}
	for _, sv := range snap.Skeletons {
		s := newSkeletonAt(w, sv.X, sv.Y, sv.Width)
		restoreThing(&s.Thing, sv.ThingV1)
		w.AddObject(s)
	}
	for _, tv := range snap.Taps {
		t := newTap(w, tv.X, tv.Y, tv.Username)
		restoreThing(&t.Thing, tv.ThingV1)
		w.AddObject(t)
	}
}

func exportThing(t *Thing) snapshot.ThingV1 {
	return snapshot.ThingV1{
		ID:            t.ID,
		X:             t.X,
		Y:             t.Y,
		DestX:         t.DestX,
		DestY:         t.DestY,
		Speed:         t.Speed,
		Width:         t.Width,
		AgeSecs:       t.age,
		CreatedUnixMs: t.CreatedAt.UnixMilli(),
	}
}

// restoreThing overwrites the freshly constructed entity's shared state with
// the persisted values, keeping its identity stable across restarts.
func restoreThing(t *Thing, v snapshot.ThingV1) {
	if v.ID != "" {
		t.ID = v.ID
	}
	t.X, t.Y = v.X, v.Y
	t.DestX, t.DestY = v.DestX, v.DestY
	t.Speed = v.Speed
	if v.Width > 0 {
		t.Width = v.Width
	}
	t.age = v.AgeSecs
	if v.CreatedUnixMs > 0 {
		t.CreatedAt = time.UnixMilli(v.CreatedUnixMs)
	}
}
