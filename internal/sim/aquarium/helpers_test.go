package aquarium

import (
	"testing"

	"fishtank.gg/internal/sim/tuning"
)

// fakeUsers satisfies UserDirectory with an in-memory balance map.
type fakeUsers struct {
	online  []string
	credits map[string]float64
}

func newFakeUsers(online ...string) *fakeUsers {
	return &fakeUsers{online: online, credits: map[string]float64{}}
}

func (f *fakeUsers) Credit(username string, amount float64) (float64, error) {
	f.credits[username] += amount
	return f.credits[username], nil
}

func (f *fakeUsers) OnlineUsers() []string { return f.online }

func newTestWorld(t *testing.T, users UserDirectory) *World {
	t.Helper()
	if users == nil {
		users = newFakeUsers()
	}
	w, err := New(Config{WorldID: "test", Seed: 42, Users: users}, tuning.Defaults())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

func mustFish(t *testing.T, w *World, species string, x, y float64) *Fish {
	t.Helper()
	f, err := newFish(w, species, CreateSpec{HasPos: true, X: x, Y: y})
	if err != nil {
		t.Fatalf("newFish(%s): %v", species, err)
	}
	w.AddObject(f)
	return f
}

func approx(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}
