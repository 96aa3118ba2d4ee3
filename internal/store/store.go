// Package store implements the community-funded shop: players contribute
// toward an item's price, and when a unit is fully funded the store reports
// which entity kind to spawn. The store never touches world state itself;
// callers forward a funded unit to the simulation as a create command.
package store

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"fishtank.gg/internal/protocol"
	"fishtank.gg/internal/sim/tuning"
)

type Store struct {
	mu    sync.Mutex
	items map[string]*Item
	order []string // insertion order for stable listings
}

type Item struct {
	Label string
	Name  string
	Kind  string
	Image string
	Price float64

	// Stock counts remaining units; < 0 means unlimited.
	Stock int

	MoneyRaised  float64
	Contributors []Contribution
}

type Contribution struct {
	Username string
	Amount   float64
	UnixTime int64
}

func New(defs []tuning.StoreItemDef) *Store {
	s := &Store{items: map[string]*Item{}}
	for _, d := range defs {
		it := &Item{
			Label: uuid.NewString(),
			Name:  d.Name,
			Kind:  d.Kind,
			Image: d.Image,
			Price: roundCents(d.Price),
			Stock: d.Stock,
		}
		s.items[it.Label] = it
		s.order = append(s.order, it.Label)
	}
	return s
}

// Summarize lists the purchasable items. Sold-out items are omitted.
// Safe to call concurrently with contributions.
func (s *Store) Summarize() []protocol.StoreItemSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]protocol.StoreItemSummary, 0, len(s.order))
	for _, label := range s.order {
		it := s.items[label]
		if it.Stock == 0 {
			continue
		}
		out = append(out, protocol.StoreItemSummary{
			Label:       it.Label,
			Name:        it.Name,
			Image:       it.Image,
			Price:       it.Price,
			MoneyRaised: it.MoneyRaised,
			Stock:       it.Stock,
		})
	}
	return out
}

// Contribute applies a contribution toward an item. The amount is rounded to
// cents and capped so the total raised never exceeds the price; pay is called
// with the capped amount while the item is locked and must report whether the
// charge succeeded (typically a ledger debit). On full funding exactly one
// unit of stock is consumed and the funded kind is returned; the ledger
// resets for the next unit while stock remains.
func (s *Store) Contribute(label, username string, amount float64, pay func(amount float64) bool) (fundedKind string, err error) {
	amount = roundCents(amount)
	if amount <= 0 {
		return "", fmt.Errorf("%s: contribution must be positive", protocol.ErrBadRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[label]
	if !ok {
		return "", fmt.Errorf("%s: no such item %s", protocol.ErrInvalidTarget, label)
	}
	if it.Stock == 0 {
		return "", fmt.Errorf("%s: %s is sold out", protocol.ErrSoldOut, it.Name)
	}

	if remaining := roundCents(it.Price - it.MoneyRaised); amount > remaining {
		amount = remaining
	}
	if !pay(amount) {
		return "", fmt.Errorf("%s: insufficient funds", protocol.ErrNoFunds)
	}

	it.MoneyRaised = roundCents(it.MoneyRaised + amount)
	it.Contributors = append(it.Contributors, Contribution{
		Username: username,
		Amount:   amount,
		UnixTime: time.Now().Unix(),
	})

	if it.MoneyRaised < it.Price {
		return "", nil
	}

	// Fully funded: consume one unit and reset for the next.
	if it.Stock > 0 {
		it.Stock--
	}
	it.MoneyRaised = 0
	it.Contributors = nil
	return it.Kind, nil
}

// Item returns a copy of the item for inspection, or false if unknown.
func (s *Store) Item(label string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[label]
	if !ok {
		return Item{}, false
	}
	return *it, true
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
