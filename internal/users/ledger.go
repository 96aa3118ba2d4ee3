// Package users is the currency ledger and online-presence tracker consumed
// by the simulation core. Balances are persisted in SQLite; presence is
// in-memory and reset on restart. All methods are safe to call concurrently
// from request-handling goroutines and from the simulation loop.
package users

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "modernc.org/sqlite"
)

type Ledger struct {
	db *sql.DB

	mu     sync.Mutex
	online map[string]int // username -> connection refcount

	startingCents int64
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	username TEXT PRIMARY KEY,
	cents    INTEGER NOT NULL DEFAULT 0
);
`

// Open opens (or creates) the ledger database at path. startingMoney is
// granted once per new username.
func Open(path string, startingMoney float64) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// The ledger is a single small table; one writer avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger schema: %w", err)
	}
	return &Ledger{
		db:            db,
		online:        map[string]int{},
		startingCents: toCents(startingMoney),
	}, nil
}

func (l *Ledger) Close() error { return l.db.Close() }

// Ensure creates the user row if missing, seeding the starting balance.
func (l *Ledger) Ensure(username string) error {
	if username == "" {
		return fmt.Errorf("ledger: empty username")
	}
	_, err := l.db.Exec(`INSERT OR IGNORE INTO users(username, cents) VALUES(?, ?)`,
		username, l.startingCents)
	return err
}

// Balance returns the user's current balance in dollars.
func (l *Ledger) Balance(username string) (float64, error) {
	var cents int64
	err := l.db.QueryRow(`SELECT cents FROM users WHERE username = ?`, username).Scan(&cents)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return fromCents(cents), nil
}

// Credit adds amount (rounded to cents) to the user's balance and returns the
// new balance.
func (l *Ledger) Credit(username string, amount float64) (float64, error) {
	if err := l.Ensure(username); err != nil {
		return 0, err
	}
	c := toCents(amount)
	if c < 0 {
		return 0, fmt.Errorf("ledger: negative credit")
	}
	if _, err := l.db.Exec(`UPDATE users SET cents = cents + ? WHERE username = ?`, c, username); err != nil {
		return 0, err
	}
	return l.Balance(username)
}

// Debit atomically subtracts amount if the balance covers it. It reports
// whether the charge went through; an uncovered charge changes nothing.
func (l *Ledger) Debit(username string, amount float64) (float64, bool, error) {
	c := toCents(amount)
	if c < 0 {
		return 0, false, fmt.Errorf("ledger: negative debit")
	}
	res, err := l.db.Exec(
		`UPDATE users SET cents = cents - ? WHERE username = ? AND cents >= ?`,
		c, username, c)
	if err != nil {
		return 0, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	bal, err := l.Balance(username)
	return bal, n > 0, err
}

// Connect records one live connection for the user.
func (l *Ledger) Connect(username string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.online[username]++
}

// Disconnect drops one live connection for the user.
func (l *Ledger) Disconnect(username string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.online[username] <= 1 {
		delete(l.online, username)
		return
	}
	l.online[username]--
}

// OnlineUsers returns the usernames with at least one live connection,
// sorted for stable iteration.
func (l *Ledger) OnlineUsers() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.online))
	for u := range l.online {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

func toCents(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}

func fromCents(cents int64) float64 {
	return float64(cents) / 100
}
