package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Header is duplicated as a JSON first line inside the compressed stream so
// tooling can identify a snapshot without decoding the gob body.
type Header struct {
	Version     int    `json:"version"`
	WorldID     string `json:"world_id"`
	SavedUnixMs int64  `json:"saved_unix_ms"`
}

// SnapshotV1 is the full persisted tank state: dimensions plus every entity,
// grouped by kind. Behavior constants are NOT persisted; they come from
// tuning at import time so a rebalance applies to restored tanks too.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Fish      []FishV1     `json:"fish,omitempty"`
	Food      []FoodV1     `json:"food,omitempty"`
	Coins     []CoinV1     `json:"coins,omitempty"`
	Chests    []ChestV1    `json:"chests,omitempty"`
	Bubbles   []ThingV1    `json:"bubbles,omitempty"`
	Skeletons []SkeletonV1 `json:"skeletons,omitempty"`
	Taps      []TapV1      `json:"taps,omitempty"`
}

// ThingV1 is the per-entity state every kind shares.
type ThingV1 struct {
	ID            string  `json:"id"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	DestX         float64 `json:"destination_x"`
	DestY         float64 `json:"destination_y"`
	Speed         float64 `json:"speed"`
	Width         float64 `json:"width"`
	AgeSecs       float64 `json:"age_secs"`
	CreatedUnixMs int64   `json:"created_unix_ms"`
}

type FishV1 struct {
	ThingV1
	Species       string             `json:"species"`
	Name          string             `json:"name"`
	State         string             `json:"state"`
	Health        float64            `json:"health"`
	Hunger        float64            `json:"hunger"`
	Relationships map[string]float64 `json:"relationships,omitempty"`
}

type FoodV1 struct {
	ThingV1
	Subtype   string  `json:"subtype"`
	Nutrition float64 `json:"nutrition"`
	Username  string  `json:"username,omitempty"`
}

type CoinV1 struct {
	ThingV1
	Value float64 `json:"value"`
}

type ChestV1 struct {
	ThingV1
	State       string  `json:"state"`
	Value       float64 `json:"value"`
	SinceChange float64 `json:"since_change_secs"`
	SinceBubble float64 `json:"since_bubble_secs"`
}

type SkeletonV1 struct {
	ThingV1
}

type TapV1 struct {
	ThingV1
	Username string `json:"username"`
}

// WriteSnapshot writes a zstd-compressed snapshot: a JSON header line
// followed by the gob-encoded body.
func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Skip the header line; the gob body carries the header too.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
