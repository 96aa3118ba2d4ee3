package geom

import (
	"math"
	"testing"
)

func TestStepToward_AdvancesAlongBearing(t *testing.T) {
	// Destination straight to the right: one second at speed 50 covers 50px.
	x, y := StepToward(0, 0, 200, 0, 50, 1)
	if math.Abs(x-50) > 1e-9 || math.Abs(y) > 1e-9 {
		t.Fatalf("got (%v,%v) want (50,0)", x, y)
	}

	// Diagonal: the step length must equal speed*dt.
	x, y = StepToward(0, 0, 300, 300, 50, 1)
	if d := math.Hypot(x, y); math.Abs(d-50) > 1e-9 {
		t.Fatalf("step length %v, want 50", d)
	}
}

func TestStepToward_SnapsOnOvershoot(t *testing.T) {
	x, y := StepToward(0, 0, 10, 0, 100, 1)
	if x != 10 || y != 0 {
		t.Fatalf("got (%v,%v) want snap to (10,0)", x, y)
	}

	// Already at destination: atan2(0,0)=0 would drift +x without the
	// snap, so an arrived entity must hold position.
	x, y = StepToward(5, 5, 5, 5, 100, 1)
	if x != 5 || y != 5 {
		t.Fatalf("arrived entity drifted to (%v,%v)", x, y)
	}
}

func TestOverlaps(t *testing.T) {
	if !Overlaps(0, 0, 10, 10, 5, 5, 10, 10) {
		t.Fatalf("expected overlap")
	}
	if Overlaps(0, 0, 10, 10, 10, 0, 5, 5) {
		t.Fatalf("touching edges must not overlap")
	}
	if Overlaps(0, 0, 10, 10, 40, 40, 5, 5) {
		t.Fatalf("disjoint boxes must not overlap")
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(-3, 0, 10); got != 0 {
		t.Fatalf("got %v", got)
	}
	if got := Clamp(42, 0, 10); got != 10 {
		t.Fatalf("got %v", got)
	}
	if got := Clamp(7, 0, 10); got != 7 {
		t.Fatalf("got %v", got)
	}
}
