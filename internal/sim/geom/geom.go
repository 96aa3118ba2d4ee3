// Package geom holds the point-kinematics helpers shared by every entity:
// bearings, bounded movement toward a destination, and AABB overlap tests.
// All functions are pure; positions use the top-left corner convention.
package geom

import "math"

// Direction returns the bearing in radians from (x1,y1) toward (x2,y2).
func Direction(x1, y1, x2, y2 float64) float64 {
	return math.Atan2(y2-y1, x2-x1)
}

// Distance returns the straight-line distance between two points.
func Distance(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// StepToward advances (x,y) toward (destX,destY) by speed*dt. When the step
// covers the remaining distance the position snaps to the destination, so an
// arrived entity holds still instead of oscillating past it.
func StepToward(x, y, destX, destY, speed, dt float64) (float64, float64) {
	if Distance(x, y, destX, destY) <= speed*dt {
		return destX, destY
	}
	dir := Direction(x, y, destX, destY)
	return x + speed*math.Cos(dir)*dt, y + speed*math.Sin(dir)*dt
}

// Overlaps reports whether two axis-aligned boxes intersect. Boxes are given
// as top-left corner plus width and height.
func Overlaps(ax, ay, aw, ah, bx, by, bw, bh float64) bool {
	return ax < bx+bw && ax+aw > bx && ay < by+bh && ay+ah > by
}
