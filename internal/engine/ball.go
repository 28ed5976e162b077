package engine

import "math"

// MaxBounceAngle caps how steep a paddle bounce can get. The reflection
// angle scales linearly from 0 at the paddle center up to π/2 minus this
// value at the paddle tip.
const MaxBounceAngle = math.Pi / 12

// Advance returns the ball position after one tick of free flight.
func Advance(pos, vel Vec2, speed float64) Vec2 {
	return pos.Add(vel.Scale(speed))
}

// BounceWalls flips the vertical velocity component when the next position
// crosses the top or bottom boundary while moving toward it. The position
// itself is left untouched: the ball may draw slightly out of bounds for a
// single tick before the flipped velocity brings it back. Returns the
// (possibly updated) velocity.
func BounceWalls(next Vec2, vel Vec2, ballSize, fieldHeight float64) Vec2 {
	if next.Y > fieldHeight-ballSize && vel.Y > 0 {
		vel.Y = -vel.Y
	} else if next.Y < ballSize && vel.Y < 0 {
		vel.Y = -vel.Y
	}
	return vel
}

// CollideRect tests the segment from prev to next against the left and
// right edges of box using parametric line intersection. On a hit it
// reflects the velocity with a bounce angle proportional to how far from
// the rectangle center the ball struck, preserves the speed magnitude, and
// repositions the ball along the remaining fractional travel distance past
// the intersection point. spin offsets the bounce angle (lift effect from
// paddle momentum); pass 0 for obstacles.
//
// The right edge is checked before the left edge and at most one
// correction is applied, so a pathological corner hit resolves against a
// single edge only.
func CollideRect(prev, next, vel Vec2, box Rect, spin float64) (Vec2, Vec2, bool) {
	if prev.X == next.X {
		return next, vel, false
	}

	var intersect Vec2
	hit := false
	outward := 0.0

	// Crossing the right edge, moving left.
	if next.X <= box.Right() && prev.X >= box.Right() {
		intersect.X = box.Right()
		intersect.Y = edgeIntersectY(prev, next, intersect.X)
		if intersect.Y >= box.Y && intersect.Y <= box.Bottom() {
			hit = true
			outward = 1
		}
	}
	// Crossing the left edge, moving right.
	if !hit && next.X >= box.X && prev.X <= box.X {
		intersect.X = box.X
		intersect.Y = edgeIntersectY(prev, next, intersect.X)
		if intersect.Y >= box.Y && intersect.Y <= box.Bottom() {
			hit = true
			outward = -1
		}
	}
	if !hit {
		return next, vel, false
	}

	speed := math.Hypot(vel.X, vel.Y)
	relativeIntersect := box.CenterY() - intersect.Y
	bounceAngle := (relativeIntersect/(box.H/2))*(math.Pi/2-MaxBounceAngle) + spin
	// Remaining travel past the intersection, as a fraction of the full
	// segment. Measured on the x axis: the guard above rules out vertical
	// segments, while a perfectly horizontal ball has no y delta to divide
	// by.
	travelLeft := (next.X - intersect.X) / (next.X - prev.X)

	vel.X = speed * outward * math.Cos(bounceAngle)
	vel.Y = speed * -math.Sin(bounceAngle)
	next.X = intersect.X + travelLeft*speed*math.Cos(bounceAngle)
	next.Y = intersect.Y + travelLeft*speed*math.Sin(bounceAngle)
	return next, vel, true
}

// CrossesRect reports whether the segment from prev to next enters box
// through its left or right edge. Used for projectile hit detection, where
// only the fact of the hit matters.
func CrossesRect(prev, next Vec2, box Rect) bool {
	if prev.X == next.X {
		return false
	}
	if next.X <= box.Right() && prev.X >= box.Right() {
		y := edgeIntersectY(prev, next, box.Right())
		if y >= box.Y && y <= box.Bottom() {
			return true
		}
	}
	if next.X >= box.X && prev.X <= box.X {
		y := edgeIntersectY(prev, next, box.X)
		if y >= box.Y && y <= box.Bottom() {
			return true
		}
	}
	return false
}

// edgeIntersectY solves the segment prev→next for y at the vertical line x.
func edgeIntersectY(prev, next Vec2, x float64) float64 {
	return prev.Y + (x-prev.X)*(prev.Y-next.Y)/(prev.X-next.X)
}
