package engine

// Projectile is an optional offensive object fired by a player. It flies
// horizontally toward the opponent and ricochets off the top and bottom
// walls; each ricochet increments Bounces.
type Projectile struct {
	Pos     Vec2    `json:"pos"`
	Vel     Vec2    `json:"-"`
	Size    float64 `json:"size"`
	Bounces int     `json:"-"`
}

// StepProjectile advances a projectile by one tick, applying wall bounces.
// Unlike the ball, the post-bounce position is clamped inside the field so
// a fast projectile cannot tunnel through a wall.
func StepProjectile(p Projectile, fieldHeight float64) Projectile {
	p.Pos = p.Pos.Add(p.Vel)
	if p.Pos.Y > fieldHeight-p.Size && p.Vel.Y > 0 {
		p.Pos.Y = fieldHeight - p.Size
		p.Vel.Y = -p.Vel.Y
		p.Bounces++
	} else if p.Pos.Y < p.Size && p.Vel.Y < 0 {
		p.Pos.Y = p.Size
		p.Vel.Y = -p.Vel.Y
		p.Bounces++
	}
	return p
}

// OffField reports whether the projectile has left the playfield
// horizontally and should despawn.
func (p Projectile) OffField(fieldWidth float64) bool {
	return p.Pos.X < -p.Size || p.Pos.X > fieldWidth+p.Size
}
