package game

import "time"

// Playfield dimensions and timing, shared by every match. Clients render
// against the same canvas.
const (
	CanvasWidth  = 800.0
	CanvasHeight = 600.0

	// TickInterval is the physics tick period.
	TickInterval = 5 * time.Millisecond
	// CountdownInterval is the period of one countdown step.
	CountdownInterval = 700 * time.Millisecond
	// PregameCountdown is the number of countdown steps before the first rally.
	PregameCountdown = 5
	// PointCountdown is the number of countdown steps after a point.
	PointCountdown = 3

	// MomentumMax saturates paddle momentum in either direction.
	MomentumMax = 60
	// MomentumIdleWindow resets momentum when a player stops moving.
	MomentumIdleWindow = 100 * time.Millisecond
)

// Default option values, matching the classic ruleset.
const (
	DefaultBallSpeed       = 2.0
	DefaultBallSize        = 5.0
	DefaultPaddleLength    = 400.0
	DefaultPaddleWidth     = 5.0
	DefaultPlayerSpeed     = 3.0
	DefaultVictoryRounds   = 5
	DefaultMinPaddleLength = 100.0
	DefaultShrinkPerSecond = 2.0

	DefaultProjectileSpeed      = 4.0
	DefaultProjectileSize       = 5.0
	DefaultProjectileMaxBounces = 3
	DefaultProjectileAmmo       = 3
)

// Options configures a match at creation time. Every field is optional:
// zero values are replaced with defaults by Normalized. Options are
// immutable once the match exists.
type Options struct {
	BallSpeed float64 `json:"ballSpeed,omitempty" yaml:"ball_speed"`
	BallSize  float64 `json:"ballSize,omitempty" yaml:"ball_size"`

	PaddleLength    float64 `json:"paddleLength,omitempty" yaml:"paddle_length"`
	PaddleWidth     float64 `json:"paddleWidth,omitempty" yaml:"paddle_width"`
	PaddleShrink    bool    `json:"paddleShrink,omitempty" yaml:"paddle_shrink"`
	ShrinkPerSecond float64 `json:"shrinkPerSecond,omitempty" yaml:"shrink_per_second"`
	MinPaddleLength float64 `json:"minPaddleLength,omitempty" yaml:"min_paddle_length"`

	PlayerSpeed   float64 `json:"playerSpeed,omitempty" yaml:"player_speed"`
	VictoryRounds int     `json:"victoryRounds,omitempty" yaml:"victory_rounds"`

	// LiftEffect scales how much paddle momentum bends the bounce angle.
	// 0 disables spin.
	LiftEffect float64 `json:"liftEffect,omitempty" yaml:"lift_effect"`

	Obstacle bool `json:"obstacle,omitempty" yaml:"obstacle"`

	Projectiles          bool    `json:"projectiles,omitempty" yaml:"projectiles"`
	ProjectileSpeed      float64 `json:"projectileSpeed,omitempty" yaml:"projectile_speed"`
	ProjectileSize       float64 `json:"projectileSize,omitempty" yaml:"projectile_size"`
	ProjectileMaxBounces int     `json:"projectileMaxBounces,omitempty" yaml:"projectile_max_bounces"`
	ProjectileAmmo       int     `json:"projectileAmmo,omitempty" yaml:"projectile_ammo"`
}

// DefaultOptions returns the classic ruleset with all extras disabled.
func DefaultOptions() Options {
	return Options{}.Normalized()
}

// Normalized fills zero-valued fields with defaults and adjusts invalid
// combinations. An even victory threshold would allow a literal score tie,
// so even values are rounded up to the next odd number.
func (o Options) Normalized() Options {
	if o.BallSpeed <= 0 {
		o.BallSpeed = DefaultBallSpeed
	}
	if o.BallSize <= 0 {
		o.BallSize = DefaultBallSize
	}
	if o.PaddleLength <= 0 {
		o.PaddleLength = DefaultPaddleLength
	}
	if o.PaddleLength > CanvasHeight {
		o.PaddleLength = CanvasHeight
	}
	if o.PaddleWidth <= 0 {
		o.PaddleWidth = DefaultPaddleWidth
	}
	if o.MinPaddleLength <= 0 {
		o.MinPaddleLength = DefaultMinPaddleLength
	}
	if o.MinPaddleLength > o.PaddleLength {
		o.MinPaddleLength = o.PaddleLength
	}
	if o.ShrinkPerSecond <= 0 {
		o.ShrinkPerSecond = DefaultShrinkPerSecond
	}
	if o.PlayerSpeed <= 0 {
		o.PlayerSpeed = DefaultPlayerSpeed
	}
	if o.VictoryRounds <= 0 {
		o.VictoryRounds = DefaultVictoryRounds
	}
	if o.VictoryRounds%2 == 0 {
		o.VictoryRounds++
	}
	if o.ProjectileSpeed <= 0 {
		o.ProjectileSpeed = DefaultProjectileSpeed
	}
	if o.ProjectileSize <= 0 {
		o.ProjectileSize = DefaultProjectileSize
	}
	if o.ProjectileMaxBounces <= 0 {
		o.ProjectileMaxBounces = DefaultProjectileMaxBounces
	}
	if o.ProjectileAmmo <= 0 {
		o.ProjectileAmmo = DefaultProjectileAmmo
	}
	return o
}
