package game

import "testing"

func TestNormalizedFillsDefaults(t *testing.T) {
	o := Options{}.Normalized()

	if o.BallSpeed != DefaultBallSpeed {
		t.Errorf("BallSpeed = %v, want %v", o.BallSpeed, DefaultBallSpeed)
	}
	if o.PaddleLength != DefaultPaddleLength {
		t.Errorf("PaddleLength = %v, want %v", o.PaddleLength, DefaultPaddleLength)
	}
	if o.PlayerSpeed != DefaultPlayerSpeed {
		t.Errorf("PlayerSpeed = %v, want %v", o.PlayerSpeed, DefaultPlayerSpeed)
	}
	if o.VictoryRounds != DefaultVictoryRounds {
		t.Errorf("VictoryRounds = %d, want %d", o.VictoryRounds, DefaultVictoryRounds)
	}
	if o.Projectiles || o.Obstacle || o.PaddleShrink {
		t.Error("extras must be off by default")
	}
}

func TestNormalizedKeepsExplicitValues(t *testing.T) {
	o := Options{BallSpeed: 7, VictoryRounds: 3, PaddleLength: 120}.Normalized()

	if o.BallSpeed != 7 {
		t.Errorf("BallSpeed = %v, want 7", o.BallSpeed)
	}
	if o.VictoryRounds != 3 {
		t.Errorf("VictoryRounds = %d, want 3", o.VictoryRounds)
	}
	if o.PaddleLength != 120 {
		t.Errorf("PaddleLength = %v, want 120", o.PaddleLength)
	}
}

func TestNormalizedEvenVictoryRounds(t *testing.T) {
	// An even threshold would allow a literal tie.
	o := Options{VictoryRounds: 4}.Normalized()
	if o.VictoryRounds != 5 {
		t.Errorf("VictoryRounds = %d, want 5", o.VictoryRounds)
	}
}

func TestNormalizedClampsPaddle(t *testing.T) {
	o := Options{PaddleLength: 10000}.Normalized()
	if o.PaddleLength != CanvasHeight {
		t.Errorf("PaddleLength = %v, want %v", o.PaddleLength, CanvasHeight)
	}

	o = Options{PaddleLength: 50, MinPaddleLength: 200}.Normalized()
	if o.MinPaddleLength != 50 {
		t.Errorf("MinPaddleLength = %v, must not exceed the paddle length", o.MinPaddleLength)
	}
}
