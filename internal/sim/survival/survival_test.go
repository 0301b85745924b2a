package survival

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		speed  float64
		riding bool
		want   Activity
	}{
		{0, false, Idle},
		{0.49, false, Idle},
		{0.5, false, Walking},
		{4.9, false, Walking},
		{5, false, Walking},
		{6.99, false, Walking},
		{7, false, Running},
		{20, false, Running},
		{0, true, RidingWorm},
		{12, true, RidingWorm},
	}
	for _, tc := range cases {
		if got := Classify(tc.speed, tc.riding); got != tc.want {
			t.Fatalf("Classify(%v, %v) = %v, want %v", tc.speed, tc.riding, got, tc.want)
		}
	}
}

func TestThirstBands(t *testing.T) {
	cases := []struct {
		water float64
		want  ThirstLevel
	}{
		{100, Hydrated},
		{50, Hydrated},
		{49, Mild},
		{25, Mild},
		{24, Moderate},
		{10, Moderate},
		{9, Severe},
		{0, Severe},
	}
	for _, tc := range cases {
		if got := Thirst(tc.water); got != tc.want {
			t.Fatalf("Thirst(%v) = %v, want %v", tc.water, got, tc.want)
		}
	}
}

func TestDepletionIsLinear(t *testing.T) {
	if got := Deplete(100, Idle, 60, 0); got != 99.5 {
		t.Fatalf("idle minute: %v, want 99.5", got)
	}
	// Running at 0.75 reduction costs the same as idling bare.
	if got := Deplete(100, Running, 60, 0.75); got != 99.5 {
		t.Fatalf("running minute at 0.75: %v, want 99.5", got)
	}
	if got := Deplete(100, Walking, 30, 0); got != 99.5 {
		t.Fatalf("walking half minute: %v, want 99.5", got)
	}
}

func TestDepletionStaysInRange(t *testing.T) {
	cases := []struct {
		water, sec, reduction float64
		act                   Activity
	}{
		{0.2, 3600, 0, Running},
		{100, -5, 0, Running},
		{100, 0, 0, Running},
		{50, 60, 1.5, Running},
		{50, 60, -0.5, Idle},
		{150, 60, 0, Idle},
		{-20, 60, 0, Idle},
	}
	for _, tc := range cases {
		got := Deplete(tc.water, tc.act, tc.sec, tc.reduction)
		if got < 0 || got > 100 {
			t.Fatalf("Deplete(%v, %v, %v, %v) = %v, out of range", tc.water, tc.act, tc.sec, tc.reduction, got)
		}
	}

	// Zero or negative elapsed time never moves an in-range value.
	if got := Deplete(42, Running, 0, 0); got != 42 {
		t.Fatalf("zero elapsed changed water: %v", got)
	}
	if got := Deplete(42, Running, -60, 0); got != 42 {
		t.Fatalf("negative elapsed changed water: %v", got)
	}
	// Reduction above 1 is treated as 1, never a gain.
	if got := Deplete(42, Running, 60, 7); got != 42 {
		t.Fatalf("over-reduction changed water: %v", got)
	}
}

func TestRates(t *testing.T) {
	if Rate(Idle) != 0.5 || Rate(Walking) != 1.0 || Rate(Running) != 2.0 || Rate(RidingWorm) != 0.2 {
		t.Fatalf("rate table drifted: %v %v %v %v", Rate(Idle), Rate(Walking), Rate(Running), Rate(RidingWorm))
	}
}

func TestEffects(t *testing.T) {
	cases := []struct {
		level ThirstLevel
		mult  float64
		drain float64
	}{
		{Hydrated, 1.0, 0},
		{Mild, 0.9, 0},
		{Moderate, 0.75, 0},
		{Severe, 0.5, 1},
	}
	for _, tc := range cases {
		e := EffectOf(tc.level)
		if e.SpeedMultiplier != tc.mult || e.HealthDrainPerSec != tc.drain {
			t.Fatalf("EffectOf(%v) = %+v", tc.level, e)
		}
	}
}

func TestVFXIntensity(t *testing.T) {
	if got := VFXIntensity(50); got != 0 {
		t.Fatalf("hydrated vfx = %v", got)
	}
	if got := VFXIntensity(10); got != 0 {
		t.Fatalf("moderate floor vfx = %v", got)
	}
	if got := VFXIntensity(5); got != 0.5 {
		t.Fatalf("half-depleted vfx = %v", got)
	}
	if got := VFXIntensity(0); got != 1 {
		t.Fatalf("dry vfx = %v", got)
	}
	if got := VFXIntensity(-4); got != 1 {
		t.Fatalf("below-zero vfx = %v", got)
	}
}

func TestFatal(t *testing.T) {
	if Fatal(0.1) {
		t.Fatalf("0.1 water should not be fatal")
	}
	if !Fatal(0) || !Fatal(-2) {
		t.Fatalf("zero and negative water must be fatal")
	}
}

// Fifty minutes of running drains a bare player from full to dead; an
// advanced stillsuit leaves three quarters of the tank.
func TestFiftyMinuteRun(t *testing.T) {
	bare := 100.0
	suited := 100.0
	for i := 0; i < 50; i++ {
		bare = Deplete(bare, Running, 60, 0)
		suited = Deplete(suited, Running, 60, 0.75)
	}
	if bare != 0 {
		t.Fatalf("bare runner ended at %v, want 0", bare)
	}
	if !Fatal(bare) {
		t.Fatalf("bare runner should be dead")
	}
	if suited != 75 {
		t.Fatalf("suited runner ended at %v, want 75", suited)
	}
	if Fatal(suited) {
		t.Fatalf("suited runner should live")
	}
}
