package survival

// Activity classifies how fast a player burns water. Riding a worm overrides
// the velocity-based classes.
type Activity int

const (
	Idle Activity = iota
	Walking
	Running
	RidingWorm
)

func (a Activity) String() string {
	switch a {
	case Idle:
		return "IDLE"
	case Walking:
		return "WALKING"
	case Running:
		return "RUNNING"
	case RidingWorm:
		return "RIDING_WORM"
	}
	return "UNKNOWN"
}

// Velocity cuts in m/s. Below idleMax is idle, below runMin is walking,
// at or above runMin is running.
const (
	idleMax = 0.5
	runMin  = 7.0
)

// Classify derives the activity from horizontal speed and the riding flag.
// The flag wins regardless of velocity.
func Classify(speed float64, riding bool) Activity {
	if riding {
		return RidingWorm
	}
	switch {
	case speed < idleMax:
		return Idle
	case speed < runMin:
		return Walking
	}
	return Running
}

// Depletion rates in water units per minute.
const (
	rateIdle    = 0.5
	rateWalking = 1.0
	rateRunning = 2.0
	rateRiding  = 0.2
)

// Rate returns the water cost per minute of an activity.
func Rate(a Activity) float64 {
	switch a {
	case Walking:
		return rateWalking
	case Running:
		return rateRunning
	case RidingWorm:
		return rateRiding
	}
	return rateIdle
}

// Deplete returns the water level after elapsedSec seconds of the given
// activity. reduction is the equipped-gear mitigation in [0,1]; out-of-range
// values are clamped so gear can never add water. Non-positive elapsed time
// leaves water untouched. The result always lands in [0,100].
func Deplete(water float64, a Activity, elapsedSec, reduction float64) float64 {
	if elapsedSec <= 0 {
		return clampWater(water)
	}
	if reduction < 0 {
		reduction = 0
	}
	if reduction > 1 {
		reduction = 1
	}
	amount := Rate(a) * (elapsedSec / 60) * (1 - reduction)
	return clampWater(water - amount)
}

func clampWater(w float64) float64 {
	if w < 0 {
		return 0
	}
	if w > 100 {
		return 100
	}
	return w
}

// ThirstLevel is the named band the current water level falls in.
type ThirstLevel int

const (
	Hydrated ThirstLevel = iota
	Mild
	Moderate
	Severe
)

func (l ThirstLevel) String() string {
	switch l {
	case Hydrated:
		return "HYDRATED"
	case Mild:
		return "MILD"
	case Moderate:
		return "MODERATE"
	case Severe:
		return "SEVERE"
	}
	return "UNKNOWN"
}

// Thirst maps water to its band. Band floors are inclusive: 50 is still
// hydrated, 25 still mild, 10 still moderate.
func Thirst(water float64) ThirstLevel {
	switch {
	case water >= 50:
		return Hydrated
	case water >= 25:
		return Mild
	case water >= 10:
		return Moderate
	}
	return Severe
}

// Effect carries the gameplay consequences of a thirst band.
type Effect struct {
	Level             ThirstLevel
	SpeedMultiplier   float64
	HealthDrainPerSec float64
}

var effects = [...]Effect{
	Hydrated: {Hydrated, 1.0, 0},
	Mild:     {Mild, 0.9, 0},
	Moderate: {Moderate, 0.75, 0},
	Severe:   {Severe, 0.5, 1},
}

// EffectOf returns the band's speed multiplier and health drain.
func EffectOf(l ThirstLevel) Effect {
	if l < Hydrated || l > Severe {
		return effects[Hydrated]
	}
	return effects[l]
}

// VFXIntensity is the presentation-only severe-thirst overlay strength,
// ramping 0 to 1 as water falls from 10 to 0. No gameplay effect.
func VFXIntensity(water float64) float64 {
	if water >= 10 {
		return 0
	}
	if water <= 0 {
		return 1
	}
	return (10 - water) / 10
}

// Fatal reports death by dehydration. Pure predicate, independent of
// Deplete's clamping.
func Fatal(water float64) bool { return water <= 0 }
