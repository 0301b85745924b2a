package client

import (
	"arrakis.gg/internal/geo"
	"arrakis.gg/internal/protocol"
	"arrakis.gg/internal/sim/motion"
)

const (
	// DefaultHistoryWindowMs bounds the unacked-input buffer by age.
	DefaultHistoryWindowMs = 200
	// DefaultSnapDistance is the prediction error beyond which the
	// predictor gives up on smoothing and teleports to the corrected
	// position.
	DefaultSnapDistance = 4.0
	// DefaultCorrectionRate is the per-reconcile lerp fraction applied
	// to sub-snap errors.
	DefaultCorrectionRate = 0.3
)

type Config struct {
	TickRateHz      int
	SpeedMps        float64
	WorldRadius     float64
	HistoryWindowMs int64
	SnapDistance    float64
	CorrectionRate  float64
}

func (c *Config) applyDefaults() {
	if c.TickRateHz <= 0 {
		c.TickRateHz = 30
	}
	if c.HistoryWindowMs <= 0 {
		c.HistoryWindowMs = DefaultHistoryWindowMs
	}
	if c.SnapDistance <= 0 {
		c.SnapDistance = DefaultSnapDistance
	}
	if c.CorrectionRate <= 0 || c.CorrectionRate > 1 {
		c.CorrectionRate = DefaultCorrectionRate
	}
}

// Predictor advances a local position estimate ahead of the server and
// folds authoritative corrections back in. The integration step is the
// shared motion.Step, so a correct speed estimate replays to the exact
// server result and reconciliation is a no-op.
type Predictor struct {
	cfg     Config
	dt      float64
	pos     geo.Vector3
	yaw     float64
	speed   float64
	nextSeq uint32
	history *History
}

func NewPredictor(cfg Config) *Predictor {
	cfg.applyDefaults()
	return &Predictor{
		cfg:     cfg,
		dt:      1.0 / float64(cfg.TickRateHz),
		speed:   cfg.SpeedMps,
		nextSeq: 1,
		history: NewHistory(cfg.HistoryWindowMs),
	}
}

// Reset seeds the local estimate, typically from the first S_STATE after
// a welcome. It does not clear seq numbering: a rejoin on the same
// session keeps climbing so the server's stale-input guard holds.
func (p *Predictor) Reset(pos geo.Vector3, yaw float64) {
	p.pos = pos
	p.yaw = yaw
	p.history = NewHistory(p.cfg.HistoryWindowMs)
}

// SetSpeed updates the speed estimate used for prediction and replay.
// Sessions call this when the authoritative state reveals a new thirst
// band or equipment load-out.
func (p *Predictor) SetSpeed(mps float64) {
	if mps > 0 {
		p.speed = mps
	}
}

func (p *Predictor) Position() geo.Vector3 { return p.pos }
func (p *Predictor) Yaw() float64          { return p.yaw }
func (p *Predictor) Pending() int          { return p.history.Len() }

// Predict applies one tick of local input, records it in the history,
// and returns the wire message to send. The predicted position moves
// immediately so the session renders without waiting on the server.
func (p *Predictor) Predict(move protocol.MovementIntent, rotation float64, nowMs int64) protocol.InputMsg {
	move.Forward = clampAxis(move.Forward)
	move.Right = clampAxis(move.Right)
	p.yaw = rotation

	next, _ := motion.Step(p.pos, motion.Intent{
		Forward:  move.Forward,
		Right:    move.Right,
		Rotation: rotation,
	}, p.speed, p.dt)
	p.pos = motion.ClampRadius(next, p.cfg.WorldRadius)

	seq := p.nextSeq
	p.nextSeq++
	p.history.Record(InputSnapshot{
		Seq:       seq,
		Movement:  move,
		Rotation:  rotation,
		Timestamp: nowMs,
		Predicted: p.pos,
	})
	return protocol.InputMsg{
		Type:            protocol.TypeInput,
		ProtocolVersion: protocol.Version,
		Seq:             seq,
		Timestamp:       nowMs,
		Movement:        move,
		Rotation:        rotation,
	}
}

// Reconcile folds an authoritative position and ack into the local
// estimate: drop acked inputs, replay the rest ascending on top of the
// server position, then blend the old estimate toward the corrected one.
// Errors beyond the snap distance teleport; smaller ones lerp by the
// correction rate so the camera eases instead of popping.
func (p *Predictor) Reconcile(authoritative geo.Vector3, lastProcessedSeq uint32) geo.Vector3 {
	p.history.AckThrough(lastProcessedSeq)

	corrected := authoritative
	pending := p.history.Unacked()
	for i := range pending {
		next, _ := motion.Step(corrected, motion.Intent{
			Forward:  pending[i].Movement.Forward,
			Right:    pending[i].Movement.Right,
			Rotation: pending[i].Rotation,
		}, p.speed, p.dt)
		corrected = motion.ClampRadius(next, p.cfg.WorldRadius)
		pending[i].Predicted = corrected
	}

	if geo.Dist(p.pos, corrected) > p.cfg.SnapDistance {
		p.pos = corrected
	} else {
		p.pos = lerp(p.pos, corrected, p.cfg.CorrectionRate)
	}
	return p.pos
}

func lerp(a, b geo.Vector3, t float64) geo.Vector3 {
	return geo.Vector3{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}

func clampAxis(v int8) int8 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
