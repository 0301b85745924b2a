package world

import "github.com/google/uuid"

// randStream is the world's only randomness source: a splitmix64 sequence
// with a single uint64 of state, so snapshots capture and restore it
// exactly. It satisfies rand.Source64 for float draws and io.Reader for
// uuid generation; both sides consume the same sequence.
type randStream struct {
	state uint64
}

func newRandStream(seed int64) *randStream {
	return &randStream{state: uint64(seed)}
}

func (r *randStream) next() uint64 {
	r.state += 0x9e3779b97f4a7c15
	z := r.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func (r *randStream) Uint64() uint64 { return r.next() }

func (r *randStream) Int63() int64 { return int64(r.next() >> 1) }

func (r *randStream) Seed(seed int64) { r.state = uint64(seed) }

// Read fills p eight bytes per draw, discarding the tail of the final
// draw, so a 16-byte uuid costs exactly two draws.
func (r *randStream) Read(p []byte) (int, error) {
	for i := 0; i < len(p); i += 8 {
		v := r.next()
		for j := 0; j < 8 && i+j < len(p); j++ {
			p[i+j] = byte(v >> (8 * uint(j)))
		}
	}
	return len(p), nil
}

// newID draws a uuid from the simulation stream. Id allocation is part of
// the replayed state; anything needing an id must draw in tick order.
func (w *World) newID() string {
	id, _ := uuid.NewRandomFromReader(w.src)
	return id.String()
}
