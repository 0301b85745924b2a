package world

import "arrakis.gg/internal/geo"

// AuditEntry is one durable gameplay fact: a death, a trade, a capture.
// The audit stream exists for operators and postmortems; the tick log,
// not this, is the replay source of truth.
type AuditEntry struct {
	Tick    uint64         `json:"tick"`
	Actor   string         `json:"actor"`
	Action  string         `json:"action"`
	Pos     [3]float64     `json:"pos"`
	Details map[string]any `json:"details,omitempty"`
}

// AuditLogger consumes audit entries. Implementations must not block;
// the loop goroutine calls this inline.
type AuditLogger interface {
	WriteAudit(AuditEntry) error
}

func (w *World) SetAuditLogger(l AuditLogger) { w.auditLogger = l }

func (w *World) audit(action, actor string, pos geo.Vector3, details map[string]any) {
	if w.auditLogger == nil {
		return
	}
	_ = w.auditLogger.WriteAudit(AuditEntry{
		Tick:    w.tick.Load(),
		Actor:   actor,
		Action:  action,
		Pos:     [3]float64{pos.X, pos.Y, pos.Z},
		Details: details,
	})
}
