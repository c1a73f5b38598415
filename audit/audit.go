// Package audit implements the operational audit trail of
// administrator-visible room operations. It is never read back to
// reconstruct room state — only appended to.
package audit

import (
	"time"

	"gorm.io/gorm"

	"trivion/logging"
)

// Entry is one administrator-visible action: room create/destroy,
// game start/next/end, member kick, question CRUD.
type Entry struct {
	Room    string
	Actor   string
	Action  string
	Outcome string
}

// record is the GORM-backed row shape, kept distinct from Entry so the
// audit package's public API never forces a storage tag onto callers.
type record struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	Room      string `gorm:"index"`
	Actor     string
	Action    string
	Outcome   string
}

// Writer appends audit entries. It always logs through the structured
// logger regardless of whether a database is configured; Postgres
// persistence is additive.
type Writer struct {
	db  *gorm.DB
	log *logging.Logger
}

// NewWriter builds a Writer. db may be nil, in which case every entry
// is still logged but nothing is persisted — this is the degraded mode
// the ambient stack falls back to when POSTGRES_DSN is unset.
func NewWriter(db *gorm.DB, log *logging.Logger) (*Writer, error) {
	if db != nil {
		if err := db.AutoMigrate(&record{}); err != nil {
			return nil, err
		}
	}
	return &Writer{db: db, log: log}, nil
}

// Log appends one entry. Write failures are logged, never propagated —
// an audit trail outage must not affect gameplay.
func (w *Writer) Log(e Entry) {
	w.log.Infow("audit entry", "room", e.Room, "actor", e.Actor, "action", e.Action, "outcome", e.Outcome)
	if w.db == nil {
		return
	}
	rec := record{Room: e.Room, Actor: e.Actor, Action: e.Action, Outcome: e.Outcome}
	if err := w.db.Create(&rec).Error; err != nil {
		w.log.Warnw("failed to persist audit entry", "error", err)
	}
}
