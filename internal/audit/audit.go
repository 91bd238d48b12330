package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/peopleops/hrhub/internal/actorctx"
	"github.com/peopleops/hrhub/internal/observability"
)

// Action tags, mirrored in the audit_logs table.
const (
	ActionLogin       = "LOGIN"
	ActionRegister    = "REGISTER"
	ActionCreate      = "CREATE"
	ActionUpdate      = "UPDATE"
	ActionDelete      = "DELETE"
	ActionCustomQuery = "CUSTOM_QUERY"
)

// Entry is one immutable audit record. OldValues/NewValues are snapshots of
// the entity before/after the mutation and are stored as JSON.
type Entry struct {
	ID         string     `json:"logId"`
	ActorID    string     `json:"actorId"`
	Action     string     `json:"action"`
	EntityType string     `json:"entityType"`
	EntityID   string     `json:"entityId"`
	OldValues  any        `json:"oldValues,omitempty"`
	NewValues  any        `json:"newValues,omitempty"`
	IPAddress  string     `json:"ipAddress,omitempty"`
	UserAgent  string     `json:"userAgent,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ListFilter selects entries for the system activity report.
type ListFilter struct {
	From   *time.Time
	To     *time.Time
	Action *string
	Limit  int
}

type Store interface {
	Insert(ctx context.Context, e Entry) error
}

// Recorder appends audit entries after a mutation has been confirmed.
// Writes are best-effort: a failure is logged and counted but never fails
// the request that triggered it, and entries are never written for
// mutations that did not succeed.
type Recorder struct {
	store Store
	log   *slog.Logger
	prom  *observability.Prom
}

func NewRecorder(store Store, log *slog.Logger, prom *observability.Prom) *Recorder {
	return &Recorder{store: store, log: log, prom: prom}
}

func (r *Recorder) Record(ctx context.Context, e Entry) {
	if r == nil || r.store == nil {
		return
	}

	if e.ActorID == "" {
		if actor, ok := actorctx.ActorFrom(ctx); ok {
			e.ActorID = actor.UserID
		}
	}

	err := r.store.Insert(ctx, e)

	if err != nil {
		if r.prom != nil {
			r.prom.AuditFailuresTotal.Inc()
		}
		if r.log != nil {
			r.log.ErrorContext(ctx, "audit write failed",
				"action", e.Action,
				"entity_type", e.EntityType,
				"entity_id", e.EntityID,
				"err", err,
			)
		}
		return
	}

	if r.prom != nil {
		r.prom.AuditWritesTotal.WithLabelValues(e.Action).Inc()
	}
}
