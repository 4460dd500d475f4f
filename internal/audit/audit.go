// Package audit appends events to the platform's immutable audit trail. The
// export engine only ever writes here; reads happen through the audit-log
// export itself.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Recorder appends one audit event. Implementations are fire-and-forget from
// the caller's point of view: failures are logged, never returned.
type Recorder interface {
	LogEvent(ctx context.Context, action, resourceType, resourceID, outcome string, metadata map[string]any)
}

type SQLRecorder struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewSQLRecorder(db *sql.DB, log *logrus.Logger) *SQLRecorder {
	return &SQLRecorder{db: db, log: log}
}

func (r *SQLRecorder) LogEvent(ctx context.Context, action, resourceType, resourceID, outcome string, metadata map[string]any) {
	var payload []byte
	if metadata != nil {
		var err error
		payload, err = json.Marshal(metadata)
		if err != nil {
			r.log.WithError(err).WithField("action", action).Warn("failed to encode audit metadata")
			payload = nil
		}
	}

	businessID, _ := metadata["businessId"].(string)

	query := `
		INSERT INTO audit_log (id, business_id, action, resource_type, resource_id, outcome, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		uuid.NewString(), businessID, action, resourceType, resourceID, outcome, payload, time.Now().UTC(),
	)
	if err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{
			"action":      action,
			"resource_id": resourceID,
		}).Warn("failed to record audit event")
	}
}
