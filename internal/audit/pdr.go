// Package audit records state-mutating actions against the item store.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/fentz26/radar/internal/models"
)

// Writer persists audit entries.
type Writer interface {
	WriteAudit(ctx context.Context, action, inputsHash, outcome, userID, itemID, details string) (*models.AuditEntry, error)
}

// Recorder writes audit entries and mirrors them to the log.
type Recorder struct {
	w   Writer
	log logrus.FieldLogger
}

// NewRecorder creates a recorder. A nil logger discards log output.
func NewRecorder(w Writer, log logrus.FieldLogger) *Recorder {
	if log == nil {
		l := logrus.New()
		l.Out = io.Discard
		log = l
	}
	return &Recorder{w: w, log: log}
}

// Record writes an entry for a state-mutating action.
func (r *Recorder) Record(ctx context.Context, action string, inputs any, outcome, userID, itemID, details string) (*models.AuditEntry, error) {
	hash := HashInputs(inputs)
	entry, err := r.w.WriteAudit(ctx, action, hash, outcome, userID, itemID, details)

	fields := logrus.Fields{
		"action":  action,
		"outcome": outcome,
		"user":    userID,
		"inputs":  hash[:min(12, len(hash))],
	}
	if itemID != "" {
		fields["item"] = itemID
	}
	if err != nil {
		r.log.WithFields(fields).WithError(err).Warn("audit write failed")
		return nil, err
	}
	r.log.WithFields(fields).Debug("audit")
	return entry, nil
}

// HashInputs returns the hex SHA-256 of the JSON encoding of inputs.
func HashInputs(inputs any) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
