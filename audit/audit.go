package audit

import (
	"context"
	"encoding/json"
	"time"

	"condo-app/types"
)

type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionClearAll Action = "clear-all"
	ActionImport   Action = "import"
)

// Entry is one append-only history record. Before/After carry JSON snapshots
// or, for batch actions, a JSON summary.
type Entry struct {
	CondominiumID types.SnowflakeID
	UnitID        types.SnowflakeID
	UnitCode      string
	Action        Action
	Actor         int
	Before        string
	After         string
	Timestamp     time.Time
}

// Sink persists entries.
type Sink interface {
	Append(ctx context.Context, entry Entry) error
}

// Recorder is what the unit operations talk to. Recording never fails from
// the caller's point of view: sink errors are logged and dropped.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// Snapshot renders v as JSON for Entry.Before/After.
func Snapshot(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

func stamp(entry Entry) Entry {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	return entry
}
