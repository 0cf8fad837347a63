package audit

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Direct writes each entry synchronously on the caller's goroutine.
type Direct struct {
	sink Sink
	log  *logrus.Entry
}

func NewDirect(sink Sink, log *logrus.Entry) *Direct {
	return &Direct{sink: sink, log: log}
}

func (d *Direct) Record(ctx context.Context, entry Entry) {
	entry = stamp(entry)
	if err := d.sink.Append(ctx, entry); err != nil {
		d.log.WithError(err).
			WithField("action", entry.Action).
			WithField("condominium_id", entry.CondominiumID).
			Warn("audit entry dropped")
	}
}
