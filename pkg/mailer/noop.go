package mailer

import (
	"context"

	"github.com/fourmis-app/fourmis-backend/pkg/logger"
)

// Noop satisfies Sender without delivering anything. Used in environments
// without an SMTP relay so invitation issuance still succeeds.
type Noop struct {
	Log *logger.Logger
}

func (n *Noop) Send(ctx context.Context, msg Message) error {
	if n.Log != nil {
		ctx = n.Log.WithField(ctx, "to", msg.To)
		n.Log.Info(ctx, "mailer.noop.skipped")
	}
	return nil
}
