package ledger

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/Chative-Order-Intake/agent/contract"
	logx "github.com/tanpawarit/Chative-Order-Intake/pkg/logger"
)

// Fanout writes to the primary ledger first. Mirrors are best effort: their
// failures are logged and never fail the append.
type Fanout struct {
	primary contractx.Ledger
	mirrors []contractx.Ledger
	log     zerolog.Logger
}

var _ contractx.Ledger = (*Fanout)(nil)

func NewFanout(primary contractx.Ledger, mirrors ...contractx.Ledger) (*Fanout, error) {
	if primary == nil {
		return nil, errors.New("primary ledger is required")
	}
	kept := make([]contractx.Ledger, 0, len(mirrors))
	for _, m := range mirrors {
		if m != nil {
			kept = append(kept, m)
		}
	}
	return &Fanout{
		primary: primary,
		mirrors: kept,
		log:     logx.Component("ledger"),
	}, nil
}

func (f *Fanout) Append(ctx context.Context, entry contractx.LedgerEntry) error {
	if err := f.primary.Append(ctx, entry); err != nil {
		return err
	}
	for _, m := range f.mirrors {
		if err := m.Append(ctx, entry); err != nil {
			f.log.Warn().
				Err(err).
				Str("order_id", entry.OrderID).
				Str("customer_id", entry.CustomerID).
				Msg("ledger mirror append failed")
		}
	}
	return nil
}
