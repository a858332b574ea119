package action

import (
	"context"

	"github.com/rs/zerolog/log"
)

// DryRunDialer logs the call it would have placed
type DryRunDialer struct{}

// NewDryRunDialer creates a DryRunDialer
func NewDryRunDialer() *DryRunDialer {
	return &DryRunDialer{}
}

// Dial logs the faked call content
func (d *DryRunDialer) Dial(ctx context.Context, call Call) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Warn().
		Str("from", call.From).
		Str("to", call.To).
		Str("message", call.Script).
		Msg("DRY RUN: no telephony configured, call simulated")
	return nil
}

// DryRun returns true
func (d *DryRunDialer) DryRun() bool {
	return true
}
