package dashboard

import (
	"context"
	"slices"
	"time"

	"github.com/vango-dev/tabledash/pkg/table"
)

// OptionsSource serves a fixed option list after Delay, standing in for a
// slow options endpoint.
type OptionsSource struct {
	Options []table.Option
	Delay   time.Duration
}

// Fetch returns a copy of the options once Delay has passed.
func (s OptionsSource) Fetch(ctx context.Context, _ struct{}) ([]table.Option, error) {
	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return slices.Clone(s.Options), nil
}
