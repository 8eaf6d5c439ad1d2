package inject

import (
	"context"

	"github.com/fieldbot/lockon/input"
)

// Operator is an injectable operator input.
type Operator struct {
	input.Operator
	AxesFunc func(ctx context.Context) input.Axes
}

// Axes calls the injected Axes or the real version.
func (o *Operator) Axes(ctx context.Context) input.Axes {
	if o.AxesFunc == nil {
		if o.Operator == nil {
			return input.Axes{}
		}
		return o.Operator.Axes(ctx)
	}
	return o.AxesFunc(ctx)
}
