package logging

import "context"

type ctxKey int

const cycleKey ctxKey = iota

// WithCycle returns a context whose C-prefixed log lines carry the control cycle number.
func WithCycle(ctx context.Context, cycle uint64) context.Context {
	return context.WithValue(ctx, cycleKey, cycle)
}

// CycleFromContext returns the control cycle stored by WithCycle, if any.
func CycleFromContext(ctx context.Context) (uint64, bool) {
	if ctx == nil {
		return 0, false
	}
	cycle, ok := ctx.Value(cycleKey).(uint64)
	return cycle, ok
}

func fieldsFromContext(ctx context.Context) []interface{} {
	if cycle, ok := CycleFromContext(ctx); ok {
		return []interface{}{"cycle", cycle}
	}
	return nil
}
