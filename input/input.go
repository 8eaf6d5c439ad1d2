// Package input samples the operator's translational axes once per control cycle.
package input

import (
	"context"
	"sync"

	"github.com/samber/lo"

	"github.com/fieldbot/lockon/units"
)

// Axes are the operator's translation request, each normalized to [-1, 1].
type Axes struct {
	Forward  float64
	Sideways float64
}

// Clamped returns the axes limited to the normalized range.
func (a Axes) Clamped() Axes {
	return Axes{
		Forward:  lo.Clamp(a.Forward, -1, 1),
		Sideways: lo.Clamp(a.Sideways, -1, 1),
	}
}

// Scaled maps full-scale deflection to maxSpeed.
func (a Axes) Scaled(maxSpeed units.LinearVelocity) (forward, sideways units.LinearVelocity) {
	c := a.Clamped()
	return units.MetersPerSecond(c.Forward * maxSpeed.MetersPerSecond()),
		units.MetersPerSecond(c.Sideways * maxSpeed.MetersPerSecond())
}

// An Operator is sampled once per cycle for the current axes.
type Operator interface {
	Axes(ctx context.Context) Axes
}

// ControlCode identifies an axis of an input device.
type ControlCode uint32

// Standard axis codes of a gamepad style controller.
const (
	AbsoluteX  ControlCode = 1000
	AbsoluteY  ControlCode = 1001
	AbsoluteRX ControlCode = 1003
	AbsoluteRY ControlCode = 1004
)

// An AxisReader returns the latest value of a device axis, false if the device does not report it.
type AxisReader interface {
	Axis(ctx context.Context, code ControlCode) (float64, bool)
}

// Mapping binds device axes to the operator's forward and sideways requests.
type Mapping struct {
	Forward        ControlCode
	Sideways       ControlCode
	InvertForward  bool
	InvertSideways bool
	// Deadband zeroes deflections smaller than this magnitude.
	Deadband float64
}

// DefaultMapping is the left stick of a gamepad, where pushing up reads negative.
var DefaultMapping = Mapping{Forward: AbsoluteY, Sideways: AbsoluteX, InvertForward: true, InvertSideways: true, Deadband: 0.05}

type mappedOperator struct {
	reader  AxisReader
	mapping Mapping
}

// NewMappedOperator returns an Operator reading the mapped axes of a device. Missing axes read as zero.
func NewMappedOperator(reader AxisReader, mapping Mapping) Operator {
	return &mappedOperator{reader: reader, mapping: mapping}
}

func (m *mappedOperator) Axes(ctx context.Context) Axes {
	return Axes{
		Forward:  m.read(ctx, m.mapping.Forward, m.mapping.InvertForward),
		Sideways: m.read(ctx, m.mapping.Sideways, m.mapping.InvertSideways),
	}.Clamped()
}

func (m *mappedOperator) read(ctx context.Context, code ControlCode, invert bool) float64 {
	v, ok := m.reader.Axis(ctx, code)
	if !ok {
		return 0
	}
	if v < m.mapping.Deadband && v > -m.mapping.Deadband {
		return 0
	}
	if invert {
		return -v
	}
	return v
}

// Constant is an Operator holding fixed axes, settable between cycles.
type Constant struct {
	mu   sync.Mutex
	axes Axes
}

// NewConstant returns an Operator that always reports axes.
func NewConstant(axes Axes) *Constant {
	return &Constant{axes: axes}
}

// Set replaces the reported axes.
func (c *Constant) Set(axes Axes) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.axes = axes
}

// Axes returns the held axes.
func (c *Constant) Axes(ctx context.Context) Axes {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.axes.Clamped()
}
