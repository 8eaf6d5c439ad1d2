package control

import (
	"testing"
	"time"

	"go.viam.com/test"
)

func TestRateLimiter(t *testing.T) {
	_, err := NewRateLimiter(0)
	test.That(t, err, test.ShouldNotBeNil)

	r, err := NewRateLimiter(10)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Next(5, 100*time.Millisecond), test.ShouldAlmostEqual, 1.)
	test.That(t, r.Next(5, 100*time.Millisecond), test.ShouldAlmostEqual, 2.)
	test.That(t, r.Next(-5, 100*time.Millisecond), test.ShouldAlmostEqual, 1.)
	test.That(t, r.Next(1.5, 100*time.Millisecond), test.ShouldAlmostEqual, 1.5)

	r.Reset()
	test.That(t, r.Next(-4, 100*time.Millisecond), test.ShouldAlmostEqual, -1.)
}
