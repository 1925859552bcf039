package safe_test

import (
	"errors"
	"testing"

	"github.com/ahammadshawki8/chimera/pkg/utils/safe"
	"github.com/m-mizutani/gt"
)

type closer struct {
	closed bool
	err    error
}

func (c *closer) Close() error {
	c.closed = true
	return c.err
}

func TestClose(t *testing.T) {
	t.Run("closes the resource", func(t *testing.T) {
		c := &closer{}
		safe.Close(t.Context(), c, "test")
		gt.Bool(t, c.closed).True()
	})

	t.Run("failure is swallowed", func(t *testing.T) {
		c := &closer{err: errors.New("boom")}
		safe.Close(t.Context(), c, "test")
		gt.Bool(t, c.closed).True()
	})

	t.Run("nil closer is ignored", func(t *testing.T) {
		safe.Close(t.Context(), nil, "test")
	})
}
