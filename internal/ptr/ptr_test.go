package ptr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNonZero(t *testing.T) {
	a := assert.New(t)

	a.Nil(NonZero(""))
	a.Nil(NonZero(0))
	a.Equal("x", *NonZero("x"))
	a.Equal(212, *NonZero(212))
}

func TestDeref(t *testing.T) {
	a := assert.New(t)

	a.Equal("", Deref[string](nil))
	a.Equal(0, Deref[int](nil))
	a.Equal("x", Deref(String("x")))
	a.Equal(3, Deref(To(3)))
}
