package errors

import (
	stderr "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestError(t *testing.T) {
	e1 := New("cause1")
	e2 := New("cause2").Wrap(e1)
	e := New("dummy").Wrap(e2)
	e3 := e.Unwrap()
	assert.True(t, Is(e, e1))
	assert.True(t, Is(e, e2))
	assert.True(t, e3 == e2)
	assert.Equal(t, "dummy: cause2: cause1", e.Error())
}

func TestWrapLeavesSentinelIntact(t *testing.T) {
	sentinel := New("sentinel")
	cause := stderr.New("io failure")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := sentinel.Wrap(cause)
			assert.True(t, Is(w, sentinel))
			assert.True(t, Is(w, cause))
		}()
	}
	wg.Wait()

	assert.Nil(t, sentinel.Unwrap())
	assert.Equal(t, "sentinel", sentinel.Error())
	assert.False(t, Is(sentinel, New("sentinel")))
}

func TestWrapMessage(t *testing.T) {
	sentinel := New("invalid")
	err := sentinel.WrapMessage("path %q", "a b")
	assert.True(t, Is(err, sentinel))
	assert.Equal(t, `invalid: path "a b"`, err.Error())
}

func TestWrapWithLog(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	l := zap.New(core)

	sentinel := New("backend failure")
	err := sentinel.WrapWithLog(l, stderr.New("disk full"), zap.String("key", "a/b"))
	require.True(t, Is(err, sentinel))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "backend failure", entries[0].Message)
	assert.Equal(t, "a/b", entries[0].ContextMap()["key"])
	assert.Equal(t, "disk full", entries[0].ContextMap()["error"])
}

func TestAs(t *testing.T) {
	var target *Error
	err := New("outer").Wrap(New("inner"))
	require.True(t, As(err, &target))
	assert.Equal(t, "outer: inner", target.Error())
}
