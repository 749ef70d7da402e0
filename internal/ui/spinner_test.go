package ui

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// syncBuffer is a bytes.Buffer safe for the spinner's animation goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestNewSpinner(t *testing.T) {
	s := NewSpinner("Fetching servers", &syncBuffer{})
	assert.Equal(t, "Fetching servers", s.Label())
	assert.Equal(t, SpinnerPending, s.State())
}

func TestSpinner_StartStop(t *testing.T) {
	out := &syncBuffer{}
	s := NewSpinner("Fetching", out)

	s.Start()
	s.Start() // second start is a no-op
	assert.Equal(t, SpinnerInProgress, s.State())
	time.Sleep(2 * spinnerTick)
	s.Stop()
	s.Stop()

	assert.Equal(t, SpinnerInProgress, s.State(), "Stop leaves the state alone")
	assert.Contains(t, out.String(), "Fetching...")
}

func TestSpinner_Success(t *testing.T) {
	out := &syncBuffer{}
	s := NewSpinner("Checking dashboard", out)

	s.Start()
	s.Success()

	assert.Equal(t, SpinnerSuccess, s.State())
	assert.True(t, strings.HasSuffix(out.String(), "s\n"))
	assert.Contains(t, out.String(), SymbolSuccess+" Checking dashboard ")
}

func TestSpinner_Fail(t *testing.T) {
	out := &syncBuffer{}
	s := NewSpinner("Checking dashboard", out)

	s.Start()
	s.Fail()

	assert.Equal(t, SpinnerFailed, s.State())
	assert.Contains(t, out.String(), SymbolFail+" Checking dashboard ")
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "0.05s", FormatElapsed(50*time.Millisecond))
	assert.Equal(t, "1.2s", FormatElapsed(1200*time.Millisecond))
}
