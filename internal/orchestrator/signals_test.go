package orchestrator

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInterruptFlagSetsOnSignal(t *testing.T) {
	flag, stop := NewInterruptFlag()
	defer stop()

	assert.False(t, flag.Interrupted())

	self, err := os.FindProcess(os.Getpid())
	if err != nil {
		t.Fatalf("finding self: %v", err)
	}
	if err := self.Signal(syscall.SIGINT); err != nil {
		t.Fatalf("sending SIGINT: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for !flag.Interrupted() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	assert.True(t, flag.Interrupted())
}

func TestInterruptFlagStopRemovesHandler(t *testing.T) {
	flag, stop := NewInterruptFlag()
	stop()
	assert.False(t, flag.Interrupted())
}
