package service

import (
	"bytes"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/xiaot623/gogo/marketplace/internal/config"
)

type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func captureLog(t *testing.T) *logBuffer {
	t.Helper()
	b := &logBuffer{}
	log.SetOutput(b)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return b
}

func TestDebugLinesFollowLogLevel(t *testing.T) {
	out := captureLog(t)

	quiet := newTestService(t, testOptions{config: func(c *config.Config) { c.LogLevel = "info" }})
	quiet.submitAndWait(t, 1, "What is Polkadot?")
	assert.NotContains(t, out.String(), "DEBUG:")

	verbose := newTestService(t, testOptions{config: func(c *config.Config) { c.LogLevel = "debug" }})
	in := verbose.submitAndWait(t, 1, "What is Polkadot?")

	assert.Contains(t, out.String(), "DEBUG: query admitted agent=1 caller=wallet-1")
	assert.Contains(t, out.String(), "DEBUG: chain sink recorded query")
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "DEBUG: chain sink recorded response interaction="+strconv.FormatUint(in.InteractionID, 10))
	}, time.Second, 10*time.Millisecond)
}
