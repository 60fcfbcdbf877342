package logging

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerboseSuppressedByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerWithWriter(false, &buf)

	logger.Verbose("should not appear")
	assert.Empty(t, buf.String())

	logger.Info("plain message")
	assert.Equal(t, "plain message\n", buf.String())
}

func TestVerboseEnabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerWithWriter(true, &buf)

	logger.Verbose("bound connection to tenant %d", 4)
	assert.Equal(t, "[VERBOSE] bound connection to tenant 4\n", buf.String())
}

func TestErrorPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerWithWriter(false, &buf)

	logger.Error("batch %d failed", 2)
	assert.Equal(t, "[ERROR] batch 2 failed\n", buf.String())
}

func TestFormatVerbsInMessageWithoutArgs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerWithWriter(false, &buf)

	// A message containing % must not be mangled when no args are given.
	logger.Info("humidity at 45%")
	assert.Equal(t, "humidity at 45%\n", buf.String())
}

func TestConcurrentWritesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerWithWriter(false, &buf)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("0123456789")
		}()
	}
	wg.Wait()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	assert.Len(t, lines, 50)
	for _, line := range lines {
		assert.Equal(t, "0123456789", string(line))
	}
}

func TestNullLoggerDiscardsEverything(t *testing.T) {
	logger := NewNullLogger()
	logger.Verbose("x")
	logger.Info("y")
	logger.Error("z")
}
