package logging

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceConcurrentAppend(t *testing.T) {
	trace := NewTrace("img_test")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			trace.Step(fmt.Sprintf("step %d", n), map[string]interface{}{"n": n})
		}(i)
	}
	wg.Wait()

	entries := trace.Entries()
	require.Len(t, entries, 21)
	assert.Equal(t, CategorySystem, entries[0].Category)
	for _, e := range entries[1:] {
		assert.Equal(t, CategoryStep, e.Category)
		assert.GreaterOrEqual(t, e.ElapsedMs, 0.0)
	}
}

func TestTraceCounts(t *testing.T) {
	trace := NewTrace("img_counts")
	trace.Error("decode failed", nil)
	trace.Warning("slow", nil)
	trace.Warning("slower", nil)

	errs, warns := trace.Counts()
	assert.Equal(t, 1, errs)
	assert.Equal(t, 2, warns)
}

func TestTraceEntriesIsCopy(t *testing.T) {
	trace := NewTrace("img_copy")
	entries := trace.Entries()
	entries[0].Message = "changed"
	assert.NotEqual(t, "changed", trace.Entries()[0].Message)
}

func TestLoggerBeforeSetupIsNoop(t *testing.T) {
	assert.NotNil(t, Logger())
	LogInfo("no logger yet %d", 1)
	LogImageProcessed("a.jpg", false, "boom")
}
