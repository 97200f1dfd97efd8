package signalhandler

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetOptimalProcs(t *testing.T) {
	procs := GetOptimalProcs()
	assert.GreaterOrEqual(t, procs, 1)
	assert.LessOrEqual(t, procs, runtime.NumCPU())
}

func TestSetupHandlerCancel(t *testing.T) {
	ctx, cancel := SetupHandler(context.Background())
	assert.NoError(t, ctx.Err())

	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
