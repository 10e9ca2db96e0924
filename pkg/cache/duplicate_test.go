package cache

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeen(t *testing.T) {
	logger, _ := test.NewNullLogger()

	c := NewDuplicateCache[string, struct{}](logger, time.Minute)
	require.NoError(t, c.Start(context.Background()))

	defer func() {
		require.NoError(t, c.Stop())
	}()

	assert.False(t, c.Seen("a", struct{}{}))
	assert.True(t, c.Seen("a", struct{}{}))
	assert.False(t, c.Seen("b", struct{}{}))
}

func TestSeenExpires(t *testing.T) {
	logger, _ := test.NewNullLogger()

	c := NewDuplicateCache[string, struct{}](logger, 50*time.Millisecond)
	require.NoError(t, c.Start(context.Background()))

	defer func() {
		require.NoError(t, c.Stop())
	}()

	assert.False(t, c.Seen("a", struct{}{}))

	time.Sleep(150 * time.Millisecond)

	assert.False(t, c.Seen("a", struct{}{}))
}
