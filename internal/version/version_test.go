package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGet_ParsesBuildTime(t *testing.T) {
	original := BuildTime
	t.Cleanup(func() { BuildTime = original })

	BuildTime = "unknown"
	assert.True(t, Get().BuildDate.IsZero())

	BuildTime = "2024-06-01T12:00:00Z"
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), Get().BuildDate)
	assert.Contains(t, Get().String(), Version)
}
