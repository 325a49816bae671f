package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, CommitHash, info.CommitHash)
	assert.Equal(t, BuildTime, info.BuildTime)
}
