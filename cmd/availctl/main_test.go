package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunRejectsMissingTotalLength(t *testing.T) {
	err := run(&flags{})
	assert.Error(t, err)
}

func TestRunWithHaveAndFilter(t *testing.T) {
	err := run(&flags{
		blockLength:  100,
		totalLength:  1000,
		have:         []int{2},
		filterOffset: 250,
		filterLength: 300,
	})
	assert.NoError(t, err)
}

func TestRunWithBadPeerBitfieldHex(t *testing.T) {
	err := run(&flags{
		blockLength:  1,
		totalLength:  8,
		peerBitfield: "zz",
	})
	assert.Error(t, err)
}
