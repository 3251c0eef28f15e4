package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateCost_KnownModel(t *testing.T) {
	// (1000/1000)*0.003 + (2000/1000)*0.015
	assert.InDelta(t, 0.033, EstimateCost("claude-3-5-sonnet-20240620", 1000, 2000), 1e-9)

	// (500/1000)*0.0025 + (500/1000)*0.01
	assert.InDelta(t, 0.00625, EstimateCost("gpt-4o", 500, 500), 1e-9)
}

func TestEstimateCost_UnknownModel(t *testing.T) {
	assert.Zero(t, EstimateCost("llama-3-8b-local", 1000, 1000))
}

func TestEstimateCost_ZeroTokens(t *testing.T) {
	assert.Zero(t, EstimateCost("gpt-4o", 0, 0))
}
