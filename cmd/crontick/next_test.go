package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunNext(t *testing.T) {
	var out strings.Builder
	base := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	err := runNext(&out, "30 14 * * *", base, 2)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "2024-03-01T14:30:00Z", lines[0])
	assert.Equal(t, "2024-03-02T14:30:00Z", lines[1])
}

func TestRunNextImpossibleDate(t *testing.T) {
	var out strings.Builder
	base := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	err := runNext(&out, "0 0 30 2 *", base, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no occurrence")
}

func TestRunNextBadCount(t *testing.T) {
	var out strings.Builder

	err := runNext(&out, "* * * * *", time.Now(), 0)
	assert.Error(t, err)
}

func TestRunNextInvalidExpression(t *testing.T) {
	var out strings.Builder

	err := runNext(&out, "* * *", time.Now(), 1)
	assert.Error(t, err)
}
