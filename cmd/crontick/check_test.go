package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCheckValidExpression(t *testing.T) {
	var out strings.Builder

	err := runCheck(&out, "*/15 9-17 * * Mon-Fri")
	require.NoError(t, err)
	assert.Equal(t, "00,15,30,45 09-17 * * 01-05\n", out.String())
}

func TestRunCheckCanonicalStar(t *testing.T) {
	var out strings.Builder

	err := runCheck(&out, "* * * * *")
	require.NoError(t, err)
	assert.Equal(t, "* * * * *\n", out.String())
}

func TestRunCheckInvalidExpression(t *testing.T) {
	var out strings.Builder

	err := runCheck(&out, "61 * * * *")
	require.Error(t, err)
	assert.Empty(t, out.String())
}
