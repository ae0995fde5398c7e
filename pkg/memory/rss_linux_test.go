package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatm(t *testing.T) {
	rss, err := parseStatm("2861 812 542 1 0 1017 0\n", 4096)
	require.NoError(t, err)
	assert.Equal(t, uint64(812*4096), rss)

	_, err = parseStatm("2861", 4096)
	assert.Error(t, err)

	_, err = parseStatm("2861 x 542", 4096)
	assert.Error(t, err)
}

func TestReadRuntime_ReportsCurrentAndPeakRSS(t *testing.T) {
	s, err := ReadRuntime()
	require.NoError(t, err)
	assert.NotZero(t, s.RSS)
	assert.NotZero(t, s.PeakRSS)
}
