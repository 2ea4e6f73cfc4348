package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogger(t *testing.T) {
	require.NoError(t, SetupLogger("debug", "json"))
	require.NoError(t, SetupLogger("info", "console"))

	assert.Error(t, SetupLogger("verbose", "json"), "unknown level is rejected")
	assert.Error(t, SetupLogger("info", "xml"), "unknown format is rejected")
}
