package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/moodjournal/moodjournal/testing"
)

func TestPackageTestsRunInTestMode(t *testing.T) {
	require.True(t, InTestMode())
}

func TestRefreshTestMode(t *testing.T) {
	t.Cleanup(RefreshTestMode)

	t.Setenv(testModeEnv, "0")
	RefreshTestMode()
	require.False(t, InTestMode())

	t.Setenv(testModeEnv, "1")
	RefreshTestMode()
	require.True(t, InTestMode())
}
