package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "amountpastdue", NormalizeName(" Amount  Past Due "))
	require.Equal(t, "groupa", NormalizeName("Group\tA"))
	require.Equal(t, "", NormalizeName("   "))
}

func TestParseDollars(t *testing.T) {
	for input, want := range map[string]float64{
		"$1,234.56":   1234.56,
		"$0.00":       0,
		"1234.56":     1234.56,
		"$10,250.33 ": 10250.33,
	} {
		got, err := ParseDollars(input)
		require.NoError(t, err, input)
		require.InDelta(t, want, got, 0.0001, input)
	}

	_, err := ParseDollars("")
	require.Error(t, err)
	_, err = ParseDollars("$12.34 on 08/01/2026")
	require.Error(t, err)
}
