package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseIntListParsesCommaSeparatedValues(t *testing.T) {
	got, err := parseIntList("3,3,3")
	require.NoError(t, err)
	require.Equal(t, []int{3, 3, 3}, got)
}

func TestParseIntListRejectsNonNumeric(t *testing.T) {
	_, err := parseIntList("3,x,3")
	require.Error(t, err)
}

func TestParseNetworkSettingParsesTwoFloats(t *testing.T) {
	cross, intra, err := parseNetworkSetting("125,250")
	require.NoError(t, err)
	require.Equal(t, 125.0, cross)
	require.Equal(t, 250.0, intra)
}

func TestParseNetworkSettingRejectsWrongArity(t *testing.T) {
	_, _, err := parseNetworkSetting("125")
	require.Error(t, err)
}

func TestParseNetworkSettingRejectsNonNumeric(t *testing.T) {
	_, _, err := parseNetworkSetting("fast,slow")
	require.Error(t, err)
}
