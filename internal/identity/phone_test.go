package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsPhoneShaped(t *testing.T) {
	cases := []struct {
		identifier string
		want       bool
	}{
		{"+923001234567", true},
		{"03001234567", true},
		{"3001234567", true},
		{"0300-1234567", true},
		{"+92 300 1234567", true},
		{"admin@school.com", false},
		{"12345", false},
		{"", false},
		{"+92300123456789012", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, IsPhoneShaped(tc.identifier), "identifier %q", tc.identifier)
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		identifier string
		want       string
	}{
		{"+923001234567", "+923001234567"},
		{"03001234567", "+923001234567"},
		{"3001234567", "+923001234567"},
		{"0300-1234567", "+923001234567"},
		{"923001234567", "+923001234567"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, NormalizePhone(tc.identifier), "identifier %q", tc.identifier)
	}
}

func TestFoldIdentifier(t *testing.T) {
	require.Equal(t, FoldIdentifier("Owner@School.PK"), FoldIdentifier("  owner@school.pk "))
	require.NotEqual(t, FoldIdentifier("a@b.pk"), FoldIdentifier("c@b.pk"))
}
