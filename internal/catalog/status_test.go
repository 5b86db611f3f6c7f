// internal/catalog/status_test.go
package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoanStatusChoices(t *testing.T) {
	require.Len(t, LoanStatusChoices, 4)
	assert.Equal(t, []Choice{
		{StatusMaintenance, "Maintenance"},
		{StatusOnLoan, "On loan"},
		{StatusAvailable, "Available"},
		{StatusReserved, "Reserved"},
	}, LoanStatusChoices)
	assert.Equal(t, StatusMaintenance, DefaultStatus)
}

func TestLoanStatusLabel(t *testing.T) {
	assert.Equal(t, "On loan", StatusOnLoan.Label())
	assert.Equal(t, "x", LoanStatus("x").Label())
}

func TestParseLoanStatus(t *testing.T) {
	for _, c := range LoanStatusChoices {
		got, err := ParseLoanStatus(string(c.Value))
		require.NoError(t, err)
		assert.Equal(t, c.Value, got)
	}

	for _, bad := range []string{"", "x", "A", "on loan", "mo"} {
		_, err := ParseLoanStatus(bad)
		assert.Error(t, err, bad)
	}
}

func TestRequiresMarkReturned(t *testing.T) {
	tests := []struct {
		from, to LoanStatus
		want     bool
	}{
		{StatusOnLoan, StatusAvailable, true},
		{StatusMaintenance, StatusAvailable, true},
		{StatusReserved, StatusAvailable, true},
		{StatusAvailable, StatusAvailable, false},
		{StatusAvailable, StatusOnLoan, false},
		{StatusOnLoan, StatusReserved, false},
		{StatusMaintenance, StatusOnLoan, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RequiresMarkReturned(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestPermissions(t *testing.T) {
	require.Len(t, Permissions, 1)
	assert.Equal(t, "catalog.can_mark_returned", Permissions[0].Codename)
	assert.Equal(t, "Set book as returned", Permissions[0].Name)
}
