// internal/catalog/status.go
package catalog

import "fmt"

// LoanStatus is the single-character availability code of a BookInstance.
type LoanStatus string

const (
	StatusMaintenance LoanStatus = "m"
	StatusOnLoan      LoanStatus = "o"
	StatusAvailable   LoanStatus = "a"
	StatusReserved    LoanStatus = "r"
)

// DefaultStatus is assigned to copies created without a status.
const DefaultStatus = StatusMaintenance

// Choice is a code/label pair for building select widgets.
type Choice struct {
	Value LoanStatus `json:"value"`
	Label string     `json:"label"`
}

// LoanStatusChoices lists every status in display order.
var LoanStatusChoices = []Choice{
	{StatusMaintenance, "Maintenance"},
	{StatusOnLoan, "On loan"},
	{StatusAvailable, "Available"},
	{StatusReserved, "Reserved"},
}

func (s LoanStatus) Label() string {
	for _, c := range LoanStatusChoices {
		if c.Value == s {
			return c.Label
		}
	}
	return string(s)
}

func (s LoanStatus) Valid() bool {
	for _, c := range LoanStatusChoices {
		if c.Value == s {
			return true
		}
	}
	return false
}

func ParseLoanStatus(code string) (LoanStatus, error) {
	s := LoanStatus(code)
	if !s.Valid() {
		return "", fmt.Errorf("unknown loan status %q", code)
	}
	return s, nil
}

// Permission is a named authorization capability checked by the
// presentation layer.
type Permission struct {
	Codename string `json:"codename"`
	Name     string `json:"name"`
}

// PermCanMarkReturned gates moving a copy back to Available.
const PermCanMarkReturned = "catalog.can_mark_returned"

var Permissions = []Permission{
	{Codename: PermCanMarkReturned, Name: "Set book as returned"},
}

// RequiresMarkReturned reports whether changing a copy from one status to
// another needs PermCanMarkReturned.
func RequiresMarkReturned(from, to LoanStatus) bool {
	return to == StatusAvailable && from != StatusAvailable
}
