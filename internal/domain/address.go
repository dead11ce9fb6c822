package domain

import "strings"

// Address holds the structured components of a street address.
type Address struct {
	Country string
	City    string
	Street  string
	House   string
}

// ParseAddress splits a single comma-separated line
// ("Country, City, Street, House") into its components. Missing trailing
// components are left empty; validity is decided by the validator, not here.
func ParseAddress(line string) Address {
	parts := strings.Split(line, ",")
	var addr Address
	for i, p := range parts {
		p = strings.TrimSpace(p)
		switch i {
		case 0:
			addr.Country = p
		case 1:
			addr.City = p
		case 2:
			addr.Street = p
		case 3:
			addr.House = p
		}
	}
	return addr
}

// Line renders the address back into its single-line form.
func (a Address) Line() string {
	return strings.Join([]string{a.Country, a.City, a.Street, a.House}, ", ")
}

// Normalized returns a canonical lowercase form used as a cache key.
func (a Address) Normalized() string {
	return strings.ToLower(strings.Join([]string{a.Country, a.City, a.Street, a.House}, "|"))
}
