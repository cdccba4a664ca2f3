// internal/nodeid/address.go
package nodeid

import "strconv"

// String serializes the Address into its canonical string representation.
func (a *Address) String() string {
	if a == nil {
		return ""
	}
	return a.Prefix + "_" + strconv.Itoa(a.Seq)
}

// Equal checks for equality between two Address pointers.
func (a *Address) Equal(other *Address) bool {
	if a == nil || other == nil {
		return a == other
	}
	return *a == *other
}
