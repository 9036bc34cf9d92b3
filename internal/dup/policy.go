package dup

import "fmt"

// Policy selects which member of a duplicate group survives.
type Policy int

const (
	// DeleteOld removes everything but the newest file.
	DeleteOld Policy = iota

	// DeleteNew removes everything but the oldest file.
	DeleteNew
)

// survivor maps a policy to the index kept from a group sorted by ascending
// modification time.
var survivor = map[Policy]func(n int) int{
	DeleteOld: func(n int) int { return n - 1 },
	DeleteNew: func(n int) int { return 0 },
}

// ParsePolicy converts a flag value, "old" or "new", to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "old":
		return DeleteOld, nil
	case "new":
		return DeleteNew, nil
	}
	return 0, fmt.Errorf("invalid policy %q: must be one of old, new", s)
}

// Validate reports whether p is a known policy.
func (p Policy) Validate() error {
	if _, ok := survivor[p]; !ok {
		return fmt.Errorf("unknown policy %d", int(p))
	}
	return nil
}

// String returns the flag value for p.
func (p Policy) String() string {
	switch p {
	case DeleteOld:
		return "old"
	case DeleteNew:
		return "new"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// Describe names what the policy removes, for reports.
func (p Policy) Describe() string {
	if p == DeleteNew {
		return "newest"
	}
	return "oldest"
}

// Set implements pflag.Value.
func (p *Policy) Set(s string) error {
	v, err := ParsePolicy(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Type implements pflag.Value.
func (p *Policy) Type() string {
	return "old|new"
}
