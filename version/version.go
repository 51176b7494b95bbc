// Package version holds the restie release number and the licenses of the
// modules it ships with.
package version

import "fmt"

// Version represents a version of restie
type Version struct {
	major int
	minor int
	patch int
}

func (v *Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

// UserAgent is the User-Agent sent by the command line client.
func (v *Version) UserAgent() string {
	return "restie/" + v.String()
}

// Current returns current version of restie
func Current() *Version {
	return &Version{major: 0, minor: 1, patch: 0}
}
