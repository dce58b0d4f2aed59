package version

import (
	"regexp"
	"strings"
	"testing"
)

// semverRegex validates semantic versioning format
var semverRegex = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

func TestVersion(t *testing.T) {
	if !semverRegex.MatchString(Version) {
		t.Errorf("Version %q does not match semver format (x.y.z)", Version)
	}
}

func TestString(t *testing.T) {
	s := String()
	if !strings.HasPrefix(s, "livescribe "+Version) {
		t.Errorf("String() = %q, want prefix %q", s, "livescribe "+Version)
	}
}
