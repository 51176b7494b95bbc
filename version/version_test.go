package version

import (
	"strings"
	"testing"
)

func TestCurrent(t *testing.T) {
	v := Current()
	if v.String() != "0.1.0" {
		t.Errorf("unexpected version: expected=0.1.0, actual=%s", v.String())
	}
	if v.UserAgent() != "restie/0.1.0" {
		t.Errorf("unexpected user agent: %s", v.UserAgent())
	}
}

func TestPrintLicenses(t *testing.T) {
	var buffer strings.Builder
	PrintLicenses(&buffer)
	expected := "restie:\n  MIT License\n  https://github.com/nojima/restie/blob/master/LICENSE\n\n"
	if !strings.HasPrefix(buffer.String(), expected) {
		t.Errorf("unexpected output: actual=%s", buffer.String())
	}
	if strings.Count(buffer.String(), "\n\n") != len(Licenses) {
		t.Errorf("every license should be printed")
	}
}
