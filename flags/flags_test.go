package flags

import (
	"reflect"
	"testing"
	"time"

	"github.com/nojima/restie/input"
	"github.com/nojima/restie/output"
)

func TestParse(t *testing.T) {
	args, _, optionSet, err := parse([]string{}, terminalInfo{
		stdinIsTerminal:  true,
		stdoutIsTerminal: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	var expectedArgs []string
	if !reflect.DeepEqual(expectedArgs, args) {
		t.Errorf("unexpected returned args: expected=%v, actual=%v", expectedArgs, args)
	}
	expectedOptionSet := &OptionSet{
		ClientOptions: ClientOptions{
			Timeout: 30 * time.Second,
		},
		OutputOptions: output.Options{
			PrintResponseHeader: true,
			PrintResponseBody:   true,
			EnableFormat:        true,
			EnableColor:         true,
		},
	}
	if !reflect.DeepEqual(expectedOptionSet, optionSet) {
		t.Errorf("unexpected option set: expected=\n%+v\nactual=\n%+v", expectedOptionSet, optionSet)
	}
}

func TestParse_Flags(t *testing.T) {
	args, _, optionSet, err := parse(
		[]string{"restie", "--form", "--verbose", "--timeout", "2.5", "--follow", "--auth", "alice:pw", "--debug", "POST", "example.com", "a=b"},
		terminalInfo{stdinIsTerminal: false, stdoutIsTerminal: false},
	)
	if err != nil {
		t.Fatalf("unexpected error: err=%+v", err)
	}

	expectedArgs := []string{"POST", "example.com", "a=b"}
	if !reflect.DeepEqual(expectedArgs, args) {
		t.Errorf("unexpected returned args: expected=%v, actual=%v", expectedArgs, args)
	}
	expectedOptionSet := &OptionSet{
		InputOptions: input.Options{Form: true, ReadStdin: true},
		ClientOptions: ClientOptions{
			Timeout:         2500 * time.Millisecond,
			FollowRedirects: true,
			Auth:            "alice:pw",
			Debug:           true,
		},
		OutputOptions: output.Options{
			PrintRequestHeader:  true,
			PrintRequestBody:    true,
			PrintResponseHeader: true,
			PrintResponseBody:   true,
		},
	}
	if !reflect.DeepEqual(expectedOptionSet, optionSet) {
		t.Errorf("unexpected option set: expected=\n%+v\nactual=\n%+v", expectedOptionSet, optionSet)
	}

	user, password, err := optionSet.ClientOptions.Credentials()
	if err != nil || user != "alice" || password != "pw" {
		t.Errorf("unexpected credentials: user=%s, password=%s, err=%v", user, password, err)
	}
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		title string
		args  []string
	}{
		{title: "Bad print flag", args: []string{"restie", "--print", "HX"}},
		{title: "Bad timeout", args: []string{"restie", "--timeout", "soon"}},
		{title: "Unknown flag", args: []string{"restie", "--no-such-flag"}},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			_, _, _, err := parse(tt.args, terminalInfo{stdinIsTerminal: true, stdoutIsTerminal: true})
			if err == nil {
				t.Errorf("expected error")
			}
		})
	}
}

func TestParseDurationOrSeconds(t *testing.T) {
	testCases := []struct {
		input    string
		expected time.Duration
	}{
		{input: "30", expected: 30 * time.Second},
		{input: "0.5", expected: 500 * time.Millisecond},
		{input: "1m30s", expected: 90 * time.Second},
	}
	for _, tt := range testCases {
		actual, err := parseDurationOrSeconds(tt.input)
		if err != nil || actual != tt.expected {
			t.Errorf("unexpected duration for %q: expected=%s, actual=%s, err=%v", tt.input, tt.expected, actual, err)
		}
	}
}
