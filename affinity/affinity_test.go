package affinity

import (
	"reflect"
	"testing"
)

func TestFormatAffinityList(t *testing.T) {
	cases := []struct {
		in   []int
		want string
	}{
		{[]int{0, 1, 2, 3}, "0-3"},
		{[]int{0, 2, 4}, "0,2,4"},
		{[]int{0, 1, 3, 4, 5}, "0-1,3-5"},
		{nil, "none"},
	}
	for _, c := range cases {
		if got := FormatAffinityList(c.in); got != c.want {
			t.Errorf("FormatAffinityList(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseAffinityString(t *testing.T) {
	cases := []struct {
		in   string
		want []int
	}{
		{"0-3", []int{0, 1, 2, 3}},
		{"0,2,4", []int{0, 2, 4}},
		{"0-1,3-5", []int{0, 1, 3, 4, 5}},
		{"none", nil},
		{"", nil},
	}
	for _, c := range cases {
		got, err := ParseAffinityString(c.in)
		if err != nil {
			t.Fatalf("ParseAffinityString(%q): %v", c.in, err)
		}
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("ParseAffinityString(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

// TestAffinityRoundTrip covers property 3: parse(format(cpus)) == cpus as
// a set, for non-empty sets drawn from [0,1024).
func TestAffinityRoundTrip(t *testing.T) {
	sets := [][]int{
		{0},
		{1023},
		{0, 1, 2, 3, 4, 5},
		{0, 5, 10, 512, 1023},
		{7, 8, 9, 100, 101, 102, 500},
	}
	for _, cpus := range sets {
		formatted := FormatAffinityList(cpus)
		parsed, err := ParseAffinityString(formatted)
		if err != nil {
			t.Fatalf("round trip %v: parse error: %v", cpus, err)
		}
		if !sameSet(parsed, cpus) {
			t.Errorf("round trip %v -> %q -> %v: not equal as sets", cpus, formatted, parsed)
		}
	}
}

func sameSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[int]bool, len(a))
	for _, v := range a {
		seen[v] = true
	}
	for _, v := range b {
		if !seen[v] {
			return false
		}
	}
	return true
}

func TestParseAffinityStringRejectsGarbage(t *testing.T) {
	cases := []string{"a-b", "3-1", "x", "1,,2"}
	for _, c := range cases {
		if _, err := ParseAffinityString(c); err != nil {
			continue // expected for most; "1,,2" tolerates empty segments
		}
		if c == "1,,2" {
			continue
		}
		t.Errorf("ParseAffinityString(%q) expected error, got none", c)
	}
}

func TestSetNiceValueValidatesRange(t *testing.T) {
	if err := SetNiceValue(1, 25); err == nil {
		t.Error("nice=25 should be rejected")
	}
	if err := SetNiceValue(1, -25); err == nil {
		t.Error("nice=-25 should be rejected")
	}
	var verr *ValidationError
	err := SetNiceValue(1, 25)
	if !isValidationError(err, &verr) {
		t.Errorf("expected *ValidationError, got %T", err)
	}
}

func isValidationError(err error, target **ValidationError) bool {
	ve, ok := err.(*ValidationError)
	if ok {
		*target = ve
	}
	return ok
}

// TestGetTTYName covers S3: TTY decode from tty_nr's major/minor encoding.
func TestGetTTYName(t *testing.T) {
	cases := []struct {
		ttyNr int
		want  string
	}{
		{34816, "pts/0"},
		{1024, "tty0"},
		{0, "?"},
	}
	for _, c := range cases {
		if got := GetTTYName(c.ttyNr); got != c.want {
			t.Errorf("GetTTYName(%d) = %q, want %q", c.ttyNr, got, c.want)
		}
	}
}

func TestKillProcessGroupRejectsNonPositive(t *testing.T) {
	if err := KillProcessGroup(0, SIGTERM); err == nil {
		t.Error("pgid=0 should be rejected")
	}
	if err := KillProcessGroup(-5, SIGTERM); err == nil {
		t.Error("negative pgid should be rejected")
	}
}
