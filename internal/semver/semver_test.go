package semver

import (
	"errors"
	"testing"
)

func TestParseValid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want Version
	}{
		{"1.2.3", Version{1, 2, 3, -1}},
		{"0.0.0", Version{0, 0, 0, -1}},
		{"1.2.3.dev0", Version{1, 2, 3, 0}},
		{"2.0.0.dev3", Version{2, 0, 0, 3}},
		{"10.20.30.dev99", Version{10, 20, 30, 99}},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"", "1", "1.2", "1.2.3.4", "1.2.3.4.5",
		"a.b.c", "1.2.x", "-1.2.3", "1.2.3.rc1",
		"1.2.3.dev", "1.2.3.dev-1", "1.2.3.devx",
		"1.2.3-dev1", "v1.2.3",
	} {
		_, err := Parse(in)
		if err == nil {
			t.Errorf("Parse(%q): want error, got nil", in)
			continue
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("Parse(%q): want *ParseError, got %T", in, err)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"1.2.3", "0.1.0", "1.2.3.dev0", "9.9.9.dev42"} {
		v, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		if v.String() != s {
			t.Errorf("Parse(%q).String() = %q", s, v.String())
		}
	}
}

func TestBump(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		part Part
		want string
	}{
		{"1.4.9", PartMinor, "1.5.0"},
		{"1.4.9", PartPatch, "1.4.10"},
		{"1.4.9", PartMajor, "2.0.0"},
		{"1.5.0", PartDev, "1.5.0.dev1"},
		{"2.0.0.dev3", PartDev, "2.0.0.dev4"},
		{"1.2.3.dev7", PartPatch, "1.2.4"},
		{"1.2.3.dev7", PartMinor, "1.3.0"},
		{"1.2.3.dev7", PartMajor, "2.0.0"},
	}
	for _, tc := range cases {
		v, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		got, err := v.Bump(tc.part)
		if err != nil {
			t.Fatalf("Bump(%q, %s): %v", tc.in, tc.part, err)
		}
		if got.String() != tc.want {
			t.Errorf("Bump(%q, %s) = %q, want %q", tc.in, tc.part, got, tc.want)
		}
	}
}

func TestBumpMonotonic(t *testing.T) {
	t.Parallel()

	versions := []string{"0.0.0", "1.2.3", "1.2.3.dev0", "4.5.6.dev9"}
	for _, s := range versions {
		v, _ := Parse(s)
		for _, part := range []Part{PartPatch, PartMinor, PartMajor} {
			next, err := v.Bump(part)
			if err != nil {
				t.Fatal(err)
			}
			if next.Compare(v) <= 0 {
				t.Errorf("Bump(%s, %s) = %s, not greater than input", v, part, next)
			}
		}
	}
}

func TestDevBumpCounterGrowth(t *testing.T) {
	t.Parallel()

	v, _ := Parse("1.5.0")
	one, _ := v.Bump(PartDev)
	two, _ := one.Bump(PartDev)
	if one.Dev != 1 || two.Dev != 2 {
		t.Errorf("dev sequence from final release = %d, %d; want 1, 2", one.Dev, two.Dev)
	}

	v, _ = Parse("1.5.0.dev4")
	one, _ = v.Bump(PartDev)
	two, _ = one.Bump(PartDev)
	if two.Dev != v.Dev+2 {
		t.Errorf("double dev bump of dev%d = dev%d, want dev%d", v.Dev, two.Dev, v.Dev+2)
	}
}

func TestStartNextDevCycle(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"1.5.0", "1.5.1.dev0"},
		{"2.0.0.dev3", "2.0.1.dev0"},
		{"0.9.9", "0.9.10.dev0"},
	}
	for _, tc := range cases {
		v, _ := Parse(tc.in)
		got := v.StartNextDevCycle()
		if got.String() != tc.want {
			t.Errorf("StartNextDevCycle(%q) = %q, want %q", tc.in, got, tc.want)
		}
		if got.Dev != 0 {
			t.Errorf("StartNextDevCycle(%q).Dev = %d, want 0", tc.in, got.Dev)
		}
		patched, _ := v.Bump(PartPatch)
		if got.Major != patched.Major || got.Minor != patched.Minor || got.Patch != patched.Patch {
			t.Errorf("StartNextDevCycle(%q) release = %s, want release of %s", tc.in, got, patched)
		}
	}
}

func TestCompareOrdering(t *testing.T) {
	t.Parallel()

	ordered := []string{
		"0.9.9",
		"1.0.0.dev0",
		"1.0.0.dev1",
		"1.0.0",
		"1.0.1.dev0",
		"1.0.1",
		"1.1.0",
		"2.0.0",
	}
	for i := range ordered {
		for j := range ordered {
			a, _ := Parse(ordered[i])
			b, _ := Parse(ordered[j])
			want := cmpInt(i, j)
			if got := a.Compare(b); got != want {
				t.Errorf("Compare(%s, %s) = %d, want %d", a, b, got, want)
			}
		}
	}
}

func TestParsePart(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"patch", "minor", "major", "dev"} {
		if _, err := ParsePart(s); err != nil {
			t.Errorf("ParsePart(%q): %v", s, err)
		}
	}
	if _, err := ParsePart("premajor"); err == nil {
		t.Error("ParsePart(premajor): want error")
	}
}
