package math

import "testing"

func TestDivRoundUp(t *testing.T) {
	for _, tc := range []struct {
		a, b, wanted int
	}{
		{0, 8, 0},
		{1, 8, 1},
		{8, 8, 1},
		{9, 8, 2},
		{2000, 8192, 1},
	} {
		if found := DivRoundUp(tc.a, tc.b); found != tc.wanted {
			t.Fatalf(
				"DivRoundUp(%d, %d): wanted `%d`; found `%d`",
				tc.a,
				tc.b,
				tc.wanted,
				found,
			)
		}
	}
}

func TestMinMax(t *testing.T) {
	if found := Min(3, -1); found != -1 {
		t.Fatalf("Min(3, -1): wanted `-1`; found `%d`", found)
	}
	if found := Max(uint8(3), 7); found != 7 {
		t.Fatalf("Max(3, 7): wanted `7`; found `%d`", found)
	}
}
