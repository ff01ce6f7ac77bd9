package profile

import (
	"image/color"
	"testing"

	mandel "github.com/marben/gray_mandel"
)

func gray(p Profile, r mandel.Result, maxIter int) uint8 {
	return color.GrayModel.Convert(p.Color(r, maxIter)).(color.Gray).Y
}

func TestGrayProfiles_Monotonic(t *testing.T) {
	tests := []struct {
		name      string
		p         Profile
		bounded   uint8
		ascending bool
	}{
		{name: "gray", p: Gray{}, bounded: 0, ascending: true},
		{name: "log", p: LogGray{}, bounded: 0, ascending: true},
		{name: "inverted", p: Inverted{P: Gray{}}, bounded: 255, ascending: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, maxIter := range []int{1, 2, 16, 100, 1000} {
				if got := gray(tt.p, mandel.Bounded, maxIter); got != tt.bounded {
					t.Fatalf("maxIter %d: Bounded = %d, want %d", maxIter, got, tt.bounded)
				}
				prev := gray(tt.p, mandel.Escaped(1), maxIter)
				for n := 1; n <= maxIter; n++ {
					got := gray(tt.p, mandel.Escaped(n), maxIter)
					if got == tt.bounded {
						t.Fatalf("maxIter %d: Escaped(%d) = %d, same as Bounded", maxIter, n, got)
					}
					if tt.ascending && got < prev || !tt.ascending && got > prev {
						t.Fatalf("maxIter %d: Escaped(%d) = %d after %d", maxIter, n, got, prev)
					}
					prev = got
				}
			}
		})
	}
}

func TestGray_MatchesIntensity(t *testing.T) {
	for n := 0; n <= 50; n++ {
		r := mandel.Result(n)
		if got, want := gray(Gray{}, r, 50), mandel.Intensity(r, 50); got != want {
			t.Errorf("Gray(%v) = %d, want %d", r, got, want)
		}
	}
}

func TestLogGray_Endpoints(t *testing.T) {
	if got := gray(LogGray{}, mandel.Escaped(1), 1000); got != 1 {
		t.Errorf("Escaped(1) = %d, want 1", got)
	}
	if got := gray(LogGray{}, mandel.Escaped(1000), 1000); got != 255 {
		t.Errorf("Escaped(maxIter) = %d, want 255", got)
	}
	// low counts get more of the range than the linear scale gives them
	if lg, g := gray(LogGray{}, mandel.Escaped(10), 1000), gray(Gray{}, mandel.Escaped(10), 1000); lg <= g {
		t.Errorf("log level %d not above linear level %d", lg, g)
	}
}

func TestHue(t *testing.T) {
	black := color.RGBA{A: 255}
	if got := (Hue{}).Color(mandel.Bounded, 100); got != black {
		t.Errorf("Bounded = %v, want %v", got, black)
	}
	for n := 1; n <= 100; n++ {
		c := (Hue{}).Color(mandel.Escaped(n), 100).(color.RGBA)
		if c.A != 255 {
			t.Fatalf("Escaped(%d) alpha = %d", n, c.A)
		}
		if c == black {
			t.Fatalf("Escaped(%d) is black", n)
		}
	}
	if a, b := (Hue{Period: 10}).Color(mandel.Escaped(3), 0), (Hue{Period: 10}).Color(mandel.Escaped(13), 0); a != b {
		t.Errorf("period 10: %v != %v", a, b)
	}
}

func TestHSV(t *testing.T) {
	tests := []struct {
		h    float64
		want color.RGBA
	}{
		{h: 0, want: color.RGBA{255, 0, 0, 255}},
		{h: 1.0 / 3, want: color.RGBA{0, 255, 0, 255}},
		{h: 2.0 / 3, want: color.RGBA{0, 0, 255, 255}},
	}
	for _, tt := range tests {
		got := hsv(tt.h, 1, 1)
		// allow one step of rounding in the interpolated channel
		if diff(got.R, tt.want.R) > 1 || diff(got.G, tt.want.G) > 1 || diff(got.B, tt.want.B) > 1 {
			t.Errorf("hsv(%v) = %v, want %v", tt.h, got, tt.want)
		}
	}
}

func diff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func TestByName(t *testing.T) {
	for _, name := range Names() {
		if _, err := ByName(name); err != nil {
			t.Errorf("ByName(%q): %v", name, err)
		}
	}
	if _, err := ByName("sepia"); err == nil {
		t.Error("ByName(sepia) succeeded")
	}
	if got := len(Names()); got != 4 {
		t.Errorf("Names() has %d entries, want 4", got)
	}
}
