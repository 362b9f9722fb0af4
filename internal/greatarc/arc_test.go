package greatarc

import (
	"errors"
	"math"
	"slices"
	"sync"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/soniakeys/unit"

	"github.com/litescript/ls-greatarc/internal/astro"
)

const eps = 1e-9

func deg(d float64) unit.Angle { return unit.AngleFromDeg(d) }

func unitPoint(lonDeg, latDeg float64) astro.Point {
	return astro.NewPoint(deg(lonDeg), deg(latDeg), astro.UnitSphere())
}

func assertSamePoint(t *testing.T, label string, got, want astro.Point) {
	t.Helper()
	if sep := got.Separation(want); sep.Rad() > eps {
		t.Errorf("%s = %v, want %v (separation %g rad)", label, got, want, sep.Rad())
	}
}

func mustArc(t *testing.T, start, end astro.Point, opts ...Option) *GreatArc {
	t.Helper()
	a, err := New(start, end, opts...)
	if err != nil {
		t.Fatalf("New(%v, %v) error: %v", start, end, err)
	}
	return a
}

func TestEndpointsPreserved(t *testing.T) {
	hpc := astro.NewHelioprojective(astro.AstronomicalUnit)

	tests := []struct {
		name       string
		start, end astro.Point
	}{
		{"equator", unitPoint(0, 0), unitPoint(90, 0)},
		{"over pole", unitPoint(-60, 70), unitPoint(120, 80)},
		{"small arc", unitPoint(10, 10), unitPoint(10.0001, 10.0001)},
		{"southern", unitPoint(-170, -45), unitPoint(170, -30)},
		{"disk offsets", astro.PointIn(astro.UnitArcsec, 735, -471, hpc), astro.PointIn(astro.UnitArcsec, -100, 800, hpc)},
		{"stonyhurst", astro.PointIn(astro.UnitDegree, -30, 20, astro.HeliographicStonyhurst()), astro.PointIn(astro.UnitDegree, 45, -10, astro.HeliographicStonyhurst())},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustArc(t, tt.start, tt.end)
			coords := slices.Collect(a.Coordinates())
			if len(coords) != DefaultPoints {
				t.Fatalf("len = %d, want %d", len(coords), DefaultPoints)
			}
			assertSamePoint(t, "first", coords[0], tt.start)
			assertSamePoint(t, "last", coords[len(coords)-1], tt.end)
			for i, c := range coords {
				if !c.Frame.Equal(tt.start.Frame) {
					t.Fatalf("coords[%d] frame = %s, want %s", i, c.Frame.Name(), tt.start.Frame.Name())
				}
			}
		})
	}
}

func TestInnerAnglesBounds(t *testing.T) {
	for _, n := range []int{2, 3, 10, 101} {
		a := mustArc(t, unitPoint(20, -10), unitPoint(-40, 35), WithPoints(n))
		angles := slices.Collect(a.InnerAngles())

		if len(angles) != n {
			t.Fatalf("n=%d: len = %d", n, len(angles))
		}
		if angles[0] != 0 {
			t.Errorf("n=%d: angles[0] = %v, want 0", n, angles[0])
		}
		if angles[n-1] != a.InnerAngle() {
			t.Errorf("n=%d: angles[last] = %v, want %v", n, angles[n-1], a.InnerAngle())
		}
		for i := 1; i < n; i++ {
			if angles[i] <= angles[i-1] {
				t.Errorf("n=%d: angles not strictly increasing at %d: %v <= %v", n, i, angles[i], angles[i-1])
			}
		}
	}
}

func TestInnerAngleMatchesSeparation(t *testing.T) {
	start, end := unitPoint(20, -10), unitPoint(-40, 35)
	a := mustArc(t, start, end)

	want := astro.AngularSeparation(start.Lon, start.Lat, end.Lon, end.Lat)
	if math.Abs(a.InnerAngle().Rad()-want.Rad()) > eps {
		t.Errorf("InnerAngle = %v°, want %v°", a.InnerAngle().Deg(), want.Deg())
	}
	if a.InnerAngle().Rad() < 0 || a.InnerAngle().Rad() > math.Pi {
		t.Errorf("minor arc angle %v outside [0, π]", a.InnerAngle())
	}
}

func TestSamplesOnGreatCircle(t *testing.T) {
	a := mustArc(t, unitPoint(-60, 70), unitPoint(120, 60), WithPoints(50))
	angles := slices.Collect(a.InnerAngles())
	start := slices.Collect(a.CartesianCoordinates())[0].Normalize()

	var normal r3.Vector
	for i, v := range slices.Collect(a.CartesianCoordinates()) {
		u := v.Normalize()
		if got := u.Angle(start).Radians(); math.Abs(got-angles[i].Rad()) > eps {
			t.Errorf("sample %d: angle from start = %v, want %v", i, got, angles[i].Rad())
		}
		if i == 1 {
			normal = start.Cross(u).Normalize()
		}
		if i > 1 && math.Abs(u.Dot(normal)) > eps {
			t.Errorf("sample %d off the arc plane by %g", i, u.Dot(normal))
		}
	}
}

func TestIdempotentCoordinates(t *testing.T) {
	a := mustArc(t, unitPoint(5, 5), unitPoint(80, -20), WithPoints(37))

	first := slices.Collect(a.Coordinates())
	second := slices.Collect(a.Coordinates())
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("coords[%d] differs between calls: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestSymmetry(t *testing.T) {
	start, end := unitPoint(-30, 10), unitPoint(75, 40)
	fwd := mustArc(t, start, end, WithPoints(21))
	rev, err := fwd.Reverse()
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}

	if math.Abs(fwd.InnerAngle().Rad()-rev.InnerAngle().Rad()) > eps {
		t.Errorf("angle_total differs: %v vs %v", fwd.InnerAngle(), rev.InnerAngle())
	}

	fc := slices.Collect(fwd.Coordinates())
	rc := slices.Collect(rev.Coordinates())
	fa := slices.Collect(fwd.InnerAngles())
	ra := slices.Collect(rev.InnerAngles())
	n := len(fc)
	for i := range n {
		assertSamePoint(t, "reversed point", rc[i], fc[n-1-i])
		want := fwd.InnerAngle() - fa[n-1-i]
		if math.Abs(ra[i].Rad()-want.Rad()) > eps {
			t.Errorf("reversed angle[%d] = %v, want %v", i, ra[i], want)
		}
	}
}

func TestDegenerateArc(t *testing.T) {
	p := unitPoint(0, 0)
	a := mustArc(t, p, p, WithPoints(7))

	if !a.Degenerate() {
		t.Error("Degenerate() = false, want true")
	}
	for i, c := range slices.Collect(a.Coordinates()) {
		if c != p {
			t.Errorf("coords[%d] = %v, want %v", i, c, p)
		}
	}
	angles := slices.Collect(a.InnerAngles())
	if len(angles) != 7 {
		t.Fatalf("len = %d, want 7", len(angles))
	}
	for i, ang := range angles {
		if ang != 0 {
			t.Errorf("angles[%d] = %v, want 0", i, ang)
		}
	}
	if a.Distance() != 0 {
		t.Errorf("Distance = %v, want 0", a.Distance())
	}
}

func TestStrictDistinct(t *testing.T) {
	p := unitPoint(12, 34)
	_, err := New(p, p, WithStrictDistinct())
	if !errors.Is(err, ErrDegenerateInput) {
		t.Errorf("err = %v, want ErrDegenerateInput", err)
	}

	if _, err := New(p, unitPoint(13, 34), WithStrictDistinct()); err != nil {
		t.Errorf("distinct points rejected: %v", err)
	}
}

func TestAntipodal(t *testing.T) {
	tests := []struct {
		name       string
		start, end astro.Point
	}{
		{"equator", unitPoint(0, 0), unitPoint(180, 0)},
		{"poles", unitPoint(0, 90), unitPoint(0, -90)},
		{"general", unitPoint(30, 20), unitPoint(-150, -20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.start, tt.end)
			if !errors.Is(err, ErrAntipodal) {
				t.Errorf("err = %v, want ErrAntipodal", err)
			}
		})
	}
}

func TestNearAntipodalAccepted(t *testing.T) {
	a := mustArc(t, unitPoint(0, 0), unitPoint(179.9, 0), WithPoints(3))
	mid := slices.Collect(a.Coordinates())[1]
	if math.Abs(mid.Lat.Deg()) > 1e-9 || math.Abs(mid.Lon.Deg()-89.95) > 1e-9 {
		t.Errorf("midpoint = %v, want (89.95°, 0°)", mid)
	}
}

func TestQuarterCircle(t *testing.T) {
	start, end := unitPoint(0, 0), unitPoint(90, 0)
	a := mustArc(t, start, end, WithPoints(3))

	angles := slices.Collect(a.InnerAngles())
	for i, want := range []float64{0, 45, 90} {
		if math.Abs(angles[i].Deg()-want) > 1e-9 {
			t.Errorf("angles[%d] = %v°, want %v°", i, angles[i].Deg(), want)
		}
	}

	cart := slices.Collect(a.CartesianCoordinates())
	mid := cart[1].Normalize()
	cos45 := math.Cos(math.Pi / 4)
	for _, v := range []r3.Vector{cart[0], cart[2]} {
		if got := mid.Dot(v.Normalize()); math.Abs(got-cos45) > 1e-12 {
			t.Errorf("midpoint · endpoint = %v, want %v", got, cos45)
		}
	}

	midPoint := slices.Collect(a.Coordinates())[1]
	if math.Abs(midPoint.Lon.Deg()-45) > 1e-9 || math.Abs(midPoint.Lat.Deg()) > 1e-9 {
		t.Errorf("midpoint = %v, want (45°, 0°)", midPoint)
	}
}

func TestScalingInvariance(t *testing.T) {
	start, end := unitPoint(-20, 15), unitPoint(60, -25)
	a := mustArc(t, start, end, WithPoints(11))
	b := mustArc(t, start, end, WithPoints(21))

	ac := slices.Collect(a.Coordinates())
	bc := slices.Collect(b.Coordinates())
	if ac[0] != bc[0] {
		t.Errorf("first point changed: %v vs %v", ac[0], bc[0])
	}
	if ac[len(ac)-1] != bc[len(bc)-1] {
		t.Errorf("last point changed: %v vs %v", ac[len(ac)-1], bc[len(bc)-1])
	}

	// Every sample of the coarse arc reappears at every other fine sample.
	aa := slices.Collect(a.InnerAngles())
	ba := slices.Collect(b.InnerAngles())
	for i := range ac {
		assertSamePoint(t, "coarse sample", bc[2*i], ac[i])
		if math.Abs(ba[2*i].Rad()-aa[i].Rad()) > eps {
			t.Errorf("angle[%d] = %v, fine angle[%d] = %v", i, aa[i], 2*i, ba[2*i])
		}
	}
}

func TestFrameMismatch(t *testing.T) {
	hpc := astro.NewHelioprojective(astro.AstronomicalUnit)
	other := astro.NewHelioprojective(astro.LengthFromAU(0.5))

	tests := []struct {
		name       string
		start, end astro.Point
		opts       []Option
	}{
		{"different variants", unitPoint(0, 0), astro.NewPoint(0, 0, hpc), nil},
		{"different observers", astro.NewPoint(0, 0, hpc), astro.NewPoint(0.001, 0, other), nil},
		{"nil frame", astro.NewPoint(0, 0, nil), unitPoint(1, 1), nil},
		{"centre in other frame", unitPoint(0, 0), unitPoint(10, 0), []Option{WithCenter(astro.NewPoint(0, 0, hpc))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.start, tt.end, tt.opts...)
			if !errors.Is(err, ErrFrameMismatch) {
				t.Errorf("err = %v, want ErrFrameMismatch", err)
			}
		})
	}
}

func TestNonFinitePoints(t *testing.T) {
	hpc := astro.NewHelioprojective(astro.AstronomicalUnit)
	nan, inf := math.NaN(), math.Inf(1)

	tests := []struct {
		name       string
		start, end astro.Point
		opts       []Option
	}{
		{"nan lon", unitPoint(nan, 0), unitPoint(10, 0), nil},
		{"nan lat", unitPoint(0, 0), unitPoint(10, nan), nil},
		{"infinite lon", unitPoint(inf, 0), unitPoint(10, 0), nil},
		{"infinite distance", unitPoint(0, 0).WithDistance(astro.Length(inf)), unitPoint(10, 0), nil},
		{"nan distance", unitPoint(0, 0), unitPoint(10, 0).WithDistance(astro.Length(nan)), nil},
		{"nan disk offset", astro.NewPoint(unit.Angle(nan), 0, hpc), astro.NewPoint(0, 0, hpc), nil},
		{"nan centre", unitPoint(0, 0), unitPoint(10, 0), []Option{WithCenter(unitPoint(nan, 0))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(tt.start, tt.end, append([]Option{WithPoints(3)}, tt.opts...)...)
			if !errors.Is(err, ErrInvalidPoint) {
				t.Errorf("err = %v, want ErrInvalidPoint", err)
			}
			if a != nil {
				t.Error("arc returned with error")
			}
		})
	}
}

func TestInvalidSampleSpec(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero points", WithPoints(0)},
		{"one point", WithPoints(1)},
		{"negative", WithPoints(-5)},
		{"no fractions", WithFractions()},
		{"single fraction", WithFractions(0.5)},
		{"fraction above one", WithFractions(0, 1.5)},
		{"negative fraction", WithFractions(-0.1, 1)},
		{"decreasing", WithFractions(0, 0.6, 0.4, 1)},
		{"nan", WithFractions(0, math.NaN())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(unitPoint(0, 0), unitPoint(10, 0), tt.opt)
			if !errors.Is(err, ErrInvalidSampleCount) {
				t.Errorf("err = %v, want ErrInvalidSampleCount", err)
			}
		})
	}
}

func TestFractions(t *testing.T) {
	a := mustArc(t, unitPoint(0, 0), unitPoint(80, 0), WithFractions(0.25, 0.5, 0.5, 1))
	angles := slices.Collect(a.InnerAngles())
	want := []float64{20, 40, 40, 80}
	if len(angles) != len(want) {
		t.Fatalf("len = %d, want %d", len(angles), len(want))
	}
	for i := range want {
		if math.Abs(angles[i].Deg()-want[i]) > 1e-9 {
			t.Errorf("angles[%d] = %v°, want %v°", i, angles[i].Deg(), want[i])
		}
	}
}

func TestRadiusInterpolation(t *testing.T) {
	start := unitPoint(0, 0).WithDistance(1)
	end := unitPoint(90, 0).WithDistance(3)
	a := mustArc(t, start, end, WithPoints(5))

	wantR := []float64{1, 1.5, 2, 2.5, 3}
	for i, p := range slices.Collect(a.Coordinates()) {
		if math.Abs(p.Distance.Km()-wantR[i]) > 1e-12 {
			t.Errorf("radius[%d] = %v, want %v", i, p.Distance.Km(), wantR[i])
		}
	}
	if math.Abs(a.Radius().Km()-1) > 1e-12 || math.Abs(a.EndRadius().Km()-3) > 1e-12 {
		t.Errorf("radii = %v, %v, want 1, 3", a.Radius(), a.EndRadius())
	}
}

func TestDistancesConstantRadius(t *testing.T) {
	stony := astro.HeliographicStonyhurst()
	start := astro.PointIn(astro.UnitDegree, 0, 0, stony)
	end := astro.PointIn(astro.UnitDegree, 60, 0, stony)
	a := mustArc(t, start, end, WithPoints(4))

	dists := slices.Collect(a.Distances())
	for i, d := range dists {
		want := astro.SolarRadius.Km() * float64(i) * (math.Pi / 9)
		if math.Abs(d.Km()-want) > 1e-6 {
			t.Errorf("distance[%d] = %v km, want %v km", i, d.Km(), want)
		}
	}
	if math.Abs(a.Distance().Km()-astro.SolarRadius.Km()*math.Pi/3) > 1e-6 {
		t.Errorf("Distance = %v", a.Distance())
	}
}

func TestDistancesVaryingRadius(t *testing.T) {
	start := unitPoint(0, 0).WithDistance(2)
	end := unitPoint(120, 30).WithDistance(5)
	a := mustArc(t, start, end)

	// Polyline through densely sampled positions converges to the path length.
	dense, err := a.Resample(WithPoints(20001))
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	var poly float64
	var prev r3.Vector
	for i, v := range slices.Collect(dense.CartesianCoordinates()) {
		if i > 0 {
			poly += v.Sub(prev).Norm()
		}
		prev = v
	}
	if got := a.Distance().Km(); math.Abs(got-poly) > 1e-6*poly {
		t.Errorf("Distance = %v, polyline = %v", got, poly)
	}

	dists := slices.Collect(a.Distances())
	for i := 1; i < len(dists); i++ {
		if dists[i] <= dists[i-1] {
			t.Fatalf("distances not increasing at %d", i)
		}
	}
}

func TestMajorArc(t *testing.T) {
	start, end := unitPoint(0, 0), unitPoint(90, 0)
	a := mustArc(t, start, end, WithMajorArc(), WithPoints(5))

	if !a.Major() {
		t.Error("Major() = false")
	}
	if math.Abs(a.InnerAngle().Deg()-270) > 1e-9 {
		t.Errorf("InnerAngle = %v°, want 270°", a.InnerAngle().Deg())
	}

	coords := slices.Collect(a.Coordinates())
	assertSamePoint(t, "first", coords[0], start)
	assertSamePoint(t, "last", coords[4], end)
	// Halfway along the major arc is opposite the minor-arc midpoint.
	assertSamePoint(t, "midpoint", coords[2], unitPoint(-135, 0))
}

func TestCenterOption(t *testing.T) {
	// Sphere of radius 1 centred at (0°, 0°, distance 2): start and end are
	// both one unit from it.
	frame := astro.UnitSphere()
	center := astro.NewPoint(0, 0, frame).WithDistance(2)
	start := astro.NewPoint(0, 0, frame).WithDistance(1)
	end := astro.NewPoint(0, 0, frame).WithDistance(3)

	// Start and end are antipodal about this centre.
	if _, err := New(start, end, WithCenter(center)); !errors.Is(err, ErrAntipodal) {
		t.Fatalf("err = %v, want ErrAntipodal", err)
	}

	end = astro.NewPoint(deg(30), 0, frame).WithDistance(astro.Length(math.Sqrt(3)))
	a := mustArc(t, start, end, WithCenter(center), WithPoints(3))
	if math.Abs(a.Radius().Km()-1) > 1e-12 || math.Abs(a.EndRadius().Km()-1) > 1e-12 {
		t.Errorf("radii = %v, %v, want 1, 1", a.Radius(), a.EndRadius())
	}
	if math.Abs(a.InnerAngle().Deg()-60) > 1e-9 {
		t.Errorf("InnerAngle = %v°, want 60°", a.InnerAngle().Deg())
	}
	if c := a.Center(); math.Abs(c.Distance.Km()-2) > 1e-12 {
		t.Errorf("Center = %v", c)
	}
	for i, v := range slices.Collect(a.CartesianCoordinates()) {
		if d := v.Sub(r3.Vector{X: 2}).Norm(); math.Abs(d-1) > 1e-12 {
			t.Errorf("sample %d is %v from centre, want 1", i, d)
		}
	}
}

func TestHelioprojectiveArcStaysOnSurface(t *testing.T) {
	hpc := astro.NewHelioprojective(astro.AstronomicalUnit)
	start := astro.PointIn(astro.UnitArcsec, 735, -471, hpc)
	end := astro.PointIn(astro.UnitArcsec, -100, 800, hpc)
	a := mustArc(t, start, end)

	for i, v := range slices.Collect(a.CartesianCoordinates()) {
		if r := v.Norm(); math.Abs(r-astro.SolarRadius.Km()) > 1e-4 {
			t.Errorf("sample %d radius = %v km, want solar radius", i, r)
		}
	}
	for i, p := range slices.Collect(a.Coordinates()) {
		if p.Distance <= 0 || p.Distance >= astro.AstronomicalUnit {
			t.Errorf("sample %d distance = %v, want between observer and Sun centre", i, p.Distance)
		}
	}
}

func TestOffDiskRejected(t *testing.T) {
	hpc := astro.NewHelioprojective(astro.AstronomicalUnit)
	_, err := New(astro.PointIn(astro.UnitArcsec, 2000, 0, hpc), astro.PointIn(astro.UnitArcsec, 0, 0, hpc))
	if !errors.Is(err, astro.ErrOffDisk) {
		t.Errorf("err = %v, want ErrOffDisk", err)
	}
}

func TestResampleKeepsOptions(t *testing.T) {
	a := mustArc(t, unitPoint(0, 0), unitPoint(90, 0), WithMajorArc(), WithPoints(5))
	b, err := a.Resample(WithPoints(9))
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if b.Len() != 9 || !b.Major() {
		t.Errorf("Resample: len = %d, major = %v", b.Len(), b.Major())
	}
	if a.Len() != 5 {
		t.Errorf("original modified: len = %d", a.Len())
	}
	if _, err := a.Resample(WithPoints(1)); !errors.Is(err, ErrInvalidSampleCount) {
		t.Errorf("err = %v, want ErrInvalidSampleCount", err)
	}
}

func TestSamplesZip(t *testing.T) {
	a := mustArc(t, unitPoint(10, 10), unitPoint(40, 50), WithPoints(8))
	coords := slices.Collect(a.Coordinates())
	angles := slices.Collect(a.InnerAngles())
	dists := slices.Collect(a.Distances())

	count := 0
	for i, s := range a.Samples() {
		if s.Point != coords[i] || s.InnerAngle != angles[i] || s.Distance != dists[i] {
			t.Errorf("sample %d inconsistent with accessors", i)
		}
		count++
	}
	if count != 8 {
		t.Errorf("Samples yielded %d, want 8", count)
	}
}

func TestIteratorEarlyStop(t *testing.T) {
	a := mustArc(t, unitPoint(0, 0), unitPoint(50, 0))
	n := 0
	for range a.Coordinates() {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Errorf("iterated %d, want 3", n)
	}
}

func TestConcurrentReaders(t *testing.T) {
	a := mustArc(t, unitPoint(-10, 5), unitPoint(70, 30), WithPoints(200))
	want := slices.Collect(a.Coordinates())

	var wg sync.WaitGroup
	errs := make(chan int, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := slices.Collect(a.Coordinates())
			for i := range got {
				if got[i] != want[i] {
					errs <- i
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for i := range errs {
		t.Errorf("concurrent read diverged at sample %d", i)
	}
}
