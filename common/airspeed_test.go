package common

import (
	"math"
	"testing"
)

func TestCalcIAS(t *testing.T) {
	cases := []struct {
		diffPressPa float64
		want        float64
	}{
		{0, 0},
		{100, math.Sqrt(200 / 1.225)},
		{-100, -math.Sqrt(200 / 1.225)},
		{612.5, math.Sqrt(1225 / 1.225)}, // exactly 31.6227... m/s
	}
	for _, c := range cases {
		if got := CalcIAS(c.diffPressPa); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("CalcIAS(%v) = %v, want %v", c.diffPressPa, got, c.want)
		}
	}
}

func TestCalcIASAntisymmetric(t *testing.T) {
	for _, dp := range []float64{1, 50, 500, 1500} {
		if got, want := CalcIAS(-dp), -CalcIAS(dp); got != want {
			t.Errorf("CalcIAS(-%v) = %v, want %v", dp, got, want)
		}
	}
}

func TestAirDensity(t *testing.T) {
	// ISA sea level: 101325 Pa at 15°C.
	got := AirDensity(101325, 15)
	want := 101325 / (287.1 * 288.15)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("AirDensity = %v, want %v", got, want)
	}
}

func TestTASGrowsWithAltitude(t *testing.T) {
	cas := 30.0
	sea := CalcTASFromCAS(cas, 101325, 15)
	fl100 := CalcTASFromCAS(cas, 69680, -5) // about 10000ft standard

	if sea < cas*0.99 || sea > cas*1.01 {
		t.Errorf("TAS at sea level = %v, want close to CAS %v", sea, cas)
	}
	if fl100 <= sea {
		t.Errorf("TAS at altitude (%v) not above sea level TAS (%v)", fl100, sea)
	}
}
