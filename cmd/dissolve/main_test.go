package main

import (
	"testing"

	"github.com/disorderedmaterials/dissolve-sub013/dsio"
	"github.com/disorderedmaterials/dissolve-sub013/sq"
)

func dummyData(v float64) *dsio.Data1D {
	d := dsio.New("x")
	d.AddPoint(0, v)
	return d
}

func TestNormalisationForMapsKnownNames(t *testing.T) {
	cases := map[string]sq.XRayNormalisation{
		"":                sq.XRayNoNormalisation,
		"none":            sq.XRayNoNormalisation,
		"average_squared": sq.XRayAverageSquared,
		"squared_average": sq.XRaySquaredAverage,
		"garbage":         sq.XRayNoNormalisation,
	}
	for name, want := range cases {
		if got := normalisationFor(name); got != want {
			t.Errorf("normalisationFor(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestBoundOnlySQSetReplacesFullWithBound(t *testing.T) {
	set := &sq.SQSet{Pairs: map[[2]int]sq.PairSQ{
		{0, 0}: {Bound: dummyData(1.0), Unbound: dummyData(2.0), Full: dummyData(3.0)},
	}}
	bound := boundOnlySQSet(set)
	pair := bound.Pairs[[2]int{0, 0}]
	if pair.Full != pair.Bound {
		t.Fatal("boundOnlySQSet() did not alias Full to Bound")
	}
}
