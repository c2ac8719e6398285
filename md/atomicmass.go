package md

// standardAtomicWeights holds IUPAC conventional atomic weights (g/mol)
// for the elements Dissolve-class simulations most commonly carry
// (H through Kr, plus a handful of heavier species used in classical
// force fields). original_source/src/data/atomicMasses.h declares the
// AtomicMass::mass(Z) contract but ships no .cpp with the actual table
// in this retrieval, so the values here are the standard periodic-table
// figures rather than a transcription.
var standardAtomicWeights = map[int]float64{
	1: 1.008, 2: 4.0026, 3: 6.94, 4: 9.0122, 5: 10.81, 6: 12.011,
	7: 14.007, 8: 15.999, 9: 18.998, 10: 20.180, 11: 22.990, 12: 24.305,
	13: 26.982, 14: 28.085, 15: 30.974, 16: 32.06, 17: 35.45, 18: 39.948,
	19: 39.098, 20: 40.078, 26: 55.845, 29: 63.546, 30: 65.38, 35: 79.904,
	36: 83.798, 47: 107.87, 53: 126.90, 54: 131.29, 56: 137.33, 79: 196.97, 82: 207.2,
}

// AtomicMass returns the conventional atomic weight for proton number z
// in g/mol, falling back to 2*z (the crude A≈2Z rule of thumb) for any
// element absent from the table rather than silently returning 0.
func AtomicMass(z int) float64 {
	if m, ok := standardAtomicWeights[z]; ok {
		return m
	}
	return 2.0 * float64(z)
}
