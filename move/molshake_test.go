package move

import (
	"math"
	"testing"
)

func TestRotationXYIsOrthonormal(t *testing.T) {
	m := rotationXY(37.0, -112.0)
	for i := 0; i < 3; i++ {
		normSq := m[i][0]*m[i][0] + m[i][1]*m[i][1] + m[i][2]*m[i][2]
		if math.Abs(normSq-1) > 1e-9 {
			t.Fatalf("row %d has squared norm %v, want 1", i, normSq)
		}
	}
}

func TestMolShakeTargetMoleculeIndicesFiltersBySpecies(t *testing.T) {
	cfg, _ := denseArgon(t, 6)
	cfg.Molecules[2].SpeciesName = "other"
	ms := NewMolShake()
	ms.RestrictToSpecies = []string{"other"}

	got := ms.targetMoleculeIndices(cfg)
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("targetMoleculeIndices() = %v, want [2]", got)
	}
}

func TestMolShakeAttemptsEveryMoleculeOncePerShake(t *testing.T) {
	cfg, potMap := denseArgon(t, 8)
	ms := NewMolShake()
	ms.NShakesPerMolecule = 2
	ms.Seed = 4

	res, err := ms.Run(cfg, potMap, nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	want := cfg.NMolecules() * ms.NShakesPerMolecule
	if res.NGeneralAttempts != want {
		t.Fatalf("NGeneralAttempts = %d, want %d", res.NGeneralAttempts, want)
	}
}

func TestMolShakeBumpsVersionOnlyWhenSomethingAccepted(t *testing.T) {
	cfg, potMap := denseArgon(t, 4)
	cfg.Temperature = 1e6
	ms := NewMolShake()
	ms.TranslationStepSize = 0.01
	ms.RotationStepSize = 1.0
	ms.NShakesPerMolecule = 2
	ms.Seed = 5

	before := cfg.ContentsVersion()
	res, err := ms.Run(cfg, potMap, nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !res.AnyMoved {
		t.Fatal("expected at least one accepted move at near-infinite temperature")
	}
	if cfg.ContentsVersion() == before {
		t.Fatal("expected ContentsVersion to increase after accepted moves")
	}
}
