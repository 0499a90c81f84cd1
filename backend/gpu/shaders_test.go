package gpu

import "testing"

func TestCompileLadderFullQuality(t *testing.T) {
	f := newFakeContext()
	if _, err := f.Acquire(false); err != nil {
		t.Fatal(err)
	}

	sh, err := compileLadder(f)
	if err != nil {
		t.Fatalf("compileLadder error = %v", err)
	}
	if sh.tier != TierFull {
		t.Errorf("tier = %s, want full", sh.tier)
	}
	if sh.vertex == InvalidShader || sh.fragment == InvalidShader {
		t.Error("ladder returned invalid handles")
	}
	// Vertex first, then exactly one fragment attempt.
	want := []string{"vertex", "gradient-full"}
	if len(f.compiles) != len(want) {
		t.Fatalf("compiles = %v, want %v", f.compiles, want)
	}
	for i := range want {
		if f.compiles[i] != want[i] {
			t.Errorf("compile %d = %q, want %q", i, f.compiles[i], want[i])
		}
	}
}

func TestCompileLadderSettlesOnThirdTier(t *testing.T) {
	f := newFakeContext()
	f.failLabels["gradient-full"] = true
	f.failLabels["gradient-simplified"] = true
	if _, err := f.Acquire(false); err != nil {
		t.Fatal(err)
	}

	sh, err := compileLadder(f)
	if err != nil {
		t.Fatalf("compileLadder error = %v", err)
	}
	if sh.tier != TierBasic {
		t.Errorf("tier = %s, want basic", sh.tier)
	}
	want := []string{"vertex", "gradient-full", "gradient-simplified", "gradient-basic"}
	if len(f.compiles) != len(want) {
		t.Errorf("compiles = %v, want %v", f.compiles, want)
	}
}

func TestCompileLadderEmergencyLastRung(t *testing.T) {
	f := newFakeContext()
	f.failLabels["gradient-full"] = true
	f.failLabels["gradient-simplified"] = true
	f.failLabels["gradient-basic"] = true
	if _, err := f.Acquire(false); err != nil {
		t.Fatal(err)
	}

	sh, err := compileLadder(f)
	if err != nil {
		t.Fatalf("compileLadder error = %v", err)
	}
	if sh.tier != TierEmergency {
		t.Errorf("tier = %s, want emergency", sh.tier)
	}
}

func TestCompileLadderVertexFailureAborts(t *testing.T) {
	f := newFakeContext()
	f.failLabels["vertex"] = true
	if _, err := f.Acquire(false); err != nil {
		t.Fatal(err)
	}

	if _, err := compileLadder(f); err == nil {
		t.Fatal("vertex failure did not abort the ladder")
	}
	// No fragment rung may be attempted after the vertex stage fails.
	if len(f.compiles) != 1 {
		t.Errorf("compiles = %v, want vertex only", f.compiles)
	}
}

func TestCompileLadderAllFragmentsFail(t *testing.T) {
	f := newFakeContext()
	for _, rung := range fragmentLadder {
		f.failLabels[rung.label] = true
	}
	if _, err := f.Acquire(false); err != nil {
		t.Fatal(err)
	}

	if _, err := compileLadder(f); err == nil {
		t.Error("exhausted ladder did not error")
	}
}

func TestShaderSourcesEmbedded(t *testing.T) {
	for _, src := range []string{vertexWGSL, fragmentFullWGSL,
		fragmentSimplifiedWGSL, fragmentBasicWGSL, fragmentEmergencyWGSL} {
		if src == "" {
			t.Fatal("embedded shader source is empty")
		}
	}
}

func TestShaderTierString(t *testing.T) {
	for tier := TierFull; tier < numTiers; tier++ {
		if tier.String() == "unknown" {
			t.Errorf("tier %d has no name", tier)
		}
	}
}
