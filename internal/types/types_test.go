package types

import (
	"testing"
)

func TestStatusIsValid(t *testing.T) {
	valid := []Status{StatusProposed, StatusDefined, StatusClarified, StatusImplemented, StatusQuarantined, StatusDeprecated}
	for _, s := range valid {
		if !s.IsValid() {
			t.Errorf("IsValid(%s) = false, want true", s)
		}
	}
	invalid := []Status{"", "open", "closed", "Proposed"}
	for _, s := range invalid {
		if s.IsValid() {
			t.Errorf("IsValid(%s) = true, want false", s)
		}
	}
}

func TestStatusIsValidWithCustom(t *testing.T) {
	custom := []string{"triaged", "parked"}
	if !Status("triaged").IsValidWithCustom(custom) {
		t.Error("custom status 'triaged' should be valid")
	}
	if Status("bogus").IsValidWithCustom(custom) {
		t.Error("unknown status 'bogus' should be invalid")
	}
	if !StatusDefined.IsValidWithCustom(custom) {
		t.Error("built-in status should stay valid with custom list")
	}
}

func TestTierIsValid(t *testing.T) {
	for _, tier := range []Tier{TierSmoke, TierRelease, TierRegression} {
		if !tier.IsValid() {
			t.Errorf("IsValid(%s) = false, want true", tier)
		}
	}
	if Tier("nightly").IsValid() {
		t.Error("IsValid(nightly) = true, want false")
	}
	if !Tier("nightly").IsValidWithCustom([]string{"nightly"}) {
		t.Error("custom tier 'nightly' should be valid")
	}
}

func TestTag(t *testing.T) {
	j := &Journey{ID: "JRN-0042"}
	if got := j.Tag(); got != "@JRN-0042" {
		t.Errorf("Tag() = %q, want @JRN-0042", got)
	}
}

func TestTestRefRoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		path string
		name string
	}{
		{"e2e/login.spec.ts", "e2e/login.spec.ts", ""},
		{"e2e/login.spec.ts#happy path", "e2e/login.spec.ts", "happy path"},
	}
	for _, tt := range tests {
		ref := ParseTestRef(tt.in)
		if ref.Path != tt.path || ref.Name != tt.name {
			t.Errorf("ParseTestRef(%q) = %+v, want path=%q name=%q", tt.in, ref, tt.path, tt.name)
		}
		if got := ref.String(); got != tt.in {
			t.Errorf("String() = %q, want %q", got, tt.in)
		}
	}
}

func TestComputeContentHashStable(t *testing.T) {
	j := &Journey{
		ID:     "JRN-0001",
		Title:  "Login with valid credentials",
		Status: StatusDefined,
		Tier:   TierSmoke,
		AcceptanceCriteria: []Criterion{
			{LocalID: "AC-1", Text: "user lands on dashboard"},
		},
		Steps: []string{"open login page", "submit credentials"},
	}
	h1 := j.ComputeContentHash()
	h2 := j.ComputeContentHash()
	if h1 != h2 {
		t.Errorf("hash not stable: %s != %s", h1, h2)
	}

	// ID and timestamps must not affect the hash.
	k := *j
	k.ID = "JRN-9999"
	if k.ComputeContentHash() != h1 {
		t.Error("hash should not depend on ID")
	}

	// Content changes must change the hash.
	k = *j
	k.Title = "Login with invalid credentials"
	if k.ComputeContentHash() == h1 {
		t.Error("hash should change when title changes")
	}
}

func TestSetDefaults(t *testing.T) {
	j := &Journey{Title: "x"}
	j.SetDefaults()
	if j.Status != StatusProposed {
		t.Errorf("Status = %s, want proposed", j.Status)
	}
	if j.Tier != TierRegression {
		t.Errorf("Tier = %s, want regression", j.Tier)
	}

	// Explicit values survive.
	j = &Journey{Title: "x", Status: StatusClarified, Tier: TierSmoke}
	j.SetDefaults()
	if j.Status != StatusClarified || j.Tier != TierSmoke {
		t.Errorf("SetDefaults overwrote explicit values: %s/%s", j.Status, j.Tier)
	}
}

func TestTierRankOrdering(t *testing.T) {
	if !(TierRank(TierSmoke) < TierRank(TierRelease) && TierRank(TierRelease) < TierRank(TierRegression)) {
		t.Error("built-in tier ranks out of order")
	}
	if TierRank(Tier("nightly")) <= TierRank(TierRegression) {
		t.Error("custom tiers must sort after built-ins")
	}
}
