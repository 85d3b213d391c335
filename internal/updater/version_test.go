package updater

import "testing"

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		name    string
		current string
		latest  string
		want    bool
	}{
		{"patch newer", "1.0.0", "1.0.1", true},
		{"minor newer", "1.0.0", "1.1.0", true},
		{"major newer", "1.9.9", "2.0.0", true},
		{"equal", "1.0.0", "1.0.0", false},
		{"older", "1.0.1", "1.0.0", false},
		{"shorter current padded", "1.2", "1.2.0", false},
		{"shorter latest padded", "1.2.0", "1.2", false},
		{"padded then newer", "1.2", "1.2.1", true},
		{"major beats long tail", "2.0", "1.9.9", false},
		{"prefix insensitive", "v1.0", "V1.1", true},
		{"both prefixed equal", "v1.0.0", "v1.0.0", false},
		{"non-numeric latest fails closed", "1.0.0", "1.0.x", false},
		{"non-numeric current fails closed", "abc", "1.0.0", false},
		{"empty strings fail closed", "", "", false},
		{"prerelease suffix fails closed", "1.0.0", "1.1.0-rc1", false},
		{"many components", "1.2.3.4", "1.2.3.5", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareVersions(tt.current, tt.latest); got != tt.want {
				t.Errorf("CompareVersions(%q, %q) = %v, want %v", tt.current, tt.latest, got, tt.want)
			}
		})
	}
}

func TestNormalizeVersion(t *testing.T) {
	if got := normalizeVersion("v1.2.3"); got != "1.2.3" {
		t.Errorf("normalizeVersion(v1.2.3) = %q", got)
	}
	if got := normalizeVersion("V2.0"); got != "2.0" {
		t.Errorf("normalizeVersion(V2.0) = %q", got)
	}
	if got := normalizeVersion("1.0"); got != "1.0" {
		t.Errorf("normalizeVersion(1.0) = %q", got)
	}
}
