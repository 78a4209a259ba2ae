package scanner

import "testing"

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"tc-mapping", ModeTCMapping, false},
		{"ft-mapping", ModeFTMapping, false},
		{"ft-tc-mapping", ModeFTTCMapping, false},
		{"code-coverage", ModeCodeCoverage, false},
		{"feature-impl", ModeFeatureImpl, false},
		{"test-quality", ModeTestQuality, false},
		{"all", ModeAll, false},
		{" TC-Mapping ", ModeTCMapping, false},
		{"", "", true},
		{"coverage", "", true},
		{"tc_mapping", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMode(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMode(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestModeIsValid(t *testing.T) {
	for _, m := range Modes {
		if !m.IsValid() {
			t.Errorf("mode %q should be valid", m)
		}
	}
	if !ModeAll.IsValid() {
		t.Error("all should be valid")
	}
	if Mode("bogus").IsValid() {
		t.Error("bogus should be invalid")
	}
}
