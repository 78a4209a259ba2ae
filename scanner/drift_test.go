package scanner

import "testing"

func TestThresholdsClassify(t *testing.T) {
	thresholds := DefaultThresholds()

	tests := []struct {
		name    string
		percent float64
		want    DriftLevel
	}{
		{"zero", 0, DriftNone},
		{"negative clamps to none", -1, DriftNone},
		{"just above zero", 0.1, DriftLow},
		{"below low bound", 9.99, DriftLow},
		{"exactly low bound", 10, DriftMedium},
		{"inside medium band", 20, DriftMedium},
		{"exactly high bound", 25, DriftMedium},
		{"just above high bound", 25.01, DriftHigh},
		{"full drift", 100, DriftHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := thresholds.Classify(tt.percent); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.percent, got, tt.want)
			}
		})
	}
}

func TestThresholdsExitCode(t *testing.T) {
	thresholds := DefaultThresholds()

	tests := []struct {
		name    string
		percent float64
		want    int
	}{
		{"zero", 0, 0},
		{"below low bound", 9.99, 0},
		{"exactly low bound", 10, 1},
		{"inside medium band", 15, 1},
		{"exactly high bound", 25, 1},
		{"just above high bound", 25.01, 2},
		{"full drift", 100, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := thresholds.ExitCode(tt.percent); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.percent, got, tt.want)
			}
		})
	}
}

func TestThresholdsCustomBounds(t *testing.T) {
	thresholds := Thresholds{Low: 5, High: 50}

	if got := thresholds.Classify(7); got != DriftMedium {
		t.Errorf("Classify(7) with Low=5 = %v, want %v", got, DriftMedium)
	}
	if got := thresholds.ExitCode(50); got != 1 {
		t.Errorf("ExitCode(50) with High=50 = %d, want 1", got)
	}
	if got := thresholds.ExitCode(51); got != 2 {
		t.Errorf("ExitCode(51) with High=50 = %d, want 2", got)
	}
}

func TestExitErrorMessage(t *testing.T) {
	high := &ExitError{Code: 2, DriftPercent: 60, Level: DriftHigh}
	if high.Error() != "high drift detected: must fix before proceeding" {
		t.Errorf("unexpected high drift message: %q", high.Error())
	}

	medium := &ExitError{Code: 1, DriftPercent: 15, Level: DriftMedium}
	if medium.Error() != "moderate drift detected" {
		t.Errorf("unexpected moderate drift message: %q", medium.Error())
	}
}
