package cards

import "testing"

func TestCalculateBMI(t *testing.T) {
	tests := []struct {
		weightKg float64
		heightCm float64
		want     float64
	}{
		{70, 170, 24.2},
		{60, 165, 22.0},
		{90, 180, 27.8},
		{70, 0, 0}, // guard against division by zero
	}
	for _, tt := range tests {
		if got := CalculateBMI(tt.weightKg, tt.heightCm); got != tt.want {
			t.Errorf("CalculateBMI(%g, %g) = %g, want %g", tt.weightKg, tt.heightCm, got, tt.want)
		}
	}
}

func TestCalculateBMR(t *testing.T) {
	tests := []struct {
		gender   string
		weightKg float64
		heightCm float64
		age      int
		want     int
	}{
		// 10*70 + 6.25*170 - 5*30 + 5 = 1617.5, rounds half up to 1618
		{"male", 70, 170, 30, 1618},
		// 10*60 + 6.25*165 - 5*25 - 161 = 1345.25, rounds to 1345
		{"female", 60, 165, 25, 1345},
		// unspecified gender falls through to the female constant
		{"", 60, 165, 25, 1345},
	}
	for _, tt := range tests {
		if got := CalculateBMR(tt.gender, tt.weightKg, tt.heightCm, tt.age); got != tt.want {
			t.Errorf("CalculateBMR(%s, %g, %g, %d) = %d, want %d", tt.gender, tt.weightKg, tt.heightCm, tt.age, got, tt.want)
		}
	}
}

func TestCalculateIdealWeightAndProtein(t *testing.T) {
	// 22.5 * 1.70^2 = 65.025 -> 65.0
	ideal := CalculateIdealWeight(170)
	if ideal != 65.0 {
		t.Errorf("CalculateIdealWeight(170) = %g, want 65.0", ideal)
	}
	// 65.0 * 1.4 = 91.0
	if got := CalculateProteinTarget(ideal); got != 91.0 {
		t.Errorf("CalculateProteinTarget(%g) = %g, want 91.0", ideal, got)
	}
}

func TestDeriveHealthMetrics(t *testing.T) {
	m := DeriveHealthMetrics("male", 70, 170, 30)
	if m.BMI != 24.2 {
		t.Errorf("BMI = %g, want 24.2", m.BMI)
	}
	if m.BMR != 1618 {
		t.Errorf("BMR = %d, want 1618", m.BMR)
	}
	if m.IdealWeightKg != 65.0 {
		t.Errorf("IdealWeightKg = %g, want 65.0", m.IdealWeightKg)
	}
	if m.ProteinTargetG != 91.0 {
		t.Errorf("ProteinTargetG = %g, want 91.0", m.ProteinTargetG)
	}
}
