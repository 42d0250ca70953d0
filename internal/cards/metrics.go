package cards

import "math"

// HealthMetrics are the derived numbers embedded in the health prompt and
// stored verbatim in the card's key findings. They are computed locally so
// the numeric ground truth is never solely AI-derived.
type HealthMetrics struct {
	BMI            float64 `json:"bmi"`
	BMR            int     `json:"bmr"`
	IdealWeightKg  float64 `json:"ideal_weight_kg"`
	ProteinTargetG float64 `json:"protein_target_g"`
}

// CalculateBMI returns weight / height_m^2, rounded to one decimal.
func CalculateBMI(weightKg, heightCm float64) float64 {
	if heightCm <= 0 {
		return 0
	}
	heightM := heightCm / 100
	return roundTo(weightKg/(heightM*heightM), 1)
}

// CalculateBMR computes the basal metabolic rate with the Mifflin-St Jeor
// equation, rounded half up to a whole calorie.
//
//	male:   10*weight + 6.25*height - 5*age + 5
//	female: 10*weight + 6.25*height - 5*age - 161
func CalculateBMR(gender string, weightKg, heightCm float64, age int) int {
	base := 10*weightKg + 6.25*heightCm - 5*float64(age)
	if gender == "male" {
		base += 5
	} else {
		base -= 161
	}
	return int(math.Floor(base + 0.5))
}

// CalculateIdealWeight returns 22.5 * height_m^2, rounded to one decimal.
func CalculateIdealWeight(heightCm float64) float64 {
	heightM := heightCm / 100
	return roundTo(22.5*heightM*heightM, 1)
}

// CalculateProteinTarget returns ideal weight * 1.4 grams, rounded to one decimal.
func CalculateProteinTarget(idealWeightKg float64) float64 {
	return roundTo(idealWeightKg*1.4, 1)
}

// DeriveHealthMetrics computes the full set of derived numbers for a client.
func DeriveHealthMetrics(gender string, weightKg, heightCm float64, age int) HealthMetrics {
	ideal := CalculateIdealWeight(heightCm)
	return HealthMetrics{
		BMI:            CalculateBMI(weightKg, heightCm),
		BMR:            CalculateBMR(gender, weightKg, heightCm, age),
		IdealWeightKg:  ideal,
		ProteinTargetG: CalculateProteinTarget(ideal),
	}
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}
