package skill

import "math"

// Scale computes the damage of a skill with the given base value when cast
// with attribute: floor(base * max(1, ln(1 + attribute^0.2 / 2))), minimum 1.
func Scale(base, attribute int) int {
	factor := math.Max(1, math.Log(1+math.Pow(float64(max(attribute, 0)), 0.2)/2))
	return max(1, int(math.Floor(float64(base)*factor)))
}

// ApplyAffinity scales damage by the target's affinity to its type, minimum 1.
func ApplyAffinity(damage int, a Affinity, weak, resilient float64) int {
	switch a {
	case Weak:
		return max(1, int(float64(damage)*weak))
	case Resilient:
		return max(1, int(float64(damage)*resilient))
	}
	return damage
}
