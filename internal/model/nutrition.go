package model

// NutritionRecord is one row of the nutrition dataset. Calories and macros are per 100 g.
type NutritionRecord struct {
	FoodName string  `json:"food_name"`
	Calories float64 `json:"calories"`
	Macros   Macros  `json:"macros,omitempty"`
}

// MatchKind tells how a food query was resolved.
type MatchKind string

const (
	MatchExact     MatchKind = "exact"
	MatchSubstring MatchKind = "substring"
	MatchFuzzy     MatchKind = "fuzzy"
)

// NutritionMatch is a lookup result. Record is a copy; the index itself is never handed out.
type NutritionMatch struct {
	Record     NutritionRecord `json:"record"`
	Kind       MatchKind       `json:"kind"`
	Similarity float64         `json:"similarity"`
}

// Clone returns a deep copy of the record.
func (r NutritionRecord) Clone() NutritionRecord {
	out := r
	if r.Macros != nil {
		out.Macros = make(Macros, len(r.Macros))
		for k, v := range r.Macros {
			out.Macros[k] = v
		}
	}
	return out
}
