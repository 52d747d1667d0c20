package model

// Macro keys carried by a NutritionRecord, in display order.
const (
	MacroProtein = "protein"
	MacroCarbs   = "carbs"
	MacroFat     = "fat"
)

// MacroOrder is the order macros are listed in replies.
var MacroOrder = []string{MacroProtein, MacroCarbs, MacroFat}

// Macros maps a macro name to grams per 100 g. Absent keys mean the dataset had no value.
type Macros map[string]float64

// Get returns the value for name and whether the dataset provided it.
func (m Macros) Get(name string) (float64, bool) {
	v, ok := m[name]
	return v, ok
}
