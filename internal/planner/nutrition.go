package planner

// Trend compares a weekly total against its thresholds.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Grade is the letter summarizing macronutrient balance.
type Grade string

const (
	GradeA  Grade = "A"
	GradeB  Grade = "B"
	GradeC  Grade = "C"
	GradeNA Grade = "N/A"
)

// Calories per gram of each macronutrient.
const (
	kcalPerGramProtein = 4
	kcalPerGramCarb    = 4
	kcalPerGramFat     = 9
)

// Bounds are the lower and upper thresholds of one weekly total.
type Bounds struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Trend classifies v: up above Upper, down below Lower, stable otherwise.
func (b Bounds) Trend(v float64) Trend {
	switch {
	case v > b.Upper:
		return TrendUp
	case v < b.Lower:
		return TrendDown
	}
	return TrendStable
}

// Thresholds hold the weekly trend bounds per macro.
type Thresholds struct {
	Calories Bounds `json:"calories"`
	Proteins Bounds `json:"proteins"`
	Carbs    Bounds `json:"carbs"`
	Fats     Bounds `json:"fats"`
}

// referenceHousehold is the household size the default thresholds describe.
const referenceHousehold = 2.0

// DefaultThresholds are tuned for a two-adult household.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Calories: Bounds{Lower: 10000, Upper: 14000},
		Proteins: Bounds{Lower: 350, Upper: 700},
		Carbs:    Bounds{Lower: 1000, Upper: 1750},
		Fats:     Bounds{Lower: 300, Upper: 550},
	}
}

// ForHousehold scales the thresholds to a household. Children count as half
// an adult. Empty households keep the thresholds unchanged.
func (t Thresholds) ForHousehold(adults, children int) Thresholds {
	size := float64(adults) + 0.5*float64(children)
	if size <= 0 {
		return t
	}
	f := size / referenceHousehold
	scale := func(b Bounds) Bounds { return Bounds{Lower: b.Lower * f, Upper: b.Upper * f} }
	return Thresholds{
		Calories: scale(t.Calories),
		Proteins: scale(t.Proteins),
		Carbs:    scale(t.Carbs),
		Fats:     scale(t.Fats),
	}
}

// Band is an inclusive percentage range.
type Band struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (b Band) contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// ScoreBands are the caloric-share ranges of one grade.
type ScoreBands struct {
	Proteins Band `json:"proteins"`
	Carbs    Band `json:"carbs"`
	Fats     Band `json:"fats"`
}

func (s ScoreBands) contains(sh MacroShares) bool {
	return s.Proteins.contains(sh.Proteins) && s.Carbs.contains(sh.Carbs) && s.Fats.contains(sh.Fats)
}

var (
	gradeABands = ScoreBands{Proteins: Band{10, 35}, Carbs: Band{45, 65}, Fats: Band{20, 35}}
	gradeBBands = ScoreBands{Proteins: Band{5, 40}, Carbs: Band{35, 75}, Fats: Band{15, 45}}
)

// MacroShares are the percentages of total calories coming from each macro.
type MacroShares struct {
	Proteins float64 `json:"proteins"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

// Shares computes caloric shares. Zero calories yields zero shares.
func Shares(calories, proteins, carbs, fats float64) MacroShares {
	if calories <= 0 {
		return MacroShares{}
	}
	return MacroShares{
		Proteins: proteins * kcalPerGramProtein / calories * 100,
		Carbs:    carbs * kcalPerGramCarb / calories * 100,
		Fats:     fats * kcalPerGramFat / calories * 100,
	}
}

// Score grades a set of totals: A in the ideal bands, B in the wider
// bands, C otherwise. Totals without calories grade N/A.
func Score(calories, proteins, carbs, fats float64) Grade {
	if calories <= 0 {
		return GradeNA
	}
	sh := Shares(calories, proteins, carbs, fats)
	switch {
	case gradeABands.contains(sh):
		return GradeA
	case gradeBBands.contains(sh):
		return GradeB
	}
	return GradeC
}

// Trends holds one trend per weekly total.
type Trends struct {
	Calories Trend `json:"calories"`
	Proteins Trend `json:"proteins"`
	Carbs    Trend `json:"carbs"`
	Fats     Trend `json:"fats"`
}

// NutritionalStats summarizes the recipes of a plan.
type NutritionalStats struct {
	Calories       float64     `json:"calories"`
	Proteins       float64     `json:"proteins"`
	Carbs          float64     `json:"carbs"`
	Fats           float64     `json:"fats"`
	TotalPrepTime  int         `json:"total_prep_time"` // minutes
	TotalRecipes   int         `json:"total_recipes"`
	NutritionScore Grade       `json:"nutrition_score"`
	Shares         MacroShares `json:"shares"`
	Trends         Trends      `json:"trends"`
}

// Aggregate sums every recipe of the plan whose day passes include.
// A nil include keeps every day. With no recipe selected all trends are stable.
func Aggregate(plan WeeklyPlan, th Thresholds, include func(day string) bool) NutritionalStats {
	var s NutritionalStats
	for day, dp := range plan {
		if include != nil && !include(day) {
			continue
		}
		for _, r := range dp.Recipes() {
			s.Calories += r.Nutrition.Calories
			s.Proteins += r.Nutrition.Proteins
			s.Carbs += r.Nutrition.Carbs
			s.Fats += r.Nutrition.Fats
			s.TotalPrepTime += r.PrepMinutes()
			s.TotalRecipes++
		}
	}

	s.NutritionScore = Score(s.Calories, s.Proteins, s.Carbs, s.Fats)
	s.Shares = Shares(s.Calories, s.Proteins, s.Carbs, s.Fats)

	if s.TotalRecipes == 0 {
		s.Trends = Trends{Calories: TrendStable, Proteins: TrendStable, Carbs: TrendStable, Fats: TrendStable}
		return s
	}
	s.Trends = Trends{
		Calories: th.Calories.Trend(s.Calories),
		Proteins: th.Proteins.Trend(s.Proteins),
		Carbs:    th.Carbs.Trend(s.Carbs),
		Fats:     th.Fats.Trend(s.Fats),
	}
	return s
}
