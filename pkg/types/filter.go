package types

type SortKey string

const (
	SortByTime     SortKey = "time"
	SortByDistance SortKey = "distance"
	SortByMeals    SortKey = "meals"
)

func (k SortKey) Valid() bool {
	switch k {
	case SortByTime, SortByDistance, SortByMeals:
		return true
	}
	return false
}

// FilterConfig is the browse view's ephemeral filter and sort state.
type FilterConfig struct {
	SortBy   SortKey `json:"sortBy" form:"sort"`
	VegOnly  bool    `json:"vegOnly" form:"veg_only"`
	MinMeals int     `json:"minMeals" form:"min_meals"`
	Query    string  `json:"query" form:"q"`
}

func DefaultFilters() FilterConfig {
	return FilterConfig{
		SortBy:   SortByTime,
		MinMeals: 1,
	}
}
