package types

type BasePageData struct {
	Title string
}

type HomePageData struct {
	BasePageData
	Notice         string
	Error          string
	RecentListings []*DonationRecord
	TotalMeals     int
	OpenListings   int
}

// DonationCard is a browse-page row: the stored record plus the per-cycle
// derived presentation fields.
type DonationCard struct {
	DonationRecord
	DistanceKm  float64
	ExpiryLabel string
	StatusLabel string
	StatusClass string
}

type BrowsePageData struct {
	BasePageData
	Notice      string
	Error       string
	Donations   []*DonationCard
	Filters     FilterConfig
	HasLocation bool
}

type DonateFormData struct {
	ItemName     string `form:"item_name"`
	Meals        string `form:"meals"`
	VegNonVeg    string `form:"veg_non_veg"`
	PreparedOn   string `form:"prepared_on"`
	DurationHrs  string `form:"duration_hours"`
	Address      string `form:"address"`
	ContactName  string `form:"contact_name"`
	ContactPhone string `form:"contact_phone"`
}

type DonatePageData struct {
	BasePageData
	Form          DonateFormData
	FieldErrors   map[string]string
	Error         string
	PreparedDates []string
}
