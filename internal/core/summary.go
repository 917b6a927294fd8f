package core

// CategoryAmount is a total aggregated for one category.
type CategoryAmount struct {
	Category Category `json:"category"`
	Amount   Money    `json:"amount"`
}

// MonthTotal is the spending of one calendar month.
type MonthTotal struct {
	Year  int    `json:"year"`
	Month int    `json:"month"` // 1-12
	Label string `json:"label"` // e.g. "Jan 2025"
	Total Money  `json:"total"`
}
