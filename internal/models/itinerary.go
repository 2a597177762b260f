package models

// Trip plan shared to the subreddit
// Days, activities and tips are rendered in the order given
type Itinerary struct {
	Destination string   `json:"destination"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Days        []Day    `json:"days"`
	TravelTips  []string `json:"travelTips"`
}

type Day struct {
	Date       string     `json:"date"`
	Activities []Activity `json:"activities"`
}

type Activity struct {
	Time        string `json:"time"`
	Location    string `json:"location"`
	Duration    string `json:"duration"`
	Cost        string `json:"cost"`
	Description string `json:"description"`
	Tip         string `json:"tip,omitempty"`
}

type PublishResult struct {
	PostURL string

	// True when Reddit accepted the post but did not return its location
	Synthesized bool
}
