package models

// Result is the readable content of one page
type Result struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Byline   string `json:"byline"`
	SiteName string `json:"site_name"`
	Text     string `json:"text"`
	Status   int    `json:"status"`
}
