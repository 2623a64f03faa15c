package domain

// CategoryID identifies one collection-item category issued by the backend catalog.
type CategoryID int

// Item is a collection-item category as served by GET items
type Item struct {
	ID       CategoryID `json:"id"`
	Title    string     `json:"title"`
	ImageURL string     `json:"image_url"`
}
