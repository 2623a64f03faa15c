package domain

// State is a federative unit (UF) from the geo-division lookup
type State struct {
	ID     int    `json:"id"`
	Abbrev string `json:"sigla"`
	Name   string `json:"nome"`
}

// City is a municipality of a State
type City struct {
	ID   int    `json:"id"`
	Name string `json:"nome"`
}
