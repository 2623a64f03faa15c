package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Coordinate is a latitude or longitude. The backend may serialize it either
// as a JSON number or as a numeric string.
type Coordinate float64

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*c = 0
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("invalid coordinate %q: %w", s, err)
		}
		*c = Coordinate(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid coordinate %s: %w", data, err)
	}
	*c = Coordinate(f)
	return nil
}

func (c Coordinate) String() string {
	return strconv.FormatFloat(float64(c), 'f', -1, 64)
}

// Position is a latitude/longitude pair
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// IsZero reports whether the position is still the unset (0,0) origin
func (p Position) IsZero() bool {
	return p.Latitude == 0 && p.Longitude == 0
}

// Point is a registered collection location
type Point struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email,omitempty"`
	Whatsapp  string     `json:"whatsapp,omitempty"`
	Image     string     `json:"image,omitempty"`
	ImageURL  string     `json:"image_url"`
	City      string     `json:"city,omitempty"`
	UF        string     `json:"uf,omitempty"`
	Latitude  Coordinate `json:"latitude"`
	Longitude Coordinate `json:"longitude"`
}

func (p Point) Position() Position {
	return Position{Latitude: float64(p.Latitude), Longitude: float64(p.Longitude)}
}

// PointDetail is the body of GET points/{id}
type PointDetail struct {
	Point Point  `json:"point"`
	Items []Item `json:"items"`
}

// PointFilter holds the query parameters of GET points
type PointFilter struct {
	City  string       `json:"city"`
	UF    string       `json:"uf"`
	Items []CategoryID `json:"items"`
}

// Query encodes the filter. Items are comma-joined and omitted when empty,
// which the backend treats as no category filter.
func (f PointFilter) Query() url.Values {
	q := url.Values{}
	if f.City != "" {
		q.Set("city", f.City)
	}
	if f.UF != "" {
		q.Set("uf", f.UF)
	}
	if len(f.Items) > 0 {
		q.Set("items", JoinCategoryIDs(f.Items))
	}
	return q
}

// Image is an uploaded photo of a collection point
type Image struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// NewPoint is the payload of POST points
type NewPoint struct {
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	Whatsapp  string       `json:"whatsapp"`
	UF        string       `json:"uf"`
	City      string       `json:"city"`
	Latitude  float64      `json:"latitude"`
	Longitude float64      `json:"longitude"`
	Items     []CategoryID `json:"items"`
	Image     *Image       `json:"image,omitempty"`
}

// FormFields returns the multipart text fields of the point, image excluded
func (p NewPoint) FormFields() map[string]string {
	return map[string]string{
		"name":      p.Name,
		"email":     p.Email,
		"whatsapp":  p.Whatsapp,
		"uf":        p.UF,
		"city":      p.City,
		"latitude":  strconv.FormatFloat(p.Latitude, 'f', -1, 64),
		"longitude": strconv.FormatFloat(p.Longitude, 'f', -1, 64),
		"items":     JoinCategoryIDs(p.Items),
	}
}

func JoinCategoryIDs(ids []CategoryID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(int(id))
	}
	return strings.Join(parts, ",")
}
