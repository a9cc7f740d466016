package checklist

import "time"

// Item is one step of an OEM checklist template.
type Item struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	Category         string   `json:"category,omitempty"`
	Required         bool     `json:"required"`
	EstimatedMinutes int      `json:"estimatedMinutes,omitempty"`
	Tools            []string `json:"tools,omitempty"`
	Parts            []string `json:"parts,omitempty"`
}

// Checklist is a versioned template for a vehicle model and service
// type. Templates are never edited in place: a new version row is
// inserted and activated, so jobs that pinned an older version keep it.
type Checklist struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	VehicleModel string    `json:"vehicleModel"`
	ServiceType  string    `json:"serviceType"`
	Version      int       `json:"version"`
	Active       bool      `json:"isActive"`
	Items        []Item    `json:"items"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
