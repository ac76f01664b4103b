package model

// BuskingApplication is a performer's request for a busking slot.
//
// State is 0 (pending), 1 (approved) or 2 (rejected). Only the backend moves
// an application out of 0; the busking package exposes the typed view.
type BuskingApplication struct {
	ID            string `json:"id"`
	ApplicantID   string `json:"userId"`
	PerformerName string `json:"name" validate:"required,max=50"`
	Date          string `json:"date" validate:"required,datetime=2006-01-02"`
	Genre         string `json:"category" validate:"required,max=30"`
	Description   string `json:"content" validate:"max=1000"`
	BandName      string `json:"bandName" validate:"max=50"`
	State         int    `json:"state"`
}

// Marker is read-only map reference data (parking lots, toilets, stages...).
// It has no identity on the backend; screens address markers by index.
type Marker struct {
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
	Time    *string `json:"time,omitempty"`
	Method  *string `json:"method,omitempty"`
	Price   *string `json:"price,omitempty"`
	Phone   *string `json:"phone,omitempty"`
}
