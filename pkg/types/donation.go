package types

import (
	"time"
)

type DonationStatus string

const (
	DonationStatusNotAccepted DonationStatus = "notAccepted"
	DonationStatusPickingUp   DonationStatus = "pickingUp"
	DonationStatusCompleted   DonationStatus = "completed"
)

func (s DonationStatus) Valid() bool {
	switch s {
	case DonationStatusNotAccepted, DonationStatusPickingUp, DonationStatusCompleted:
		return true
	}
	return false
}

const DefaultContactType = "Individual"

// Coordinates is a lat/lon pair in floating-point degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// DonationRecord is a single surplus-food listing with pickup metadata and a
// lifecycle status. Only status is mutated after creation.
type DonationRecord struct {
	ID       string `db:"id" json:"id"`
	ItemName string `db:"item_name" json:"itemName"`
	Meals    int    `db:"meals" json:"meals"`
	Veg      bool   `db:"veg" json:"veg"`

	PreparedOn *time.Time `db:"prepared_on" json:"preparedOn,omitempty"`
	ExpiryOn   *time.Time `db:"expiry_on" json:"expiryOn,omitempty"`

	Address string   `db:"address" json:"address"`
	Lat     *float64 `db:"lat" json:"-"`
	Lon     *float64 `db:"lon" json:"-"`

	// Coordinates mirrors the lat/lon columns on the JSON wire.
	Coordinates *Coordinates `db:"-" json:"coordinates,omitempty"`

	ContactName  string `db:"contact_name" json:"contactName"`
	ContactPhone string `db:"contact_phone" json:"contactPhone"`
	ContactType  string `db:"contact_type" json:"contactType"`

	Status    DonationStatus `db:"status" json:"status"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}

// SyncCoordinates keeps the column pair and the wire object in agreement,
// whichever side was populated last.
func (d *DonationRecord) SyncCoordinates() {
	if d.Coordinates != nil {
		lat, lon := d.Coordinates.Lat, d.Coordinates.Lon
		d.Lat, d.Lon = &lat, &lon
		return
	}
	if d.Lat != nil && d.Lon != nil {
		d.Coordinates = &Coordinates{Lat: *d.Lat, Lon: *d.Lon}
	}
}

// DonationPatch carries the fields a partial update may merge into an
// existing record. Nil fields are left untouched.
type DonationPatch struct {
	ItemName     *string         `json:"itemName,omitempty"`
	Meals        *int            `json:"meals,omitempty"`
	Veg          *bool           `json:"veg,omitempty"`
	Address      *string         `json:"address,omitempty"`
	ContactName  *string         `json:"contactName,omitempty"`
	ContactPhone *string         `json:"contactPhone,omitempty"`
	ContactType  *string         `json:"contactType,omitempty"`
	Status       *DonationStatus `json:"status,omitempty"`
}

func (p DonationPatch) Empty() bool {
	return p.ItemName == nil &&
		p.Meals == nil &&
		p.Veg == nil &&
		p.Address == nil &&
		p.ContactName == nil &&
		p.ContactPhone == nil &&
		p.ContactType == nil &&
		p.Status == nil
}
