package gnaf

import (
	"strconv"
	"strings"

	"github.com/SchoolRadar/SR-Backend/internal/geo"
)

// Address is the canonical geocoded address record. Rows are created and
// retired by the external import pipeline; this service treats them as
// read-only.
type Address struct {
	// GnafPID is the stable opaque address identifier.
	GnafPID string `gorm:"primaryKey;size:15" json:"gnaf_pid"`

	FlatType         string `gorm:"size:30" json:"flat_type,omitempty"`
	FlatNumber       string `gorm:"size:12" json:"flat_number,omitempty"`
	NumberFirst      *int   `json:"number_first,omitempty"`
	NumberFirstSuffix string `gorm:"size:3" json:"number_first_suffix,omitempty"`
	NumberLast       *int   `json:"number_last,omitempty"`
	NumberLastSuffix string `gorm:"size:3" json:"number_last_suffix,omitempty"`

	StreetName string `gorm:"index;size:100" json:"street_name"`
	StreetType string `gorm:"size:30" json:"street_type,omitempty"`
	Locality   string `gorm:"index;size:100" json:"suburb"`
	State      string `gorm:"index;size:3" json:"state"`
	Postcode   string `gorm:"index;size:4" json:"postcode"`

	// Latitude/Longitude are nil for ungeocoded addresses; such rows are
	// excluded from every spatial query but still show up in attribute
	// lookups. Geom mirrors the pair as a PostGIS point for the GIST index.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Geom      string   `gorm:"->;type:geometry(Point,4326)" json:"-"`

	// GeocodeMethod and Confidence are non-empty whenever the point is
	// non-nil: a geocode without provenance is an import bug.
	GeocodeMethod GeocodeMethod `gorm:"size:30" json:"geocode_method,omitempty"`
	Confidence    Confidence    `gorm:"size:12" json:"confidence,omitempty"`
}

func (Address) TableName() string {
	return "gnaf.addresses"
}

// Geocoded reports whether the address has a usable point.
func (a Address) Geocoded() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// Point returns the address point. Only valid when Geocoded.
func (a Address) Point() geo.Point {
	return geo.Point{Lat: *a.Latitude, Lng: *a.Longitude}
}

// FullAddress assembles the display address from structured components,
// mirroring the source system's formatting.
func (a Address) FullAddress() string {
	var parts []string

	if a.FlatNumber != "" {
		ft := a.FlatType
		if ft == "" {
			ft = "UNIT"
		}
		parts = append(parts, ft+" "+a.FlatNumber)
	}

	num := ""
	if a.NumberFirst != nil {
		num = strconv.Itoa(*a.NumberFirst) + a.NumberFirstSuffix
		if a.NumberLast != nil {
			num += "-" + strconv.Itoa(*a.NumberLast) + a.NumberLastSuffix
		}
	}
	if num != "" {
		parts = append(parts, num)
	}

	street := strings.TrimSpace(a.StreetName + " " + a.StreetType)
	if street != "" {
		parts = append(parts, street)
	}
	if a.Locality != "" {
		parts = append(parts, a.Locality)
	}
	if a.State != "" {
		parts = append(parts, a.State)
	}
	if a.Postcode != "" {
		parts = append(parts, a.Postcode)
	}

	return strings.Join(parts, " ")
}

// AddressOut is the wire shape for address results, with the optional
// distance filled in by spatial queries.
type AddressOut struct {
	GnafPID       string   `json:"gnaf_pid"`
	FullAddress   string   `json:"full_address"`
	StreetName    string   `json:"street_name"`
	StreetType    string   `json:"street_type,omitempty"`
	Suburb        string   `json:"suburb"`
	State         string   `json:"state"`
	Postcode      string   `json:"postcode"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	GeocodeMethod string   `json:"geocode_method,omitempty"`
	Confidence    string   `json:"confidence,omitempty"`

	DistanceMeters *float64 `json:"distance_meters,omitempty"`
}

// Out converts an Address to its wire shape.
func (a Address) Out() AddressOut {
	return AddressOut{
		GnafPID:       a.GnafPID,
		FullAddress:   a.FullAddress(),
		StreetName:    a.StreetName,
		StreetType:    a.StreetType,
		Suburb:        a.Locality,
		State:         a.State,
		Postcode:      a.Postcode,
		Latitude:      a.Latitude,
		Longitude:     a.Longitude,
		GeocodeMethod: string(a.GeocodeMethod),
		Confidence:    string(a.Confidence),
	}
}
