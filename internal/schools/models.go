package schools

import (
	"encoding/json"
	"time"

	"github.com/SchoolRadar/SR-Backend/internal/geo"
	"github.com/google/uuid"
)

// CatchmentKind distinguishes the intake boundary sets a school can carry.
type CatchmentKind string

const (
	KindPrimary   CatchmentKind = "primary"
	KindSecondary CatchmentKind = "secondary"
	KindFuture    CatchmentKind = "future"
)

func (k CatchmentKind) Valid() bool {
	switch k {
	case KindPrimary, KindSecondary, KindFuture:
		return true
	}
	return false
}

// SchoolType is the normalized level-of-schooling enum from the ACARA
// profile import.
type SchoolType string

const (
	TypePrimary   SchoolType = "primary"
	TypeSecondary SchoolType = "secondary"
	TypeCombined  SchoolType = "combined"
	TypeSpecial   SchoolType = "special"
)

func (t SchoolType) Valid() bool {
	switch t {
	case TypePrimary, TypeSecondary, TypeCombined, TypeSpecial:
		return true
	}
	return false
}

// School is one registered school. Rows come from the ACARA profile
// import; like addresses, they are read-only to this service.
type School struct {
	// AcaraID is the national school identifier.
	AcaraID string `gorm:"primaryKey;size:10" json:"acara_id"`

	Name   string     `gorm:"index;size:200" json:"name"`
	Type   SchoolType `gorm:"size:20" json:"type"`
	Sector string     `gorm:"size:20" json:"sector"` // government, catholic, independent

	Suburb   string `gorm:"size:100" json:"suburb"`
	State    string `gorm:"index;size:3" json:"state"`
	Postcode string `gorm:"size:4" json:"postcode"`

	// Latitude/Longitude are nil when the profile import could not place
	// the campus. Such schools are excluded from spatial work but still
	// resolvable by id and name.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Geom      string   `gorm:"->;type:geometry(Point,4326)" json:"-"`

	// ICSEA is the socio-educational advantage index, absent for some
	// special schools. The percentile places the score nationally.
	ICSEA           *int `json:"icsea,omitempty"`
	ICSEAPercentile *int `json:"icsea_percentile,omitempty"`
}

func (School) TableName() string {
	return "schools.schools"
}

func (s School) Geocoded() bool {
	return s.Latitude != nil && s.Longitude != nil
}

func (s School) Point() geo.Point {
	return geo.Point{Lat: *s.Latitude, Lng: *s.Longitude}
}

// ProfileURL derives the public myschool.edu.au profile link.
func (s School) ProfileURL() string {
	return "https://www.myschool.edu.au/school/" + s.AcaraID
}

// NaplanURL derives the public NAPLAN results link for the school.
func (s School) NaplanURL() string {
	return s.ProfileURL() + "/naplan/results"
}

// Catchment is one official intake boundary for a school. A school may
// carry several (current primary and secondary intakes plus a gazetted
// future boundary), and boundaries may overlap between schools.
type Catchment struct {
	ID       uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	SchoolID string        `gorm:"index;size:10" json:"school_id"`
	Kind     CatchmentKind `gorm:"size:12" json:"kind"`

	// Geom is the authoritative boundary; never substituted by a buffer.
	Geom string `gorm:"->;type:geometry(MultiPolygon,4326)" json:"-"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (Catchment) TableName() string {
	return "schools.catchments"
}

// CatchmentOut is the wire shape for one boundary, geometry included as
// raw GeoJSON straight from ST_AsGeoJSON.
type CatchmentOut struct {
	ID        uuid.UUID       `json:"id"`
	SchoolID  string          `json:"school_id"`
	Kind      CatchmentKind   `json:"kind"`
	UpdatedAt time.Time       `json:"updated_at"`
	Geometry  json.RawMessage `json:"geometry"`
}

// Buffer is the derived straight-line reach polygon around a geocoded
// school. Rebuilt wholesale by the geometry job, never edited in place.
type Buffer struct {
	SchoolID     string  `gorm:"primaryKey;size:10" json:"school_id"`
	RadiusMeters float64 `json:"radius_meters"`
	Geom         string  `gorm:"->;type:geometry(Polygon,4326)" json:"-"`

	BuiltAt time.Time `json:"built_at"`
}

func (Buffer) TableName() string {
	return "schools.buffers"
}

// Membership is one precomputed address-in-catchment pair. The table is
// a cache over the containment predicate; the live query remains the
// fallback when a catchment changed after the last rebuild.
type Membership struct {
	CatchmentID uuid.UUID `gorm:"type:uuid;primaryKey" json:"catchment_id"`
	GnafPID     string    `gorm:"primaryKey;size:15;index" json:"gnaf_pid"`
	SchoolID    string    `gorm:"index;size:10" json:"school_id"`

	ComputedAt time.Time `json:"computed_at"`
}

func (Membership) TableName() string {
	return "schools.memberships"
}

// Rebuild records one completed derived-data rebuild with its outcome
// counts, and doubles as the staleness clock for that derived set.
type Rebuild struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Kind string    `gorm:"index;size:12" json:"kind"` // buffers, membership

	Processed int `json:"processed"`
	Built     int `json:"built"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`

	// Attached counts schools linked to at least one catchment boundary
	// at rebuild time.
	Attached int `json:"catchment_attached"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (Rebuild) TableName() string {
	return "schools.rebuilds"
}

// SchoolOut is the wire shape for school results.
type SchoolOut struct {
	AcaraID         string     `json:"acara_id"`
	Name            string     `json:"name"`
	Type            SchoolType `json:"type"`
	Sector          string     `json:"sector"`
	Suburb          string     `json:"suburb"`
	State           string     `json:"state"`
	Postcode        string     `json:"postcode"`
	Latitude        *float64   `json:"latitude,omitempty"`
	Longitude       *float64   `json:"longitude,omitempty"`
	ICSEA           *int       `json:"icsea,omitempty"`
	ICSEAPercentile *int       `json:"icsea_percentile,omitempty"`
	ProfileURL      string     `json:"profile_url"`
	NaplanURL       string     `json:"naplan_url"`

	HasCatchment  bool `json:"has_catchment"`
	HasGeomBuffer bool `json:"has_geom_buffer"`

	// CatchmentKind is set on catchment-membership results, where the
	// same school can appear once per matching boundary.
	CatchmentKind  string   `json:"catchment_kind,omitempty"`
	DistanceMeters *float64 `json:"distance_meters,omitempty"`

	// Stale marks results served from a membership cache older than the
	// catchment rows it summarises.
	Stale bool `json:"stale,omitempty"`
}

// Out converts a School and its derived-data flags to the wire shape.
func (s School) Out(hasCatchment, hasBuffer bool) SchoolOut {
	return SchoolOut{
		AcaraID:         s.AcaraID,
		Name:            s.Name,
		Type:            s.Type,
		Sector:          s.Sector,
		Suburb:          s.Suburb,
		State:           s.State,
		Postcode:        s.Postcode,
		Latitude:        s.Latitude,
		Longitude:       s.Longitude,
		ICSEA:           s.ICSEA,
		ICSEAPercentile: s.ICSEAPercentile,
		ProfileURL:      s.ProfileURL(),
		NaplanURL:       s.NaplanURL(),
		HasCatchment:    hasCatchment,
		HasGeomBuffer:   hasBuffer,
	}
}
