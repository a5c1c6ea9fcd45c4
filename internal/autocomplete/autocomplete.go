// Package autocomplete serves prefix suggestions for the search box:
// street names, suburbs, postcodes, and school names. Each kind carries
// its own minimum query length so two keystrokes cannot fan out into a
// scan of the whole catalogue.
package autocomplete

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/SchoolRadar/SR-Backend/internal/cache"
	"github.com/SchoolRadar/SR-Backend/internal/config"
	"github.com/SchoolRadar/SR-Backend/internal/db"
	"github.com/SchoolRadar/SR-Backend/internal/geo"
	"github.com/SchoolRadar/SR-Backend/internal/qerr"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind names one suggestion domain.
type Kind string

const (
	KindStreet   Kind = "street"
	KindSuburb   Kind = "suburb"
	KindPostcode Kind = "postcode"
	KindSchool   Kind = "school"
)

func (k Kind) Valid() bool {
	switch k {
	case KindStreet, KindSuburb, KindPostcode, KindSchool:
		return true
	}
	return false
}

// Suggestion is one completion. Display carries title-cased text for
// the UI; Value keeps the stored form for follow-up queries.
type Suggestion struct {
	Value   string `json:"value"`
	Display string `json:"display"`

	// ID is set for school suggestions so the UI can jump straight to
	// the school page.
	ID string `json:"id,omitempty"`
}

const (
	maxSuggestions = 10
	cacheTTL       = 5 * time.Minute
)

var cfg config.Config

// Init wires the minimum-length policy.
func Init(c config.Config) {
	cfg = c
}

// titleCaser folds GNAF's all-caps records into display casing.
var titleCaser = cases.Title(language.English)

func display(raw string) string {
	return titleCaser.String(strings.ToLower(raw))
}

// Scope narrows a suggestion query. State filters all kinds; SchoolID
// restricts address-kind suggestions to the proximity candidate set of
// that school, so a street that exists nationally but not near the
// school is never suggested.
type Scope struct {
	State    string
	SchoolID string
}

// Suggest returns up to maxSuggestions completions for a query within
// one kind. Queries shorter than the kind's minimum are invalid, not
// empty: the client should keep typing, not retry.
func Suggest(ctx context.Context, kind Kind, query string, sc Scope) ([]Suggestion, error) {
	if !kind.Valid() {
		return nil, qerr.Invalid("unknown suggestion kind %q", kind)
	}

	query = strings.TrimSpace(query)
	min := cfg.MinLength(string(kind))
	if len(query) < min {
		return nil, qerr.Invalid("%s queries need at least %d characters", kind, min)
	}

	if hit, ok := cacheGet(ctx, kind, query, sc); ok {
		return hit, nil
	}

	var (
		out []Suggestion
		err error
	)
	switch kind {
	case KindSchool:
		out, err = suggestSchools(ctx, query, sc.State)
	default:
		out, err = suggestAddresses(ctx, kind, query, sc)
	}
	if err != nil {
		return nil, err
	}

	cachePut(ctx, kind, query, sc, out)
	return out, nil
}

// suggestAddresses completes street names, suburbs, or postcodes from
// the address catalogue with a case-insensitive prefix match.
func suggestAddresses(ctx context.Context, kind Kind, query string, sc Scope) ([]Suggestion, error) {
	col := map[Kind]string{
		KindStreet:   "street_name",
		KindSuburb:   "locality",
		KindPostcode: "postcode",
	}[kind]

	conds := []string{fmt.Sprintf("%s ILIKE $1", col)}
	args := []interface{}{escapeLike(query) + "%"}
	argIdx := 2
	if sc.State != "" {
		conds = append(conds, fmt.Sprintf("state = $%d", argIdx))
		args = append(args, strings.ToUpper(sc.State))
		argIdx++
	}

	if sc.SchoolID != "" {
		p, err := schoolPoint(ctx, sc.SchoolID)
		if err != nil {
			return nil, err
		}
		conds = append(conds, fmt.Sprintf(`
			geom IS NOT NULL
			AND ST_DWithin(geom::geography, ST_SetSRID(ST_MakePoint($%d, $%d), 4326)::geography, $%d)
		`, argIdx, argIdx+1, argIdx+2))
		args = append(args, p.Lng, p.Lat, cfg.BufferRadiusMeters)
		argIdx += 3
	}

	q := fmt.Sprintf(`
		SELECT DISTINCT %s AS v
		FROM gnaf.addresses
		WHERE %s
		ORDER BY v
		LIMIT %d
	`, col, strings.Join(conds, " AND "), maxSuggestions)

	var values []string
	if err := db.DB.WithContext(ctx).Raw(q, args...).Scan(&values).Error; err != nil {
		return nil, qerr.FromContext(fmt.Errorf("%s suggestions: %w", kind, err))
	}

	out := make([]Suggestion, 0, len(values))
	for _, v := range values {
		s := Suggestion{Value: v, Display: display(v)}
		if kind == KindPostcode {
			s.Display = v
		}
		out = append(out, s)
	}
	return out, nil
}

// suggestSchools completes school names: exact matches first, then
// prefix matches, then substring matches.
func suggestSchools(ctx context.Context, query, state string) ([]Suggestion, error) {
	conds := []string{"name ILIKE $1"}
	args := []interface{}{"%" + escapeLike(query) + "%"}
	argIdx := 2
	if state != "" {
		conds = append(conds, fmt.Sprintf("state = $%d", argIdx))
		args = append(args, strings.ToUpper(state))
		argIdx++
	}

	q := fmt.Sprintf(`
		SELECT acara_id, name,
			CASE
				WHEN LOWER(name) = LOWER($%d) THEN 0
				WHEN name ILIKE $%d THEN 1
				ELSE 2
			END AS match_rank
		FROM schools.schools
		WHERE %s
		ORDER BY match_rank, name, acara_id
		LIMIT %d
	`, argIdx, argIdx+1, strings.Join(conds, " AND "), maxSuggestions)
	args = append(args, query, escapeLike(query)+"%")

	rows, err := db.DB.WithContext(ctx).Raw(q, args...).Rows()
	if err != nil {
		return nil, qerr.FromContext(fmt.Errorf("school suggestions: %w", err))
	}
	defer rows.Close()

	var out []Suggestion
	for rows.Next() {
		var id, name string
		var rank int
		if err := rows.Scan(&id, &name, &rank); err != nil {
			return nil, fmt.Errorf("scan school suggestion: %w", err)
		}
		out = append(out, Suggestion{Value: name, Display: name, ID: id})
	}
	return out, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// schoolPoint resolves the scope school's point, distinguishing a
// missing school from an ungeocoded one.
func schoolPoint(ctx context.Context, acaraID string) (geo.Point, error) {
	var row struct {
		AcaraID string
		Lat     *float64
		Lng     *float64
	}
	err := db.DB.WithContext(ctx).Raw(`
		SELECT acara_id, ST_Y(geom) AS lat, ST_X(geom) AS lng
		FROM schools.schools
		WHERE acara_id = $1
	`, acaraID).Scan(&row).Error
	if err != nil {
		return geo.Point{}, qerr.FromContext(fmt.Errorf("scope school: %w", err))
	}
	if row.AcaraID == "" {
		return geo.Point{}, fmt.Errorf("school %s: %w", acaraID, qerr.ErrNotFound)
	}
	if row.Lat == nil || row.Lng == nil {
		return geo.Point{}, fmt.Errorf("school %s has no geocode: %w", acaraID, qerr.ErrUngeocoded)
	}
	return geo.Point{Lat: *row.Lat, Lng: *row.Lng}, nil
}

// cacheGet serves a suggestion list from redis when a cache is wired.
// Suggestion traffic is bursty and repetitive; catalogue data changes
// only on import, so a short TTL is safe.
func cacheGet(ctx context.Context, kind Kind, query string, sc Scope) ([]Suggestion, bool) {
	if cache.Redis == nil {
		return nil, false
	}
	raw, err := cache.Redis.Get(ctx, cacheKey(kind, query, sc)).Bytes()
	if err != nil {
		return nil, false
	}
	var out []Suggestion
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return out, true
}

func cachePut(ctx context.Context, kind Kind, query string, sc Scope, out []Suggestion) {
	if cache.Redis == nil {
		return
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return
	}
	cache.Redis.Set(ctx, cacheKey(kind, query, sc), raw, cacheTTL)
}

func cacheKey(kind Kind, query string, sc Scope) string {
	return fmt.Sprintf("ac:%s:%s:%s:%s", kind, sc.State, sc.SchoolID, strings.ToLower(query))
}
