package consensus

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/chrisdamba/visitconsensus/internal/models"
)

var visitDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
	"1/2/2006",
}

// Normalize maps one raw visit onto a VisitRecord. The second return value is false
// when the visit has no shop identity or no usable coordinates; such visits are
// dropped silently. index is the visit's position in the input and seeds the
// synthesized visit id.
func Normalize(raw models.RawVisit, index int) (models.VisitRecord, bool) {
	shopID := lookupString(raw, models.ShopNameFields)
	if shopID == "" {
		shopID = lookupString(raw, models.ShopIDFields)
	}
	if shopID == "" {
		return models.VisitRecord{}, false
	}

	loc := models.Location{
		Lat: parseCoordinate(lookup(raw, models.LatitudeFields)),
		Lon: parseCoordinate(lookup(raw, models.LongitudeFields)),
	}
	if !loc.Valid() {
		return models.VisitRecord{}, false
	}

	visitID := lookupString(raw, models.VisitIDFields)
	if visitID == "" {
		visitID = fmt.Sprintf("visit-%d", index)
	}
	salesman := lookupString(raw, models.SalesmanFields)
	if salesman == "" {
		salesman = models.UnknownSalesman
	}

	return models.VisitRecord{
		VisitID:      visitID,
		VisitDate:    parseVisitDate(lookup(raw, models.VisitDateFields)),
		SalesmanName: salesman,
		ShopID:       shopID,
		Location:     loc,
	}, true
}

// NormalizeAll normalizes raw in order, keeping only valid records.
func NormalizeAll(raw []models.RawVisit) []models.VisitRecord {
	records := make([]models.VisitRecord, 0, len(raw))
	for i, r := range raw {
		if rec, ok := Normalize(r, i); ok {
			records = append(records, rec)
		}
	}
	return records
}

// lookup returns the value of the first alias that is present and not blank.
func lookup(raw models.RawVisit, aliases models.FieldAliases) interface{} {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

func lookupString(raw models.RawVisit, aliases models.FieldAliases) string {
	switch v := lookup(raw, aliases).(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case json.Number:
		return v.String()
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// parseCoordinate returns NaN for anything that is not a number.
func parseCoordinate(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	return math.NaN()
}

// parseVisitDate never fails: an unreadable date becomes the zero time.
func parseVisitDate(v interface{}) time.Time {
	switch d := v.(type) {
	case time.Time:
		return d
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range visitDateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
		if secs, err := strconv.ParseFloat(s, 64); err == nil {
			return unixTime(secs)
		}
	case float64:
		return unixTime(d)
	case int64:
		return unixTime(float64(d))
	case int:
		return unixTime(float64(d))
	case json.Number:
		if secs, err := d.Float64(); err == nil {
			return unixTime(secs)
		}
	}
	return time.Time{}
}

// unixTime accepts seconds or milliseconds since the epoch.
func unixTime(v float64) time.Time {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return time.Time{}
	}
	if v > 1e12 {
		return time.UnixMilli(int64(v)).UTC()
	}
	return time.Unix(int64(v), 0).UTC()
}
