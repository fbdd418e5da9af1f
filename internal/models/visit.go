package models

import "time"

// RawVisit is one visit row as delivered by a source, keyed by whatever column
// names the upstream sheet used.
type RawVisit map[string]interface{}

// FieldAliases lists candidate keys for one logical attribute, tried in order.
type FieldAliases []string

var (
	ShopNameFields  = FieldAliases{"shopName", "shop_name", "Shop Name", "Shop", "outletName"}
	ShopIDFields    = FieldAliases{"shopId", "shop_id", "Shop ID", "storeId", "outletId"}
	VisitIDFields   = FieldAliases{"visitId", "visit_id", "Visit ID", "id"}
	VisitDateFields = FieldAliases{"visitDate", "visit_date", "Visit Date", "date", "Date", "timestamp"}
	SalesmanFields  = FieldAliases{"salesmanName", "salesman_name", "Salesman Name", "salesman", "Salesman"}
	LatitudeFields  = FieldAliases{"latitude", "Latitude", "lat", "Lat"}
	LongitudeFields = FieldAliases{"longitude", "Longitude", "lng", "lon", "Lng", "Long"}
)

// VisitRecord is a normalized visit with usable coordinates.
type VisitRecord struct {
	VisitID      string    `json:"visitId"`
	VisitDate    time.Time `json:"visitDate"`
	SalesmanName string    `json:"salesmanName"`
	ShopID       string    `json:"shopId"`
	Location     Location  `json:"location"`
}

// ShopVisitGroup holds the valid visits of one shop in input order.
type ShopVisitGroup struct {
	ShopID string
	Visits []VisitRecord
}

// VisitRow is the typed shape used by the parquet and postgres visit sources.
type VisitRow struct {
	VisitID      string  `json:"visit_id" parquet:"name=visit_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	VisitDate    string  `json:"visit_date" parquet:"name=visit_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	SalesmanName string  `json:"salesman_name" parquet:"name=salesman_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	ShopName     string  `json:"shop_name" parquet:"name=shop_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	ShopID       string  `json:"shop_id" parquet:"name=shop_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Latitude     float64 `json:"latitude" parquet:"name=latitude, type=DOUBLE"`
	Longitude    float64 `json:"longitude" parquet:"name=longitude, type=DOUBLE"`
}

// Raw converts a typed row into a RawVisit, omitting empty columns so the
// normalizer falls through to the next alias.
func (r VisitRow) Raw() RawVisit {
	raw := RawVisit{
		"latitude":  r.Latitude,
		"longitude": r.Longitude,
	}
	put := func(key, value string) {
		if value != "" {
			raw[key] = value
		}
	}
	put("visitId", r.VisitID)
	put("visitDate", r.VisitDate)
	put("salesmanName", r.SalesmanName)
	put("shopName", r.ShopName)
	put("shopId", r.ShopID)
	return raw
}
