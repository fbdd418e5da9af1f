package models

import (
	"fmt"
	"math"
)

type Location struct {
	Lat float64 `json:"lat" parquet:"name=lat,type=DOUBLE"`
	Lon float64 `json:"lon" parquet:"name=lon,type=DOUBLE"`
}

// Valid reports whether the coordinate can take part in clustering. Exactly zero on
// either axis is a sensor or parse failure, never a real position.
func (l Location) Valid() bool {
	return isUsable(l.Lat) && isUsable(l.Lon)
}

func isUsable(v float64) bool {
	return v != 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (l Location) String() string {
	return fmt.Sprintf("POINT(%f %f)", l.Lon, l.Lat)
}
