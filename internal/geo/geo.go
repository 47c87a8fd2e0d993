package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/aerosweep/sweep/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Local field coordinates are metres east (X) and north (Y) of the base. They are
// anchored to WGS84 through Web Mercator (EPSG:3857), whose units stretch by
// 1/cos(latitude) relative to ground metres.

// ErrInvalidReference is returned for a reference latitude Mercator cannot represent.
var ErrInvalidReference = errors.New("invalid reference coordinates")

// Reference maps local field coordinates to longitude/latitude.
type Reference struct {
	Latitude  float64
	Longitude float64

	originX float64
	originY float64
	stretch float64
	toWGS84 func(x, y, z float64) (float64, float64, float64)
}

// NewReference anchors the local origin at the given WGS84 position.
func NewReference(latitude, longitude float64) (Reference, error) {
	if math.Abs(latitude) >= 85 || math.Abs(longitude) > 180 {
		return Reference{}, ErrInvalidReference
	}
	epsg := wgs84.EPSG()
	x, y, _ := epsg.Transform(4326, 3857)(longitude, latitude, 0)
	return Reference{
		Latitude:  latitude,
		Longitude: longitude,
		originX:   x,
		originY:   y,
		stretch:   1 / math.Cos(latitude*math.Pi/180),
		toWGS84:   epsg.Transform(3857, 4326),
	}, nil
}

// ToWGS84 returns the longitude and latitude of a local point.
func (r Reference) ToWGS84(p core.Point) (lon, lat float64) {
	lon, lat, _ = r.toWGS84(r.originX+p.X*r.stretch, r.originY+p.Y*r.stretch, 0)
	return lon, lat
}

// Point returns p as a WGS84 geometry (X = longitude, Y = latitude, Z = height).
func (r Reference) Point(p core.Point) geom.Point {
	lon, lat := r.ToWGS84(p)
	return geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: lon, Y: lat},
			Z:    p.Z,
			Type: geom.CoordinatesType(geom.DimXYZ),
		},
	)
}

// PointWKT returns p in well-known text.
func (r Reference) PointWKT(p core.Point) string {
	return r.Point(p).AsText()
}

// PathWKT returns the ordered points as a 2D WKT LINESTRING.
func (r Reference) PathWKT(points []core.Point) (string, error) {
	if len(points) < 2 {
		return "", fmt.Errorf("path must have at least 2 points, got %d", len(points))
	}
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		lon, lat := r.ToWGS84(p)
		flat = append(flat, lon, lat)
	}
	seq := geom.NewSequence(flat, geom.DimXY)
	return geom.NewLineString(seq).AsText(), nil
}
