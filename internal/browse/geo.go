package browse

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// UnavailableLabel is shown when a listing has no usable coordinates.
const UnavailableLabel = "Unavailable"

var errNoPoint = errors.New("location is not a POINT")

// pointPattern accepts WKT/EWKT points such as "POINT(-73.98 40.75)" and
// "SRID=4326;POINT(-73.98 40.75)".
var pointPattern = regexp.MustCompile(`(?i)^\s*(?:SRID=\d+\s*;\s*)?POINT\s*\(\s*([-+]?\d+(?:\.\d+)?)\s+([-+]?\d+(?:\.\d+)?)\s*\)\s*$`)

var pointPrefix = regexp.MustCompile(`(?i)^\s*(?:SRID=|POINT\b)`)

// Point is a WGS84 coordinate.
type Point struct {
	Lon float64
	Lat float64
}

func (p Point) String() string {
	return fmt.Sprintf("%.5f, %.5f", p.Lat, p.Lon)
}

// ParsePoint parses a textual POINT(lon lat).
func ParsePoint(s string) (Point, error) {
	m := pointPattern.FindStringSubmatch(s)
	if m == nil {
		return Point{}, errNoPoint
	}
	lon, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Point{}, fmt.Errorf("parse longitude: %w", err)
	}
	lat, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Point{}, fmt.Errorf("parse latitude: %w", err)
	}
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return Point{}, fmt.Errorf("coordinates out of range: %v %v", lon, lat)
	}
	return Point{Lon: lon, Lat: lat}, nil
}

// Location is the display form of a listing's location field.
type Location struct {
	Text        string // free-text location, empty for encoded points
	Point       *Point
	Coordinates string // formatted coordinates or UnavailableLabel
}

// ParseLocation never fails: anything that is not a valid point degrades
// to UnavailableLabel for the coordinates.
func ParseLocation(raw string) Location {
	p, err := ParsePoint(raw)
	if err != nil {
		loc := Location{Coordinates: UnavailableLabel}
		// Free text is still worth showing; a broken point is not.
		if errors.Is(err, errNoPoint) && !pointPrefix.MatchString(raw) {
			loc.Text = strings.TrimSpace(raw)
		}
		return loc
	}
	return Location{Point: &p, Coordinates: p.String()}
}

const staticMapEndpoint = "https://maps.googleapis.com/maps/api/staticmap"

// StaticMapURL builds a static map image URL centered on p.
func StaticMapURL(p Point, apiKey string) string {
	center := strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lon, 'f', -1, 64)
	q := url.Values{}
	q.Set("center", center)
	q.Set("zoom", "13")
	q.Set("size", "600x300")
	q.Set("markers", center)
	q.Set("key", apiKey)
	return staticMapEndpoint + "?" + q.Encode()
}
