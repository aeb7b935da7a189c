package facility

import (
	"errors"
	"strconv"
)

// ErrNoFacilityConfigured means the directory is empty, so nothing can
// be selected.
var ErrNoFacilityConfigured = errors.New("no facility configured")

// DistanceFunc scores how far apart two postal codes are. Lower is
// closer. The unit is arbitrary; only the ordering matters.
type DistanceFunc func(a, b string) float64

// maxZipDistance caps the reference heuristic so wildly distant codes
// do not dominate the scale.
const maxZipDistance = 25000

// ZipDistance is the default heuristic: the absolute numeric difference
// between postal codes, capped. Coarse on purpose; swap in a geocoding
// DistanceFunc if accuracy ever matters.
func ZipDistance(a, b string) float64 {
	na, _ := strconv.Atoi(a)
	nb, _ := strconv.Atoi(b)
	diff := na - nb
	if diff < 0 {
		diff = -diff
	}
	if diff > maxZipDistance {
		diff = maxZipDistance
	}
	return float64(diff)
}

// Locator selects the nearest facility to a destination.
type Locator struct {
	dir      *Directory
	distance DistanceFunc
}

func NewLocator(dir *Directory, distance DistanceFunc) *Locator {
	if distance == nil {
		distance = ZipDistance
	}
	return &Locator{dir: dir, distance: distance}
}

// Nearest returns the facility with the lowest distance score to the
// customer postal code. Ties go to the earlier directory entry.
func (l *Locator) Nearest(customerZip string) (Facility, error) {
	facilities := l.dir.Facilities()
	if len(facilities) == 0 {
		return Facility{}, ErrNoFacilityConfigured
	}
	best := facilities[0]
	bestScore := l.distance(best.Zip, customerZip)
	for _, f := range facilities[1:] {
		if score := l.distance(f.Zip, customerZip); score < bestScore {
			best = f
			bestScore = score
		}
	}
	return best, nil
}
