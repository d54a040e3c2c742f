package population

import (
	"math"

	"github.com/pthm-cable/mangrove/components"
	"github.com/pthm-cable/mangrove/config"
)

// secondsPerYear converts step durations to the yearly rates of the Kiwi model.
const secondsPerYear = 365.25 * 24 * 3600

// HeightCM returns the allometric height (cm) of a stem with diameter dbh (cm).
func HeightCM(sp *config.SpeciesConfig, dbh float64) float64 {
	return 137 + sp.B2*dbh - sp.B3*dbh*dbh
}

// PotentialGrowth returns the unlimited diameter growth (cm per year) of a
// stem with diameter dbh (cm), following the JABOWA/Kiwi growth equation.
func PotentialGrowth(sp *config.SpeciesConfig, dbh float64) float64 {
	h := HeightCM(sp, dbh)
	denom := 274 + 3*sp.B2*dbh - 4*sp.B3*dbh*dbh
	if denom <= 0 {
		return 0
	}
	g := sp.MaxGrowth * dbh * (1 - dbh*h/(sp.MaxDBH*sp.MaxHeight)) / denom
	return max(g, 0)
}

// ZOIRadius returns the zone-of-influence radius (m) for a stem radius (m),
// R = a * sqrt(r_stem) (Berger & Hildenbrandt 2000, eq. 1).
func ZOIRadius(sp *config.SpeciesConfig, rStem float64) float64 {
	return sp.AZOIScaling * math.Sqrt(rStem)
}

// GeometryFor derives the full geometry of a plant from its stem radius.
// The zone of influence serves as root plate and crown radius.
func GeometryFor(sp *config.SpeciesConfig, rStem float64) components.Geometry {
	r := ZOIRadius(sp, rStem)
	return components.Geometry{
		Height: HeightCM(sp, rStem*200) / 100,
		RStem:  rStem,
		RCrown: r,
		RRoot:  r,
		RAG:    r,
		RBG:    r,
	}
}

// Grow applies one step of resource-limited growth over dt seconds. The
// realised growth is the potential growth scaled by ag*bg. A plant dies when
// its realised growth falls below mortality_constant times its potential.
func Grow(sp *config.SpeciesConfig, geo components.Geometry, ag, bg, dt float64) (next components.Geometry, growth float64, alive bool) {
	dbh := geo.DBH()
	potential := PotentialGrowth(sp, dbh)
	realised := potential * ag * bg

	if realised < sp.MortalityConstant*potential {
		return geo, 0, false
	}

	growth = realised * dt / secondsPerYear
	return GeometryFor(sp, (dbh+growth)/200), growth, true
}
