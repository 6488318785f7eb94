// netinfo prints a layout's topology: intersections, roads with free-flow
// travel times, and pairwise route costs. Useful for sanity-checking a
// layout before running the simulator against it.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/banshee-data/intersect.report/internal/config"
	"github.com/banshee-data/intersect.report/internal/network"
	"github.com/banshee-data/intersect.report/internal/route"
	"github.com/banshee-data/intersect.report/internal/units"
)

var (
	layout     = flag.String("layout", network.LayoutGrid2x2, "Network layout to describe")
	asJSON     = flag.Bool("json", false, "Emit the raw network state as JSON")
	withCost   = flag.Bool("routes", false, "Print pairwise route costs")
	speedUnits = flag.String("speed-units", units.KMPH, fmt.Sprintf("Units for printed speed limits (%s)", strings.Join(units.ValidSpeedUnits, ", ")))
)

func main() {
	flag.Parse()

	if !units.IsValidSpeedUnit(*speedUnits) {
		log.Fatalf("invalid speed units %q, want one of %s", *speedUnits, strings.Join(units.ValidSpeedUnits, ", "))
	}

	st, err := network.BuildLayout(*layout)
	if err != nil {
		log.Fatalf("failed to build layout: %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(st); err != nil {
			log.Fatalf("failed to encode state: %v", err)
		}
		return
	}

	fmt.Printf("layout %s: %d intersections, %d roads\n\n", *layout, len(st.Intersections), len(st.Roads))

	for _, id := range st.IntersectionIDs() {
		ic := st.Intersections[id]
		fmt.Printf("%-8s (%.0f, %.0f)\n", id, ic.Pos.X, ic.Pos.Y)
		for _, r := range st.RoadsOutOf(id) {
			r.RecomputeTravelTime()
			limit := units.ConvertSpeed(units.KmhToMps(r.SpeedLimitKmh), *speedUnits)
			fmt.Printf("  -> %-8s %s %6.0fm %2d lanes %5.1f %s %6.1fs free-flow\n",
				r.To, r.Direction, r.LengthM, r.Lanes, limit, *speedUnits, r.TravelTimeS)
		}
	}

	if !*withCost {
		return
	}

	penalty := config.Default().GetCongestionPenaltySeconds()
	fmt.Println()
	for _, from := range st.IntersectionIDs() {
		for _, to := range st.IntersectionIDs() {
			if from == to {
				continue
			}
			segments, cost, err := route.Plan(st, from, to, penalty)
			if err != nil {
				fmt.Printf("%-8s -> %-8s unreachable: %v\n", from, to, err)
				continue
			}
			fmt.Printf("%-8s -> %-8s %6.1fs over %d roads (%.0fm)\n",
				from, to, cost, len(segments), route.TotalDistance(st, segments))
		}
	}
}
