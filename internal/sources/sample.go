package sources

import (
	"math"
	"math/rand"
	"strconv"
	"time"

	"vahanpulse/internal/dataprocessing"
	"vahanpulse/pkg/contracts/domain"
)

// SampleColumns is the header of generated sample tables.
var SampleColumns = []string{"Date", "Vehicle_Type", "Manufacturer", "Registrations"}

// SampleOptions configures GenerateSample.
type SampleOptions struct {
	Months int
	Seed   int64
	// End is any day of the last generated month; zero means the current month.
	End time.Time
}

type sampleSegment struct {
	vehicleType string
	base        float64
	makers      []string
}

var sampleSegments = []sampleSegment{
	{"2W", 20000, []string{"Hero", "Honda", "TVS", "Bajaj", "Yamaha"}},
	{"3W", 3000, []string{"Bajaj", "Piaggio", "Mahindra", "Atul"}},
	{"4W", 12000, []string{"Maruti", "Hyundai", "Tata", "Mahindra", "Kia"}},
}

// GenerateSample produces monthly registrations per segment and maker for the
// Months months ending with End's month. The same options always produce the
// same table.
func GenerateSample(opts SampleOptions) dataprocessing.RawTable {
	months := opts.Months
	if months <= 0 {
		months = 48
	}
	end := opts.End
	if end.IsZero() {
		end = time.Now()
	}
	end = domain.TruncateDay(end)
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)

	rng := rand.New(rand.NewSource(opts.Seed))
	uniform := func(lo, hi float64) float64 { return lo + rng.Float64()*(hi-lo) }

	var rows [][]string
	for i := months - 1; i >= 0; i-- {
		month := last.AddDate(0, -i, 0)
		seasonal := 1.0 + 0.1*math.Sin(2*math.Pi*float64(month.Month())/12)

		for _, seg := range sampleSegments {
			for _, maker := range seg.makers {
				share := uniform(0.6, 1.4) / float64(len(seg.makers))
				count := int64(seg.base * share * seasonal * uniform(0.6, 1.4))
				if count < 0 {
					count = 0
				}
				rows = append(rows, []string{
					month.Format(domain.DateLayout),
					seg.vehicleType,
					maker,
					strconv.FormatInt(count, 10),
				})
			}
		}
	}

	return dataprocessing.NewRawTable(SampleColumns, rows)
}
