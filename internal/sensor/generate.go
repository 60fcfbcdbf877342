package sensor

import (
	"math"
	"math/rand"

	"github.com/vvka-141/pgrls/pkg/pgrls"
)

// Generated readings spread across tenants [1, maxTenant].
const maxTenant = 9

// LocationOffice and LocationHome label the two synthetic data shapes.
const (
	LocationOffice = "office"
	LocationHome   = "home"
)

// Office generates n office readings with random tenants in
// [1, maxTenant]. Temperature and humidity wander around a randomized
// baseline, clamped to plausible ranges. All measurements are non-null,
// so the output is valid for both write strategies.
func Office(n int) []pgrls.Reading {
	return generate(n, LocationOffice, 10+rand.Float64()*5, 30+rand.Float64()*20, 30, RandomTenant)
}

// OfficeForTenant generates n office readings that all belong to tenantID.
func OfficeForTenant(tenantID int64, n int) []pgrls.Reading {
	return generate(n, LocationOffice, 10+rand.Float64()*5, 30+rand.Float64()*20, 30, fixedTenant(tenantID))
}

// Home generates n home readings with random tenants in [1, maxTenant].
func Home(n int) []pgrls.Reading {
	return generate(n, LocationHome, 5+rand.Float64()*5, 40+rand.Float64()*20, 20, RandomTenant)
}

// HomeForTenant generates n home readings that all belong to tenantID.
func HomeForTenant(tenantID int64, n int) []pgrls.Reading {
	return generate(n, LocationHome, 5+rand.Float64()*5, 40+rand.Float64()*20, 20, fixedTenant(tenantID))
}

// RandomTenant picks a tenant in [1, maxTenant].
func RandomTenant() int64 {
	return 1 + rand.Int63n(maxTenant)
}

func fixedTenant(tenantID int64) func() int64 {
	return func() int64 { return tenantID }
}

// generate produces a trig-perturbed walk around the given baselines:
// temperature stays within [baseTemp, maxTemp], humidity within [0, 100].
func generate(n int, location string, baseTemp, baseHum, maxTemp float64, tenant func() int64) []pgrls.Reading {
	readings := make([]pgrls.Reading, 0, n)
	for i := 1; i <= n; i++ {
		x := float64(i)

		temp := baseTemp + math.Min(math.Cos(math.Mod(x, 1000)*x)-math.Sin(math.Mod(x, 100)), maxTemp-baseTemp)

		hum := baseHum
		if s := math.Sin(math.Mod(x, 1000)); s != 0 {
			drift := math.Tan(math.Mod(x, 1000)*x) / s
			hum += math.Max(math.Min(drift, 100-baseHum), 0-baseHum)
		}

		readings = append(readings, pgrls.Reading{
			TenantID:    tenant(),
			Location:    location,
			Temperature: pgrls.Float64(temp),
			Humidity:    pgrls.Float64(hum),
		})
	}
	return readings
}
