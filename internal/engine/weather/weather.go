// Package weather resolves a deterministic daily weather state from a
// world seed, a day ordinal, and the season's climate profile. The same
// inputs always produce the same Report, so every participant sees the
// same sky without storing anything.
package weather

import (
	"fmt"
	"math"

	"github.com/keyxmakerx/almanac/internal/engine/schema"
	"github.com/keyxmakerx/almanac/internal/engine/seedrand"
)

// Condition is the day's dominant weather.
type Condition string

const (
	ConditionClear    Condition = "clear"
	ConditionOvercast Condition = "overcast"
	ConditionFog      Condition = "fog"
	ConditionRain     Condition = "rain"
	ConditionStorm    Condition = "storm"
	ConditionSnow     Condition = "snow"
)

// Wet reports whether the condition drops precipitation.
func (c Condition) Wet() bool {
	return c == ConditionRain || c == ConditionStorm || c == ConditionSnow
}

// Severe reports whether the condition is strong enough to disrupt
// travel and outdoor scenes.
func (c Condition) Severe() bool {
	return c == ConditionStorm
}

// Report is the resolved weather for one day.
type Report struct {
	Condition     Condition `json:"condition"`
	TempC         float64   `json:"temp_c"`
	WindKPH       float64   `json:"wind_kph"`
	Precipitation float64   `json:"precipitation_mm"`
}

// Climate defaults applied when no season covers the date.
const (
	defaultBaseTempC = 12.0
	defaultVarianceC = 8.0
	defaultHumidity  = 0.5
)

// Daily resolves the weather for one day. Temperature swings around the
// season's base by its variance, and the condition is drawn from a
// humidity-weighted table, with precipitation falling as snow at or
// below freezing.
func Daily(seed int64, dayOrdinal int64, season *schema.Season) Report {
	base, variance, humidity := defaultBaseTempC, defaultVarianceC, defaultHumidity
	if season != nil {
		base = season.BaseTempC
		variance = math.Max(season.TempVarianceC, 0)
		humidity = clamp01(season.Humidity)
	}

	src := seedrand.New(seedrand.Hash53(fmt.Sprintf("%d-day-%d", seed, dayOrdinal), 0))

	temp := base + (2*src.Float64()-1)*variance
	cond := condition(src.Float64(), humidity, temp)
	wind := 4 + src.Float64()*28

	var precip float64
	switch cond {
	case ConditionRain:
		precip = 1 + src.Float64()*11
	case ConditionStorm:
		precip = 8 + src.Float64()*22
		wind += 20 + src.Float64()*40
	case ConditionSnow:
		precip = 0.5 + src.Float64()*7.5
	}

	return Report{
		Condition:     cond,
		TempC:         round1(temp),
		WindKPH:       round1(wind),
		Precipitation: round1(precip),
	}
}

// condition picks from the weighted table. Wetter seasons widen the
// precipitation and fog bands; the overcast band is fixed.
func condition(roll, humidity, temp float64) Condition {
	wet := 0.12 + 0.5*humidity
	fog := wet + 0.1*humidity
	cloud := fog + 0.25
	switch {
	case roll < wet:
		if temp <= 0 {
			return ConditionSnow
		}
		if roll < wet*0.3 {
			return ConditionStorm
		}
		return ConditionRain
	case roll < fog:
		return ConditionFog
	case roll < cloud:
		return ConditionOvercast
	}
	return ConditionClear
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
