// Package labels maps canonical sky and moon phase values to display strings.
package labels

import (
	"golang.org/x/text/language"

	"github.com/i474232898/fishing-log/internal/common"
	"github.com/i474232898/fishing-log/internal/weather"
)

var supported = []language.Tag{
	language.English, // first tag is the fallback
	language.Portuguese,
}

var matcher = language.NewMatcher(supported)

type table struct {
	lang  string
	sky   map[weather.Sky]string
	moons map[string]string // keyed by normalized phase
}

var tables = map[string]table{
	"en": {
		lang: "en",
		sky: map[weather.Sky]string{
			weather.SkyClear:        "Clear",
			weather.SkyPartlyCloudy: "Partly cloudy",
			weather.SkyCloudy:       "Cloudy",
			weather.SkyOvercast:     "Overcast",
			weather.SkyRain:         "Rain",
			weather.SkyLightRain:    "Light rain",
			weather.SkyHeavyRain:    "Heavy rain",
			weather.SkyThunderstorm: "Thunderstorm",
			weather.SkySnow:         "Snow",
			weather.SkyLightSnow:    "Light snow",
			weather.SkyHeavySnow:    "Heavy snow",
			weather.SkyMist:         "Mist",
			weather.SkyFog:          "Fog",
			weather.SkyHaze:         "Haze",
		},
		moons: map[string]string{
			"new":            "New Moon",
			"waxingcrescent": "Waxing Crescent",
			"firstquarter":   "First Quarter",
			"waxinggibbous":  "Waxing Gibbous",
			"full":           "Full Moon",
			"waninggibbous":  "Waning Gibbous",
			"lastquarter":    "Last Quarter",
			"waningcrescent": "Waning Crescent",
		},
	},
	"pt": {
		lang: "pt",
		sky: map[weather.Sky]string{
			weather.SkyClear:        "Céu limpo",
			weather.SkyPartlyCloudy: "Parcialmente nublado",
			weather.SkyCloudy:       "Nublado",
			weather.SkyOvercast:     "Encoberto",
			weather.SkyRain:         "Chuva",
			weather.SkyLightRain:    "Chuva fraca",
			weather.SkyHeavyRain:    "Chuva forte",
			weather.SkyThunderstorm: "Trovoada",
			weather.SkySnow:         "Neve",
			weather.SkyLightSnow:    "Neve fraca",
			weather.SkyHeavySnow:    "Neve forte",
			weather.SkyMist:         "Neblina",
			weather.SkyFog:          "Nevoeiro",
			weather.SkyHaze:         "Névoa seca",
		},
		moons: map[string]string{
			"new":            "Lua Nova",
			"waxingcrescent": "Lua Crescente",
			"firstquarter":   "Quarto Crescente",
			"waxinggibbous":  "Crescente Gibosa",
			"full":           "Lua Cheia",
			"waninggibbous":  "Minguante Gibosa",
			"lastquarter":    "Quarto Minguante",
			"waningcrescent": "Lua Minguante",
		},
	},
}

// Translator renders canonical values in one language. The zero value is not usable; use For.
type Translator struct {
	t table
}

// For picks the best supported language for the given preferences, which may be
// plain tags ("pt") or Accept-Language header values ("pt-BR,pt;q=0.9,en;q=0.8").
// Unmatched or empty preferences fall back to English.
func For(prefs ...string) Translator {
	tag, _ := language.MatchStrings(matcher, prefs...)
	base, _ := tag.Base()
	if t, ok := tables[base.String()]; ok {
		return Translator{t: t}
	}
	return Translator{t: tables["en"]}
}

// Lang returns the language code the translator renders.
func (tr Translator) Lang() string {
	return tr.t.lang
}

// Sky returns the display string for a sky condition, or the value itself when unknown.
func (tr Translator) Sky(s weather.Sky) string {
	if label, ok := tr.t.sky[weather.Sky(common.NormalizeKey(string(s)))]; ok {
		return label
	}
	return string(s)
}

// MoonPhase returns the display string for a moon phase. Both calculator labels
// and provider strings ("Full Moon", "full moon", "Waxing crescent") are accepted;
// unknown values are returned unchanged.
func (tr Translator) MoonPhase(phase string) string {
	if label, ok := tr.t.moons[common.NormalizeKey(phase, "moon")]; ok {
		return label
	}
	return phase
}

// Reading holds the display strings for a reading.
type Reading struct {
	Lang      string `json:"lang"`
	Sky       string `json:"sky"`
	MoonPhase string `json:"moonPhase"`
}

// ForReading renders the labelled fields of r.
func (tr Translator) ForReading(r weather.Reading) Reading {
	return Reading{
		Lang:      tr.t.lang,
		Sky:       tr.Sky(r.Sky),
		MoonPhase: tr.MoonPhase(r.MoonPhase),
	}
}

// Forecast holds the display strings for a forecast: the current reading and
// the moon phase of each day, in order.
type Forecast struct {
	Lang    string   `json:"lang"`
	Current Reading  `json:"current"`
	Daily   []string `json:"dailyMoonPhase"`
}

// ForForecast renders the labelled fields of f.
func (tr Translator) ForForecast(f weather.Forecast) Forecast {
	daily := make([]string, 0, len(f.Daily))
	for _, d := range f.Daily {
		daily = append(daily, tr.MoonPhase(d.MoonPhase))
	}
	return Forecast{
		Lang:    tr.t.lang,
		Current: tr.ForReading(f.Current),
		Daily:   daily,
	}
}
