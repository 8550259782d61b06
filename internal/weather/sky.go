package weather

// SkyFromCloudCover buckets a cloud cover percentage. Values outside 0-100
// fall into the nearest band.
func SkyFromCloudCover(pct float64) Sky {
	switch {
	case pct < 10:
		return SkyClear
	case pct < 30:
		return SkyPartlyCloudy
	case pct < 70:
		return SkyCloudy
	default:
		return SkyOvercast
	}
}

type conditionRule struct {
	codes []int
	sky   Sky
}

// conditionRules maps WeatherAPI.com condition codes to sky buckets.
// Rules are checked in order and the first match wins: 1225 is listed for
// both snow and heavy snow upstream and resolves to snow.
var conditionRules = []conditionRule{
	{codes: []int{1000}, sky: SkyClear},
	{codes: []int{1003}, sky: SkyPartlyCloudy},
	{codes: []int{1006, 1009}, sky: SkyCloudy},
	{codes: []int{1063, 1150, 1153, 1168, 1171}, sky: SkyLightRain},
	{codes: []int{1180, 1183, 1186, 1189, 1192, 1195}, sky: SkyRain},
	{codes: []int{1198, 1201, 1243, 1246}, sky: SkyHeavyRain},
	{codes: []int{1087, 1273, 1276, 1279, 1282}, sky: SkyThunderstorm},
	{codes: []int{1066, 1210, 1213, 1216}, sky: SkyLightSnow},
	{codes: []int{1219, 1222, 1225}, sky: SkySnow},
	{codes: []int{1114, 1117, 1225, 1237, 1258, 1261, 1264}, sky: SkyHeavySnow},
	{codes: []int{1030, 1135, 1147}, sky: SkyMist},
	{codes: []int{1069}, sky: SkyFog},
}

// SkyFromConditionCode maps a WeatherAPI.com condition code to a sky bucket.
// Unknown codes map to SkyCloudy.
func SkyFromConditionCode(code int) Sky {
	for _, rule := range conditionRules {
		for _, c := range rule.codes {
			if c == code {
				return rule.sky
			}
		}
	}
	return SkyCloudy
}
