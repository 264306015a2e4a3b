package domain

import (
	"strconv"
	"strings"
)

// Signal K paths emitted by the translator.
const (
	PathInsideTemperature  = "environment.inside.temperature"
	PathInsideHumidity     = "environment.inside.humidity"
	PathInsideHeatIndex    = "environment.inside.heatIndexTemperature"
	PathOutsidePressure    = "environment.outside.pressure"
	PathOutsideTemperature = "environment.outside.temperature"
	PathOutsideHumidity    = "environment.outside.humidity"
	PathOutsideHeatIndex   = "environment.outside.heatIndexTemperature"
	PathSolarRadiation     = "environment.outside.solarRadiation"
	PathUVIndex            = "environment.outside.uvIndex"
	PathRainPrefix         = "environment.outside.rain."

	PathWindSpeedTrue     = "environment.wind.speedTrue"
	PathWindSpeedApparent = "environment.wind.speedApparent"
	PathWindGustTrue      = "environment.wind.gustTrue"
	PathWindGustApparent  = "environment.wind.gustApparent"
	PathWindDirectionTrue = "environment.wind.directionTrue"
	PathWindAngleApparent = "environment.wind.angleApparent"
)

// rainPeriods are the piezo gauge accumulation periods in emission order.
var rainPeriods = []string{"rate", "event", "daily", "weekly", "monthly", "yearly"}

// channelKeys holds the precomputed form keys for one auxiliary channel.
type channelKeys struct {
	temperature string
	humidity    string
}

// Translator converts gateway field sets into observation batches.
// It holds no mutable state and is safe for concurrent use.
type Translator struct {
	cfg      TranslatorConfig
	channels [ChannelCount]channelKeys
	rainKeys []string
}

// NewTranslator resolves cfg once into direct key and path lookups.
func NewTranslator(cfg TranslatorConfig) *Translator {
	t := &Translator{cfg: cfg}
	t.cfg.IntegratedModelPrefixes = append([]string(nil), cfg.IntegratedModelPrefixes...)
	for i := range t.channels {
		n := strconv.Itoa(i + 1)
		t.channels[i] = channelKeys{
			temperature: "temp" + n + "f",
			humidity:    "humidity" + n,
		}
	}
	t.rainKeys = make([]string, len(rainPeriods))
	for i, period := range rainPeriods {
		t.rainKeys[i] = period[:1] + "rain_piezo"
	}
	return t
}

// Translate builds a fresh batch from fields. Missing or unparseable keys skip
// only the observations that depend on them.
func (t *Translator) Translate(fields FieldSet) Batch {
	batch := make(Batch, 0, 24)

	t.indoor(fields, &batch)
	t.auxiliaryChannels(fields, &batch)
	t.integratedSensor(fields, &batch)
	t.extras(fields, &batch)
	t.rain(fields, &batch)
	t.wind(fields, &batch)

	return batch
}

func (t *Translator) indoor(fields FieldSet, batch *Batch) {
	temp, hasTemp := fields.Float("tempinf")
	if hasTemp {
		batch.add(PathInsideTemperature, TemperatureFToK(temp))
	}
	humidity, hasHumidity := fields.Float("humidityin")
	if hasHumidity {
		batch.add(PathInsideHumidity, HumidityPercentToRatio(humidity))
	}
	if pressure, ok := fields.Float("baromabsin"); ok {
		batch.add(PathOutsidePressure, PressureInHgToPa(pressure))
	}
	if hasTemp && hasHumidity {
		batch.add(PathInsideHeatIndex, TemperatureFToK(HeatIndexF(temp, humidity)))
	}
}

func (t *Translator) auxiliaryChannels(fields FieldSet, batch *Batch) {
	for i, keys := range t.channels {
		paths := t.cfg.Channels[i]

		temp, hasTemp := fields.Float(keys.temperature)
		if hasTemp && paths.TemperaturePath != "" {
			batch.add(paths.TemperaturePath, TemperatureFToK(temp))
		}
		humidity, hasHumidity := fields.Float(keys.humidity)
		if hasHumidity && paths.HumidityPath != "" {
			batch.add(paths.HumidityPath, HumidityPercentToRatio(humidity))
		}
		// Channel heat index stays in °F; the indoor and outdoor ones are converted.
		if hasTemp && hasHumidity && paths.HeatIndexPath != "" {
			batch.add(paths.HeatIndexPath, HeatIndexF(temp, humidity))
		}
	}
}

func (t *Translator) integratedSensor(fields FieldSet, batch *Batch) {
	if !t.hasIntegratedSensor(fields["model"]) {
		return
	}
	temp, hasTemp := fields.Float("tempf")
	if hasTemp {
		batch.add(PathOutsideTemperature, TemperatureFToK(temp))
	}
	humidity, hasHumidity := fields.Float("humidity")
	if hasHumidity {
		batch.add(PathOutsideHumidity, HumidityPercentToRatio(humidity))
	}
	if hasTemp && hasHumidity {
		batch.add(PathOutsideHeatIndex, TemperatureFToK(HeatIndexF(temp, humidity)))
	}
}

func (t *Translator) hasIntegratedSensor(model string) bool {
	if model == "" {
		return false
	}
	for _, prefix := range t.cfg.IntegratedModelPrefixes {
		if prefix != "" && strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

func (t *Translator) extras(fields FieldSet, batch *Batch) {
	if solar, ok := fields.Float("solarradiation"); ok {
		batch.add(PathSolarRadiation, solar)
	}
	if uv, ok := fields.Int("uv"); ok {
		batch.add(PathUVIndex, float64(uv))
	}
}

func (t *Translator) rain(fields FieldSet, batch *Batch) {
	for i, key := range t.rainKeys {
		if in, ok := fields.Float(key); ok {
			batch.add(PathRainPrefix+rainPeriods[i], LengthInToMm(in))
		}
	}
}

func (t *Translator) wind(fields FieldSet, batch *Batch) {
	if speed, ok := fields.Float("windspeedmph"); ok {
		batch.add(t.windPath(PathWindSpeedTrue, PathWindSpeedApparent), SpeedMphToMps(speed))
	}
	if gust, ok := fields.Float("windgustmph"); ok {
		batch.add(t.windPath(PathWindGustTrue, PathWindGustApparent), SpeedMphToMps(gust))
	}
	if dir, ok := fields.Float("winddir"); ok {
		batch.add(t.windPath(PathWindDirectionTrue, PathWindAngleApparent), AngleDegToRad(dir))
	}
}

func (t *Translator) windPath(truePath, apparentPath string) string {
	if t.cfg.WindTrue {
		return truePath
	}
	return apparentPath
}
