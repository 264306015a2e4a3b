// Package domain translates Ecowitt gateway telemetry into Signal K style
// observations.
//
// # Data Source
//
// Ecowitt gateways (GW1000, GW1100, GW2000 and the consoles that share their
// firmware) can be configured to upload to a "customized" server using the
// Ecowitt protocol. Each upload is an HTTP POST whose body is
// application/x-www-form-urlencoded, e.g.
//
//	PASSKEY=...&stationtype=GW2000A_V2.2.4&model=GW2000A&tempinf=72.3&humidityin=41&baromabsin=29.912&...
//
// Keys are optional and depend on which sensors are paired with the gateway.
// The transport decodes the body into a [FieldSet]; this package never sees
// HTTP.
//
// # Ecowitt Conventions
//
// Units are imperial:
//
//	temperature  °F        tempinf, tempf, temp1f..temp8f
//	humidity     %         humidityin, humidity, humidity1..humidity8
//	pressure     inHg      baromabsin, baromrelin
//	wind         mph, deg  windspeedmph, windgustmph, winddir
//	rain         in        rrain_piezo, erain_piezo, drain_piezo, ... (piezo gauge)
//	solar        W/m²      solarradiation (no conversion needed)
//	uv           index     uv
//
// Rain keys for the piezo gauge are the first letter of the period followed by
// "rain_piezo": r(ate), e(vent), d(aily), w(eekly), m(onthly), y(early).
//
// # Output Conventions
//
// Observations use Signal K paths and SI units: kelvin, pascal, radians, m/s,
// humidity as a 0-1 ratio, rain in millimetres. Conversions round half up at
// fixed decimal places, so existing Signal K dashboards see the same numbers
// they always have. See [TemperatureFToK] and friends.
//
// Heat index uses the NOAA Rothfusz regression ([HeatIndexF]). Indoor and
// station-integrated heat index are emitted in kelvin. Auxiliary channel heat
// index is emitted in °F, unconverted, for compatibility with existing
// consumers of those paths.
package domain
