package calendar

import (
	"math"
	"time"
)

const (
	unixEpochJD = 2440587.5
	j2000JD     = 2451545.0
	deg         = math.Pi / 180
)

// MoonPhase returns the illuminated fraction of the moon, in percent, at
// 00:00 UTC of t's date. Low-precision lunar theory, good to well under one
// percent.
func MoonPhase(t time.Time) float64 {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	jd := float64(midnight.Unix())/86400 + unixEpochJD
	T := (jd - j2000JD) / 36525

	D := normDeg(297.8501921 + 445267.1114034*T)  // mean elongation
	M := normDeg(357.5291092 + 35999.0502909*T)   // sun mean anomaly
	Mp := normDeg(134.9633964 + 477198.8675055*T) // moon mean anomaly

	// phase angle
	i := 180 - D -
		6.289*math.Sin(Mp*deg) +
		2.100*math.Sin(M*deg) -
		1.274*math.Sin((2*D-Mp)*deg) -
		0.658*math.Sin(2*D*deg) -
		0.214*math.Sin(2*Mp*deg) -
		0.110*math.Sin(D*deg)

	return 100 * (1 + math.Cos(i*deg)) / 2
}

func normDeg(x float64) float64 {
	x = math.Mod(x, 360)
	if x < 0 {
		x += 360
	}
	return x
}
