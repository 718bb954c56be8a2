// Package temperature holds the pure arithmetic and parsing used when
// comparing thermometer readings with what the router console displays.
package temperature

import (
	"errors"
	"math"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Step is the granularity of both the sensor offset control and the target
// temperature stepper.
const Step = 0.5

// ErrEmptyDisplay is returned when a display element has no text (yet).
var ErrEmptyDisplay = errors.New("display is empty")

// Normalize rounds a reference reading down to the nearest half degree, so the
// recalibrated thermostat errs on the warmer side.
func Normalize(reading float64) float64 {
	return math.Floor(reading*2) / 2
}

// ParseDisplay converts the text of a console display element, e.g. "21,5",
// "21,5 °C" or "22", into a number.
func ParseDisplay(text string) (float64, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimSuffix(s, "°C")
	s = strings.TrimSuffix(s, "°")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmptyDisplay
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to parse display text %q", text)
	}

	return v, nil
}

// Steps returns how many clicks of size step are needed to move from one
// value to another. It is zero when from is already at or past to.
func Steps(from, to, step float64) int {
	if step <= 0 || from >= to {
		return 0
	}
	return int(math.Ceil((to - from) / step))
}
