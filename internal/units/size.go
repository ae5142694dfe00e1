package units

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// ErrMalformedSize is returned when a size label does not look like "<number><unit>".
	ErrMalformedSize = errors.New("units: malformed size")
	// ErrUnknownUnit is returned when the unit suffix is not in the conversion table.
	ErrUnknownUnit = errors.New("units: unknown unit")
)

// Dimension identifies the base unit a magnitude is expressed in.
type Dimension string

const (
	// Mass magnitudes are expressed in grams.
	Mass Dimension = "mass"
	// Volume magnitudes are expressed in millilitres.
	Volume Dimension = "volume"
	// Count is used for bare numbers and unknown units.
	Count Dimension = "count"
)

const poundGrams = 453.592

var sizePattern = regexp.MustCompile(`^(\d+(\.\d+)?)\s*([a-zA-Z]+)?$`)

var gramFactors = map[string]float64{
	"g":   1,
	"gm":  1,
	"kg":  1000,
	"lb":  poundGrams,
	"lbs": poundGrams,
}

var millilitreFactors = map[string]float64{
	"ml":     1,
	"l":      1000,
	"litre":  1000,
	"liter":  1000,
	"litres": 1000,
	"liters": 1000,
	"oz":     29.5735,
	"pint":   473.176,
	"gallon": 3785.41,
}

// bag sizes some suppliers print as a single token
var wholeTokens = map[string]float64{
	"50lb":  50 * poundGrams,
	"50lbs": 50 * poundGrams,
}

// Size is a parsed size label.
type Size struct {
	Value     float64
	Unit      string
	Dimension Dimension
	// Base is Value converted to grams or millilitres.
	Base float64
}

// Parse converts a label such as "10kg", "2 L" or "50lb" into its magnitude.
// Malformed labels return ErrMalformedSize with a zero Size. Unknown units
// return ErrUnknownUnit together with a Size whose Base is the bare value.
func Parse(label string) (Size, error) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return Size{Dimension: Count}, nil
	}
	lower := strings.ToLower(trimmed)
	if base, ok := wholeTokens[lower]; ok {
		return Size{Value: 50, Unit: "lb", Dimension: Mass, Base: base}, nil
	}
	match := sizePattern.FindStringSubmatch(trimmed)
	if match == nil {
		return Size{}, fmt.Errorf("%w: %q", ErrMalformedSize, label)
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return Size{}, fmt.Errorf("%w: %q", ErrMalformedSize, label)
	}
	unit := strings.ToLower(match[3])
	if factor, ok := gramFactors[unit]; ok {
		return Size{Value: value, Unit: unit, Dimension: Mass, Base: value * factor}, nil
	}
	if factor, ok := millilitreFactors[unit]; ok {
		return Size{Value: value, Unit: unit, Dimension: Volume, Base: value * factor}, nil
	}
	size := Size{Value: value, Unit: unit, Dimension: Count, Base: value}
	if unit == "" {
		return size, nil
	}
	return size, fmt.Errorf("%w: %q", ErrUnknownUnit, unit)
}

// Normalize returns the magnitude of label in its base unit for ordering
// purposes. It never fails: malformed labels yield 0 and unknown units yield
// the bare number, both logged as warnings on the context logger. A bare
// number is a valid count and is only noted at debug level.
func Normalize(ctx context.Context, label string) float64 {
	size, err := Parse(label)
	switch {
	case err != nil:
		zerolog.Ctx(ctx).Warn().Err(err).Str("size", label).Msg("size_normalize")
	case size.Unit == "" && strings.TrimSpace(label) != "":
		zerolog.Ctx(ctx).Debug().Str("size", label).Msg("size_without_unit")
	}
	return size.Base
}

// Sort orders size labels by ascending magnitude. Labels with equal
// magnitude keep their relative order.
func Sort(ctx context.Context, labels []string) {
	keys := make(map[string]float64, len(labels))
	for _, label := range labels {
		if _, ok := keys[label]; !ok {
			keys[label] = Normalize(ctx, label)
		}
	}
	sort.SliceStable(labels, func(i, j int) bool {
		return keys[labels[i]] < keys[labels[j]]
	})
}
