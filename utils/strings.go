package utils

import (
	"math"
	"strconv"
	"strings"
)

// SpaceDelimitedStringToFloatSlice is a helper method to split up space-delimited fields in a
// string and converts them to floats. Unparseable fields become NaN.
func SpaceDelimitedStringToFloatSlice(s string) []float64 {
	var converted []float64
	slice := strings.Fields(s)
	for _, value := range slice {
		value, err := strconv.ParseFloat(value, 64)
		if err != nil {
			value = math.NaN()
		}
		converted = append(converted, value)
	}
	return converted
}

// FloatTriple parses "x y z" into three floats, padding missing components with def.
func FloatTriple(s string, def float64) [3]float64 {
	out := [3]float64{def, def, def}
	for i, v := range SpaceDelimitedStringToFloatSlice(s) {
		if i >= len(out) {
			break
		}
		out[i] = v
	}
	return out
}
