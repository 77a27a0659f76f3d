package terminal

import "strconv"

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseFloatOrZero(s string) float64 {
	f, _ := parseFloat(s)
	return f
}
