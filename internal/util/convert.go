// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"math"
	"strconv"
)

// FormatScore formats a trust score in [0, 1] with 2 decimal places.
func FormatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// FormatScorePercent formats a trust score in [0, 1] as a whole percentage,
// e.g. 0.914 renders as "91%".
func FormatScorePercent(f float64) string {
	return strconv.Itoa(int(math.Round(f*100))) + "%"
}

// IntToString converts an int to string.
func IntToString(i int) string {
	return strconv.Itoa(i)
}
