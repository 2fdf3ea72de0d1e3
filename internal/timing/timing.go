// Package timing converts frame delays to the jiffy unit (1/60 s) used by
// the display-rate field of animated cursors.
package timing

import "math"

// JiffyMS is the length of one jiffy in milliseconds.
const JiffyMS = 16.667

// ToJiffies rounds ms to the nearest whole jiffy, halves away from zero.
// Close delays collapse: 30 ms and 40 ms both give 2 jiffies.
func ToJiffies(ms uint32) uint32 {
	return uint32(math.Round(float64(ms) / JiffyMS))
}

// ToMS returns the nominal duration of n jiffies in milliseconds.
func ToMS(jiffies uint32) float64 {
	return float64(jiffies) * JiffyMS
}
