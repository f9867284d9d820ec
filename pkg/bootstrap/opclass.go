// Operating-class to frequency mapping for channel hints in bootstrapping
// URIs. The table is the curated subset of the IEEE 802.11 global operating
// classes a provisioning exchange can realistically be listening on.

package bootstrap

import "errors"

// Errors for operating-class lookups.
var (
	ErrUnknownChannel   = errors.New("bootstrap: no frequency for operating class/channel")
	ErrUnknownFrequency = errors.New("bootstrap: no operating class for frequency")
)

// opClassRange describes one operating class as an arithmetic channel range.
type opClassRange struct {
	class    uint8
	baseFreq uint32 // MHz; channel center = baseFreq + channel * 5
	first    uint8
	last     uint8
	step     uint8
}

// Global operating classes, ascending. 124 precedes 125 and covers a subset
// of its channels, so frequency lookups resolve 5745-5805 to 124.
var opClasses = []opClassRange{
	{class: 81, baseFreq: 2407, first: 1, last: 13, step: 1},    // 2.4 GHz
	{class: 115, baseFreq: 5000, first: 36, last: 48, step: 4},  // 5 GHz UNII-1
	{class: 118, baseFreq: 5000, first: 52, last: 64, step: 4},  // 5 GHz UNII-2
	{class: 121, baseFreq: 5000, first: 100, last: 140, step: 4},// 5 GHz UNII-2e
	{class: 124, baseFreq: 5000, first: 149, last: 161, step: 4},// 5 GHz UNII-3
	{class: 125, baseFreq: 5000, first: 149, last: 169, step: 4},// 5 GHz UNII-3 ext
	{class: 131, baseFreq: 5950, first: 1, last: 233, step: 4},  // 6 GHz
}

func (r opClassRange) contains(channel uint8) bool {
	if channel < r.first || channel > r.last {
		return false
	}
	return (channel-r.first)%r.step == 0
}

// FreqOf returns the center frequency in MHz for an operating class and
// channel number.
func FreqOf(class, channel uint8) (uint32, error) {
	for _, r := range opClasses {
		if r.class != class {
			continue
		}
		if !r.contains(channel) {
			return 0, ErrUnknownChannel
		}
		return r.baseFreq + uint32(channel)*5, nil
	}
	return 0, ErrUnknownChannel
}

// ClassOf returns the first operating class and channel mapping to a
// frequency in MHz. 2.4 GHz frequencies resolve to class 81 and 5 GHz
// UNII-1 to class 115.
func ClassOf(freq uint32) (class, channel uint8, err error) {
	for _, r := range opClasses {
		if freq < r.baseFreq+uint32(r.first)*5 || freq > r.baseFreq+uint32(r.last)*5 {
			continue
		}
		if (freq-r.baseFreq)%5 != 0 {
			continue
		}
		ch := uint8((freq - r.baseFreq) / 5)
		if r.contains(ch) {
			return r.class, ch, nil
		}
	}
	return 0, 0, ErrUnknownFrequency
}
