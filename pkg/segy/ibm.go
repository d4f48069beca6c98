package segy

import "math"

// IBMToFloat64 converts an IBM System/360 single precision value: sign bit,
// 7-bit base-16 exponent biased by 64 and a 24-bit fraction.
func IBMToFloat64(v uint32) float64 {
	frac := v & 0x00FFFFFF
	if frac == 0 {
		return 0
	}
	exp := int((v>>24)&0x7F) - 64
	f := float64(frac) / (1 << 24) * math.Pow(16, float64(exp))
	if v&0x80000000 != 0 {
		return -f
	}
	return f
}

// Float64ToIBM converts f to IBM single precision, rounding the fraction to
// nearest. Values too large saturate at the largest IBM magnitude, values
// too small flush to zero. NaN encodes as zero.
func Float64ToIBM(f float64) uint32 {
	if f == 0 || math.IsNaN(f) {
		return 0
	}
	var sign uint32
	if f < 0 {
		sign = 0x80000000
		f = -f
	}
	if math.IsInf(f, 0) {
		return sign | 0x7FFFFFFF
	}

	// f = frac * 16^exp with 1/16 <= frac < 1.
	frac, exp2 := math.Frexp(f) // f = frac * 2^exp2, 0.5 <= frac < 1
	exp := exp2 / 4
	shift := exp2 % 4
	if shift > 0 {
		exp++
		shift -= 4
	}
	frac = math.Ldexp(frac, shift)

	mant := uint64(math.Round(frac * (1 << 24)))
	if mant >= 1<<24 {
		mant >>= 4
		exp++
	}

	biased := exp + 64
	switch {
	case biased > 127:
		return sign | 0x7FFFFFFF
	case biased < 0:
		return 0
	}
	return sign | uint32(biased)<<24 | uint32(mant)
}
