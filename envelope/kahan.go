package envelope

// kahanSum implements Kahan-compensated summation, used throughout this
// package to tame the catastrophic cancellation that Sigma log(p-r) is
// prone to over long prime walks. This is the portable substitute for
// 80-bit long double the module's design note calls for on platforms
// (such as Apple Silicon) where extended precision isn't available.
type kahanSum struct {
	sum float64
	c   float64 // running compensation for lost low-order bits
}

func (k *kahanSum) add(x float64) {
	y := x - k.c
	t := k.sum + y
	k.c = (t - k.sum) - y
	k.sum = t
}
