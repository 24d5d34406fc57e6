// Package hlpredict implements C4, the Hardy-Littlewood A prediction
// 2S_GB(2n) = 4*C2*prod_{p|n, p odd}(p-1)/(p-2).
package hlpredict

import "github.com/grailbio/gbsieve/primestore"

// TwinPrimeConstant is C2, the Hardy-Littlewood twin-prime constant.
const TwinPrimeConstant = 0.6601618158468695739278121100145557784

// baseConstant is 4*C2: the doubled-then-doubled-again base of 2S_GB.
const baseConstant = 4 * TwinPrimeConstant

// Predict computes 2S_GB(2n) by stripping factors of 2 from n and trial
// dividing the odd part against the primes in stream, multiplying in
// (p-1)/(p-2) for each distinct odd prime factor. stream must cover primes
// at least up to sqrt(n).
func Predict(n uint64, stream *primestore.Stream) float64 {
	remaining := oddPart(n)
	result := baseConstant

	for i := 1; i < stream.Len(); i++ { // index 0 is 2; odd part has no factor of 2
		p := stream.At(i)
		if p*p > remaining {
			break
		}
		if remaining%p == 0 {
			result *= float64(p-1) / float64(p-2)
			for remaining%p == 0 {
				remaining /= p
			}
		}
	}
	if remaining > 1 {
		// A single residual prime factor larger than any trial-divided prime
		// in the stream.
		result *= float64(remaining-1) / float64(remaining-2)
	}
	return result
}

func oddPart(n uint64) uint64 {
	for n != 0 && n%2 == 0 {
		n /= 2
	}
	return n
}
