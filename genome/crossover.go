package genome

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrUnknownCrossover is returned by ParseCrossover for an unrecognised name.
var ErrUnknownCrossover = errors.New("genome: unknown crossover strategy")

// Crossover combines two parents of equal length into a new child genome.
type Crossover func(a, b Genome, rng *rand.Rand) Genome

// Uniform takes each whole gene from a or b with an independent fair coin.
func Uniform(a, b Genome, rng *rand.Rand) Genome {
	mustMatch(a, b)
	child := make(Genome, len(a))
	for i := range child {
		if rng.Float64() < 0.5 {
			child[i] = a[i]
		} else {
			child[i] = b[i]
		}
	}
	return child
}

// SinglePoint picks one cut in [0, len]: genes before it come from a, the rest from b.
func SinglePoint(a, b Genome, rng *rand.Rand) Genome {
	mustMatch(a, b)
	cut := rng.IntN(len(a) + 1)
	child := make(Genome, len(a))
	copy(child, a[:cut])
	copy(child[cut:], b[cut:])
	return child
}

// ParseCrossover maps a config name to an operator.
func ParseCrossover(name string) (Crossover, error) {
	switch name {
	case "", "uniform":
		return Uniform, nil
	case "single_point":
		return SinglePoint, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCrossover, name)
}

func mustMatch(a, b Genome) {
	if len(a) != len(b) {
		panic(fmt.Sprintf("genome: crossover of genomes with %d and %d genes", len(a), len(b)))
	}
}
