// Package datasource produces the vectors handed to the coordinator.
package datasource

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ChuLiYu/timeslice-sort/pkg/types"
)

// DefaultMax is the upper bound (inclusive) of generated values.
const DefaultMax = 100000

var (
	ErrInvalidSize = errors.New("datasource: size must be positive")
	ErrShortInput  = errors.New("datasource: not enough values")
)

// Source yields a vector of n integers.
type Source interface {
	Generate(n int) (types.Buffer, error)
}

// Random draws values uniformly from [0, Max].
type Random struct {
	rng *rand.Rand
	max int
}

// NewRandom creates a Random source. A zero seed picks one from the clock.
func NewRandom(seed int64, max int) *Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if max <= 0 {
		max = DefaultMax
	}
	return &Random{rng: rand.New(rand.NewSource(seed)), max: max}
}

// Generate implements Source.
func (r *Random) Generate(n int) (types.Buffer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}
	buf := make(types.Buffer, n)
	for i := range buf {
		buf[i] = r.rng.Intn(r.max + 1)
	}
	return buf, nil
}

// Static replays a fixed vector.
type Static struct {
	Values []int
}

// Generate implements Source. It returns a copy of the first n values.
func (s Static) Generate(n int) (types.Buffer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}
	if n > len(s.Values) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrShortInput, n, len(s.Values))
	}
	return types.Buffer(s.Values[:n]).Clone(), nil
}

// Load reads a vector from a YAML or JSON file holding a flat list of
// integers, e.g. "[5, 3, 4, 1, 2]".
func Load(path string) (Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Static{}, fmt.Errorf("read input %s: %w", path, err)
	}
	var values []int
	if err := yaml.Unmarshal(data, &values); err != nil {
		return Static{}, fmt.Errorf("parse input %s: %w", path, err)
	}
	return Static{Values: values}, nil
}
