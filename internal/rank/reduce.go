// Copyright 2018 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rank

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Reduction selects how several values for one region collapse into one.
type Reduction int

// The zero Reduction is Max.
const (
	Max Reduction = iota
	Min
	Avg
)

var reductionNames = map[Reduction]string{Max: "max", Min: "min", Avg: "avg"}

// ParseReduction parses "max", "min" or "avg".
func ParseReduction(name string) (Reduction, error) {
	for reduction, n := range reductionNames {
		if strings.EqualFold(name, n) {
			return reduction, nil
		}
	}
	return Max, fmt.Errorf("unknown reduction %q", name)
}

func (reduction Reduction) String() string {
	if name, ok := reductionNames[reduction]; ok {
		return name
	}
	return fmt.Sprintf("Reduction(%d)", int(reduction))
}

// MarshalText implements encoding.TextMarshaler.
func (reduction Reduction) MarshalText() ([]byte, error) {
	if _, ok := reductionNames[reduction]; !ok {
		return nil, fmt.Errorf("invalid reduction %d", int(reduction))
	}
	return []byte(reduction.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (reduction *Reduction) UnmarshalText(text []byte) error {
	r, err := ParseReduction(string(text))
	if err != nil {
		return err
	}
	*reduction = r
	return nil
}

// Reduce collapses values into one.  It reports false if values is empty.
func (reduction Reduction) Reduce(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	switch reduction {
	case Min:
		return floats.Min(values), true
	case Avg:
		return stat.Mean(values, nil), true
	}
	return floats.Max(values), true
}
