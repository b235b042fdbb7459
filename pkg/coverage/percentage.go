package coverage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

const percentScale = 100

// Percentage is a coverage ratio scaled to [0, 100]. It is undefined when
// nothing was tracked; the zero value is undefined.
type Percentage struct {
	value float64
	valid bool
}

// PercentOf returns 100*hit/tracked, undefined when tracked is zero.
func PercentOf(hit, tracked int) Percentage {
	if tracked == 0 {
		return Percentage{}
	}

	return Percentage{value: percentScale * float64(hit) / float64(tracked), valid: true}
}

// Percent wraps an already computed percentage. NaN yields an undefined value.
func Percent(value float64) Percentage {
	if math.IsNaN(value) {
		return Percentage{}
	}

	return Percentage{value: value, valid: true}
}

// Value returns the percentage and whether it is defined.
func (p Percentage) Value() (float64, bool) {
	return p.value, p.valid
}

// Defined reports whether the percentage has a value.
func (p Percentage) Defined() bool {
	return p.valid
}

// Float64 returns the percentage, or NaN when undefined.
func (p Percentage) Float64() float64 {
	if !p.valid {
		return math.NaN()
	}

	return p.value
}

// Rounded returns the percentage rounded to the nearest whole percent.
func (p Percentage) Rounded() (int, bool) {
	if !p.valid {
		return 0, false
	}

	return int(math.Round(p.value)), true
}

// String formats the percentage with one decimal, or "n/a" when undefined.
func (p Percentage) String() string {
	if !p.valid {
		return "n/a"
	}

	return fmt.Sprintf("%.1f%%", p.value)
}

// MarshalJSON encodes an undefined percentage as null.
func (p Percentage) MarshalJSON() ([]byte, error) {
	if !p.valid {
		return []byte("null"), nil
	}

	return json.Marshal(p.value)
}

// UnmarshalJSON decodes a number or null.
func (p *Percentage) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = Percentage{}

		return nil
	}

	var value float64

	err := json.Unmarshal(data, &value)
	if err != nil {
		return fmt.Errorf("decode percentage: %w", err)
	}

	*p = Percentage{value: value, valid: true}

	return nil
}

// MarshalYAML encodes an undefined percentage as null.
func (p Percentage) MarshalYAML() (any, error) {
	if !p.valid {
		return nil, nil //nolint:nilnil // null is the encoding of an undefined value.
	}

	return p.value, nil
}

// UnmarshalYAML decodes a number or null.
func (p *Percentage) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" {
		*p = Percentage{}

		return nil
	}

	var value float64

	err := node.Decode(&value)
	if err != nil {
		return fmt.Errorf("decode percentage: %w", err)
	}

	*p = Percentage{value: value, valid: true}

	return nil
}
