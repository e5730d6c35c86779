package classifier

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownLabel is returned when encoding a label the codec was not built with.
var ErrUnknownLabel = errors.New("unknown label")

// Codec is a bijection between label strings and dense indices 0..n-1.
// Labels are kept in sorted order so the mapping does not depend on the
// order samples were loaded in.
type Codec struct {
	labels []string
	index  map[string]int
}

// NewCodec builds a codec from labels, dropping duplicates.
func NewCodec(labels []string) *Codec {
	sorted := slices.Clone(labels)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	index := make(map[string]int, len(sorted))
	for i, l := range sorted {
		index[l] = i
	}
	return &Codec{labels: sorted, index: index}
}

// Len returns the number of distinct labels.
func (c *Codec) Len() int {
	return len(c.labels)
}

// Labels returns a copy of the labels in index order.
func (c *Codec) Labels() []string {
	return slices.Clone(c.labels)
}

// Encode returns the index of label.
func (c *Codec) Encode(label string) (int, error) {
	i, ok := c.index[label]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
	}
	return i, nil
}

// EncodeAll encodes every label, failing on the first unknown one.
func (c *Codec) EncodeAll(labels []string) ([]int, error) {
	out := make([]int, len(labels))
	for i, l := range labels {
		idx, err := c.Encode(l)
		if err != nil {
			return nil, err
		}
		out[i] = idx
	}
	return out, nil
}

// Decode returns the label for index i.
func (c *Codec) Decode(i int) (string, error) {
	if i < 0 || i >= len(c.labels) {
		return "", fmt.Errorf("label index %d out of range [0, %d)", i, len(c.labels))
	}
	return c.labels[i], nil
}
