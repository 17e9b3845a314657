package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// StockTable maps color → size → available quantity. Colors and sizes keep
// the order in which the backend listed them.
type StockTable struct {
	colors []string
	sizes  map[string][]string
	qty    map[string]map[string]int
}

// Set records the quantity for a (color, size) pair. Negative quantities are
// stored as zero.
func (t *StockTable) Set(color, size string, quantity int) {
	if t.qty == nil {
		t.qty = make(map[string]map[string]int)
		t.sizes = make(map[string][]string)
	}
	if quantity < 0 {
		quantity = 0
	}

	bySize, ok := t.qty[color]
	if !ok {
		bySize = make(map[string]int)
		t.qty[color] = bySize
		t.colors = append(t.colors, color)
	}
	if _, seen := bySize[size]; !seen {
		t.sizes[color] = append(t.sizes[color], size)
	}
	bySize[size] = quantity
}

// addColor registers a color without sizes
func (t *StockTable) addColor(color string) {
	if t.qty == nil {
		t.qty = make(map[string]map[string]int)
		t.sizes = make(map[string][]string)
	}
	if _, ok := t.qty[color]; ok {
		return
	}
	t.qty[color] = make(map[string]int)
	t.colors = append(t.colors, color)
}

// Colors returns the colors in backend order
func (t StockTable) Colors() []string {
	out := make([]string, len(t.colors))
	copy(out, t.colors)
	return out
}

// HasColor reports whether the color appears in the table
func (t StockTable) HasColor(color string) bool {
	_, ok := t.qty[color]
	return ok
}

// Sizes returns the sizes listed for a color in backend order
func (t StockTable) Sizes(color string) []string {
	sizes := t.sizes[color]
	out := make([]string, len(sizes))
	copy(out, sizes)
	return out
}

// Quantity returns the available quantity, zero when the pair is unknown
func (t StockTable) Quantity(color, size string) int {
	return t.qty[color][size]
}

// UnmarshalJSON decodes the nested object while keeping key order
func (t *StockTable) UnmarshalJSON(data []byte) error {
	*t = StockTable{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return err
	}
	for dec.More() {
		color, err := readKey(dec)
		if err != nil {
			return err
		}

		// A color may carry null instead of a size object
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("stock for color %q: %w", color, err)
		}
		t.addColor(color)
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}

		inner := json.NewDecoder(bytes.NewReader(raw))
		if err := expectDelim(inner, '{'); err != nil {
			return fmt.Errorf("stock for color %q: %w", color, err)
		}
		for inner.More() {
			size, err := readKey(inner)
			if err != nil {
				return err
			}
			var quantity *int
			if err := inner.Decode(&quantity); err != nil {
				return fmt.Errorf("stock for %q/%q: %w", color, size, err)
			}
			q := 0
			if quantity != nil {
				q = *quantity
			}
			t.Set(color, size, q)
		}
		if err := expectDelim(inner, '}'); err != nil {
			return err
		}
	}
	return expectDelim(dec, '}')
}

// MarshalJSON encodes the table as a nested object in stored order
func (t StockTable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, color := range t.colors {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(color)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteString(":{")
		for j, size := range t.sizes[color] {
			if j > 0 {
				buf.WriteByte(',')
			}
			sizeKey, err := json.Marshal(size)
			if err != nil {
				return nil, err
			}
			buf.Write(sizeKey)
			fmt.Fprintf(&buf, ":%d", t.qty[color][size])
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read stock table: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("read stock table: expected %q, got %v", want, tok)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("read stock table: %w", err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("read stock table: expected key, got %v", tok)
	}
	return key, nil
}
