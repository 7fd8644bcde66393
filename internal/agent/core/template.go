package core

import (
	"fmt"
	"strings"
)

// Slot is a named placeholder in a stage instruction
type Slot string

const (
	SlotGender         Slot = "gender"
	SlotAge            Slot = "age"
	SlotSymptoms       Slot = "symptoms"
	SlotMedicalHistory Slot = "medical_history"
	// SlotContext carries the text of every earlier stage
	SlotContext Slot = "context"
)

var declaredSlots = map[Slot]struct{}{
	SlotGender:         {},
	SlotAge:            {},
	SlotSymptoms:       {},
	SlotMedicalHistory: {},
	SlotContext:        {},
}

type part struct {
	text string
	slot Slot
}

// Template is an instruction with {slot} placeholders from a closed set.
// "{{" and "}}" produce literal braces.
type Template struct {
	raw   string
	parts []part
	slots []Slot
}

// NewTemplate parses raw and rejects placeholders outside the declared slot set.
func NewTemplate(raw string) (*Template, error) {
	t := &Template{raw: raw}
	seen := map[Slot]bool{}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.parts = append(t.parts, part{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '{' && i+1 < len(raw) && raw[i+1] == '{':
			lit.WriteByte('{')
			i++
		case c == '}' && i+1 < len(raw) && raw[i+1] == '}':
			lit.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(raw[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unterminated placeholder at offset %d", i)
			}
			name := Slot(strings.TrimSpace(raw[i+1 : i+1+end]))
			if _, ok := declaredSlots[name]; !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownSlot, name)
			}
			flush()
			t.parts = append(t.parts, part{slot: name})
			if !seen[name] {
				seen[name] = true
				t.slots = append(t.slots, name)
			}
			i += end + 1
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return t, nil
}

// Slots lists the referenced slots in first-use order.
func (t *Template) Slots() []Slot {
	out := make([]Slot, len(t.slots))
	copy(out, t.slots)
	return out
}

// Uses reports whether the template references s.
func (t *Template) Uses(s Slot) bool {
	for _, x := range t.slots {
		if x == s {
			return true
		}
	}
	return false
}

// Render fills every placeholder. A referenced slot missing from values is an error;
// an empty value counts as resolved.
func (t *Template) Render(values map[Slot]string) (string, error) {
	var b strings.Builder
	b.Grow(len(t.raw))
	for _, p := range t.parts {
		if p.slot == "" {
			b.WriteString(p.text)
			continue
		}
		v, ok := values[p.slot]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnresolvedSlot, p.slot)
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

func (t *Template) String() string { return t.raw }
