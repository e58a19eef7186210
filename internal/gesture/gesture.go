// Package gesture classifies a single hand's landmarks into one of four
// discrete gestures and maps the index fingertip into world space.
package gesture

import "fmt"

// Gesture is the discrete hand pose recognised in one detection frame.
type Gesture uint8

const (
	// Idle is reported when no other gesture holds, or no hand is present.
	Idle Gesture = iota
	// Pinch is the index fingertip touching the thumb tip.
	Pinch
	// Open is a spread hand with fingertips far from the wrist.
	Open
	// Fist is all four fingers curled below their PIP joints.
	Fist
)

// All lists every gesture in ascending priority.
var All = []Gesture{Idle, Pinch, Open, Fist}

// String returns the upper-case gesture name.
func (g Gesture) String() string {
	switch g {
	case Idle:
		return "IDLE"
	case Pinch:
		return "PINCH"
	case Open:
		return "OPEN"
	case Fist:
		return "FIST"
	default:
		return fmt.Sprintf("Gesture(%d)", uint8(g))
	}
}

// Strength is the interaction strength reported alongside g when a hand is present.
func (g Gesture) Strength() float64 {
	switch g {
	case Fist, Open:
		return 1.0
	case Pinch:
		return 0.8
	case Idle:
		return 0.5
	default:
		return 0
	}
}

// MarshalText encodes the gesture by name.
func (g Gesture) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText decodes a gesture name.
func (g *Gesture) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// Parse returns the gesture with the given upper-case name.
func Parse(name string) (Gesture, error) {
	for _, g := range All {
		if g.String() == name {
			return g, nil
		}
	}
	return Idle, fmt.Errorf("unknown gesture %q", name)
}
