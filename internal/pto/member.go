package pto

import "fmt"

// Kind is the syntactic type of a member value.
type Kind byte

const (
	Float   Kind = 'f'
	Int     Kind = 'i'
	Rect    Kind = 'r'
	BackRef Kind = 'b'
	String  Kind = 's'
	Word    Kind = 'w'
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Int:
		return "int"
	case Rect:
		return "rectangle"
	case BackRef:
		return "back reference"
	case String:
		return "string"
	case Word:
		return "word"
	}
	return fmt.Sprintf("Kind(%q)", byte(k))
}

// Member is one tagged field of a line, e.g. "y45.5", "v=0" or "n\"img.jpg\"".
type Member struct {
	Tag  string
	Sep  string // "=" for back references and key=value extensions
	Text string // source text of the value, without tag and separator
	Kind Kind

	Num  float64 // Float, Int and BackRef values
	Rect [4]int  // left, right, top, bottom
	Str  string  // String (unquoted) and Word values
}

// Float returns the numeric value of a Float or Int member.
func (m Member) Float() (float64, bool) {
	if m.Kind == Float || m.Kind == Int {
		return m.Num, true
	}
	return 0, false
}

// Ref returns the image index of a back reference.
func (m Member) Ref() (int, bool) {
	if m.Kind != BackRef {
		return 0, false
	}
	return int(m.Num), true
}

// String formats the member the way it appears in a pto file.
func (m Member) String() string {
	switch m.Kind {
	case String:
		return fmt.Sprintf("%s%s%q", m.Tag, m.Sep, m.Str)
	case Rect:
		return fmt.Sprintf("%s%s%d,%d,%d,%d", m.Tag, m.Sep, m.Rect[0], m.Rect[1], m.Rect[2], m.Rect[3])
	case Word:
		return m.Tag + m.Sep + m.Str
	}
	return m.Tag + m.Sep + m.Text
}

// describe is the Walk rendering of a value.
func (m Member) describe() string {
	switch m.Kind {
	case String:
		return fmt.Sprintf("%q", m.Str)
	case BackRef:
		return fmt.Sprintf("=%d", int(m.Num))
	case Rect:
		return fmt.Sprintf("(%d,%d,%d,%d)", m.Rect[0], m.Rect[1], m.Rect[2], m.Rect[3])
	case Word:
		return m.Str
	}
	return m.Text
}
