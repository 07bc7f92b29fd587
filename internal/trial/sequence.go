package trial

import "strings"

// Sequence is an ordered list of items.
type Sequence []Item

// ParseSequence splits s into one item per rune. "ABC" becomes [A B C].
func ParseSequence(s string) Sequence {
	seq := make(Sequence, 0, len(s))
	for _, r := range s {
		seq = append(seq, Item(string(r)))
	}
	return seq
}

// SequenceOf builds a sequence from individual item strings.
func SequenceOf(items ...string) Sequence {
	seq := make(Sequence, len(items))
	for i, it := range items {
		seq[i] = Item(it)
	}
	return seq
}

// String joins the items with no separator, the form stored in list_items.
func (s Sequence) String() string {
	var b strings.Builder
	for _, it := range s {
		b.WriteString(string(it))
	}
	return b.String()
}

// Join joins the items with sep, e.g. "B D G" for chunk display.
func (s Sequence) Join(sep string) string {
	parts := make([]string, len(s))
	for i, it := range s {
		parts[i] = string(it)
	}
	return strings.Join(parts, sep)
}

// Clone returns an independent copy so callers can never alias a trial's
// presented list.
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	out := make(Sequence, len(s))
	copy(out, s)
	return out
}

// Contains reports whether it occurs anywhere in s.
func (s Sequence) Contains(it Item) bool {
	for _, x := range s {
		if x == it {
			return true
		}
	}
	return false
}

// Equal reports whether s and other hold the same items in the same order.
func (s Sequence) Equal(other Sequence) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Strings converts the sequence to a plain string slice.
func (s Sequence) Strings() []string {
	out := make([]string, len(s))
	for i, it := range s {
		out[i] = string(it)
	}
	return out
}
