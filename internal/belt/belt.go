package belt

import (
	"fmt"
	"strings"
)

// Rank is a rung in the belt ladder, stored by its lowercase color key.
type Rank string

const (
	White         Rank = "white"
	Blue          Rank = "blue"
	Purple        Rank = "purple"
	Brown         Rank = "brown"
	Black         Rank = "black"
	CoralRedBlack Rank = "coral-red-black"
	CoralRedWhite Rank = "coral-red-white"
	Red           Rank = "red"
)

// Definition describes how a rank is displayed and how many stripes it can carry.
type Definition struct {
	Rank       Rank   `json:"rank"`
	Label      string `json:"label"`
	Hex        string `json:"hex"`
	MaxStripes int    `json:"maxStripes"`
}

// definitions is ordered by seniority; the first entry is the fallback.
var definitions = []Definition{
	{Rank: White, Label: "White Belt", Hex: "#F5F5F5", MaxStripes: 4},
	{Rank: Blue, Label: "Blue Belt", Hex: "#0047AB", MaxStripes: 4},
	{Rank: Purple, Label: "Purple Belt", Hex: "#6A0DAD", MaxStripes: 4},
	{Rank: Brown, Label: "Brown Belt", Hex: "#5C2E00", MaxStripes: 4},
	{Rank: Black, Label: "Black Belt", Hex: "#1A1A1A", MaxStripes: 6},
	{Rank: CoralRedBlack, Label: "Red & Black Coral Belt", Hex: "#CC0000", MaxStripes: 0},
	{Rank: CoralRedWhite, Label: "Red & White Coral Belt", Hex: "#CC0000", MaxStripes: 0},
	{Rank: Red, Label: "Red Belt", Hex: "#CC0000", MaxStripes: 0},
}

// All returns every definition in seniority order.
func All() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// DefinitionFor returns the definition for r, or the white belt definition
// when r is not a known rank.
func DefinitionFor(r Rank) Definition {
	for _, d := range definitions {
		if d.Rank == r {
			return d
		}
	}
	return definitions[0]
}

// MaxStripes returns the stripe (or degree) ceiling for r.
func MaxStripes(r Rank) int {
	return DefinitionFor(r).MaxStripes
}

// ClampStripes bounds stripes to [0, MaxStripes(r)].
func ClampStripes(r Rank, stripes int) int {
	if stripes < 0 {
		return 0
	}
	if limit := MaxStripes(r); stripes > limit {
		return limit
	}
	return stripes
}

// Valid reports whether r is one of the known ranks.
func (r Rank) Valid() bool {
	for _, d := range definitions {
		if d.Rank == r {
			return true
		}
	}
	return false
}

// Parse normalizes s and returns the matching rank.
func Parse(s string) (Rank, error) {
	r := Rank(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown belt %q", s)
	}
	return r, nil
}

// DisplayLabel composes the human label for a rank and stripe count, e.g.
// "Black Belt - 3rd Degree" or "Blue Belt - 1 Stripe".
func DisplayLabel(r Rank, stripes int) string {
	def := DefinitionFor(r)
	if stripes <= 0 || def.MaxStripes == 0 {
		return def.Label
	}
	if def.Rank == Black {
		return fmt.Sprintf("%s - %d%s Degree", def.Label, stripes, ordinalSuffix(stripes))
	}
	if stripes == 1 {
		return def.Label + " - 1 Stripe"
	}
	return fmt.Sprintf("%s - %d Stripes", def.Label, stripes)
}

func ordinalSuffix(n int) string {
	if n%100 >= 11 && n%100 <= 13 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}
