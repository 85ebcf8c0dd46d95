// Package section maps a raw question's exam-part label to the logical
// section name used to group and order questions within a paper.
package section

import "strings"

// ESAT module order. ESAT part labels do not encode section boundaries, so
// questions are classified by ordinal position instead (see ByPosition).
var esatModules = []string{
	"Mathematics 1",
	"Physics",
	"Chemistry",
	"Biology",
	"Mathematics 2",
}

// Map returns the logical section name for a question's part label within a
// paper. Deterministic and side-effect-free. Returns "" when the label alone
// cannot determine the section; callers should then fall back to ByPosition.
func Map(partLabel, paperName string) string {
	label := normalize(partLabel)

	switch family(paperName) {
	case "TMUA":
		switch label {
		case "paper 1", "p1":
			return "Paper 1"
		case "paper 2", "p2":
			return "Paper 2"
		}

	case "ENGAA":
		switch label {
		case "section 1a", "section 1 part a", "1a":
			return "Mathematics and Physics"
		case "section 1b", "section 1 part b", "1b":
			return "Advanced Mathematics and Advanced Physics"
		case "section 2", "s2":
			return "Advanced Physics"
		}

	case "NSAA":
		switch label {
		case "section 1 part a", "1a":
			return "Mathematics"
		case "section 1 part b", "1b":
			return "Physics"
		case "section 1 part c", "1c":
			return "Chemistry"
		case "section 1 part d", "1d":
			return "Biology"
		case "section 2", "s2":
			return "Section 2"
		}

	case "ESAT":
		// Boundaries are positional for ESAT.
		return ""

	default:
		// Unknown paper family: the label is the section.
		if partLabel != "" {
			return strings.TrimSpace(partLabel)
		}
	}

	return ""
}

// ByPosition estimates the section from a question's ordinal position (1-based)
// among the paper's total question count. Only defined for the ESAT family,
// whose part labels are ambiguous; every other family returns "".
//
// The estimate assumes equally sized modules in the canonical module order.
// Boundary questions may be misclassified if the source data deviates from
// equal module sizes.
func ByPosition(ordinal, total int, paperName string) string {
	if family(paperName) != "ESAT" || total <= 0 {
		return ""
	}
	if ordinal < 1 {
		ordinal = 1
	}
	if ordinal > total {
		ordinal = total
	}

	idx := (ordinal - 1) * len(esatModules) / total
	return esatModules[idx]
}

// family extracts the paper family from a paper name like "ENGAA 2019".
func family(paperName string) string {
	name := strings.ToUpper(strings.TrimSpace(paperName))
	for _, fam := range []string{"TMUA", "ENGAA", "NSAA", "ESAT"} {
		if name == fam || strings.HasPrefix(name, fam+" ") {
			return fam
		}
	}
	return ""
}

func normalize(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), " "))
}
