package resolve

import (
	"strings"
	"unicode"
)

// prefixTokens are rig-tool name prefixes carrying no anatomical
// information ("mixamorig:LeftArm", "Bip01 L Thigh", "b_neck").
// Dropped from the front of the token stream before matching.
var prefixTokens = map[string]struct{}{
	"mixamorig": {}, "valvebiped": {}, "bip01": {}, "bip": {},
	"def": {}, "org": {}, "b": {}, "j": {}, "jnt": {}, "bone": {},
}

// sideTokens rewrite the many side spellings to "left"/"right".
var sideTokens = map[string]string{
	"l": "left", "lt": "left", "lft": "left", "left": "left",
	"r": "right", "rt": "right", "rgt": "right", "right": "right",
}

// normalizeName case-folds a bone name, splits camelCase and
// letter/digit boundaries, strips convention prefixes and moves a side
// marker ("_L", ".r", "Left...") to a canonical leading token.
func normalizeName(name string) []string {
	spaced := strings.ToLower(splitWordBoundaries(name))
	fields := strings.Fields(spaced)

	for len(fields) > 0 {
		if _, isPrefix := prefixTokens[fields[0]]; !isPrefix {
			break
		}
		fields = fields[1:]
		// "Bip01" splits into "bip" + "01"; the digits belong to the prefix
		if len(fields) > 0 && isAllDigits(fields[0]) {
			fields = fields[1:]
		}
	}

	side := ""
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if canonical, ok := sideTokens[f]; ok && side == "" {
			side = canonical
			continue
		}
		tokens = append(tokens, f)
	}
	if side != "" {
		tokens = append([]string{side}, tokens...)
	}
	return tokens
}

// splitWordBoundaries inserts spaces at camelCase humps, letter/digit
// boundaries and separator runes.
func splitWordBoundaries(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.' || r == ':' || r == ' ':
			b.WriteRune(' ')
		case i > 0 && unicode.IsUpper(r) && unicode.IsLower(runes[i-1]):
			b.WriteRune(' ')
			b.WriteRune(r)
		case i > 0 && unicode.IsDigit(r) != unicode.IsDigit(runes[i-1]):
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}

// squash joins normalized tokens into a separator-free key, so that
// "LeftForeArm", "left_forearm" and "forearm.L" all collide.
func squash(tokens []string) string {
	return strings.Join(tokens, "")
}
