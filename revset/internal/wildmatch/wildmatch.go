// Package wildmatch implements shell-style glob matching for the file()
// revset predicate's path patterns, adapted from the teacher's
// path-oriented wildmatch package (modules/wildmatch) and narrowed to
// single-segment matching: no directory-separator or gitignore semantics,
// so `*` also matches '/'.
package wildmatch

import "strings"

// Match reports whether name matches pattern, where pattern may use `*`
// (any run of characters), `?` (any single character), and `[...]`
// character classes. An empty pattern matches everything.
func Match(pattern, name string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}
	return match([]rune(pattern), []rune(name))
}

func match(pat, name []rune) bool {
	for len(pat) > 0 {
		switch pat[0] {
		case '*':
			// Collapse consecutive '*' and try every split point.
			for len(pat) > 0 && pat[0] == '*' {
				pat = pat[1:]
			}
			if len(pat) == 0 {
				return true
			}
			for i := 0; i <= len(name); i++ {
				if match(pat, name[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(name) == 0 {
				return false
			}
			pat, name = pat[1:], name[1:]
		case '[':
			end := indexRune(pat[1:], ']')
			if end < 0 {
				// Unterminated class: treat '[' literally.
				if len(name) == 0 || name[0] != '[' {
					return false
				}
				pat, name = pat[1:], name[1:]
				continue
			}
			class := pat[1 : 1+end]
			if len(name) == 0 || !matchClass(class, name[0]) {
				return false
			}
			pat, name = pat[2+end:], name[1:]
		default:
			if len(name) == 0 || pat[0] != name[0] {
				return false
			}
			pat, name = pat[1:], name[1:]
		}
	}
	return len(name) == 0
}

func indexRune(rs []rune, target rune) int {
	for i, r := range rs {
		if r == target {
			return i
		}
	}
	return -1
}

func matchClass(class []rune, c rune) bool {
	negate := false
	if len(class) > 0 && (class[0] == '!' || class[0] == '^') {
		negate = true
		class = class[1:]
	}
	matched := false
	for i := 0; i < len(class); i++ {
		if i+2 < len(class) && class[i+1] == '-' {
			if class[i] <= c && c <= class[i+2] {
				matched = true
			}
			i += 2
			continue
		}
		if class[i] == c {
			matched = true
		}
	}
	return matched != negate
}

// HasMeta reports whether pattern contains any glob metacharacter.
func HasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}
