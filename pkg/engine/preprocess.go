package engine

import "strings"

// kwPrefix marks a string literal that stood for a :keyword in the source.
const kwPrefix = "__kw_"

// preprocessSource rewrites cgtree Lisp into something zygomys reads:
//
//   - :name becomes the string "__kw_name", so keywords need no global
//     symbols and cannot clash with user variables (":=" is left alone)
//   - kebab-case names become snake_case (line-to -> line_to), since zygomys
//     reads a hyphen as subtraction
//   - ; comments become // comments
//
// String literals pass through untouched.
func preprocessSource(source string) string {
	r := rewriter{src: source}
	r.out.Grow(len(source) + len(source)/4)
	for r.i < len(r.src) {
		switch c := r.src[r.i]; {
		case c == '"':
			r.quoted('"', true)
		case c == '`':
			r.quoted('`', false)
		case c == ';':
			r.comment()
		case c == ':' && r.at(1) == '=':
			r.copy(2)
		case c == ':' && isLetter(r.at(1)):
			r.keyword()
		case c == '-' && r.i > 0 && isIdentChar(r.src[r.i-1]) && isLetter(r.at(1)):
			r.out.WriteByte('_')
			r.i++
		default:
			r.copy(1)
		}
	}
	return r.out.String()
}

type rewriter struct {
	src string
	i   int
	out strings.Builder
}

// at returns the byte off positions ahead, or 0 past the end.
func (r *rewriter) at(off int) byte {
	if j := r.i + off; j < len(r.src) {
		return r.src[j]
	}
	return 0
}

func (r *rewriter) copy(n int) {
	end := min(r.i+n, len(r.src))
	r.out.WriteString(r.src[r.i:end])
	r.i = end
}

// quoted copies a literal up to and including its closing quote.
func (r *rewriter) quoted(q byte, escapes bool) {
	start := r.i
	r.i++
	for r.i < len(r.src) && r.src[r.i] != q {
		if escapes && r.src[r.i] == '\\' {
			r.i++
		}
		r.i++
	}
	r.i = min(r.i+1, len(r.src))
	r.out.WriteString(r.src[start:r.i])
}

// comment turns a run of semicolons into // and copies the rest of the line.
func (r *rewriter) comment() {
	for r.i < len(r.src) && r.src[r.i] == ';' {
		r.i++
	}
	r.out.WriteString("//")
	end := strings.IndexByte(r.src[r.i:], '\n')
	if end < 0 {
		end = len(r.src) - r.i
	}
	r.copy(end)
}

func (r *rewriter) keyword() {
	j := r.i + 1
	for j < len(r.src) && isKWChar(r.src[j]) {
		j++
	}
	r.out.WriteString(`"` + kwPrefix + r.src[r.i+1:j] + `"`)
	r.i = j
}

// nestedObject finds the first (object ...) form written inside another
// one and returns its line. Strings and comments are skipped. Objects
// nested only at run time, through a function call, are not seen here.
func nestedObject(source string) (line int, ok bool) {
	var open []bool // one entry per open bracket: is it an object form
	inObject := 0
	line = 1
	for i := 0; i < len(source); i++ {
		switch c := source[i]; c {
		case '\n':
			line++
		case '"', '`':
			for i++; i < len(source) && source[i] != c; i++ {
				switch {
				case source[i] == '\n':
					line++
				case c == '"' && source[i] == '\\':
					i++
				}
			}
		case ';':
			for i < len(source) && source[i] != '\n' {
				i++
			}
			i--
		case '/':
			if i+1 < len(source) && source[i+1] == '/' {
				for i < len(source) && source[i] != '\n' {
					i++
				}
				i--
			}
		case '(', '[', '{':
			obj := false
			if c == '(' {
				j := i + 1
				for j < len(source) && (source[j] == ' ' || source[j] == '\t') {
					j++
				}
				obj = strings.HasPrefix(source[j:], "object") &&
					(j+6 == len(source) || !isKWChar(source[j+6]))
			}
			if obj {
				if inObject > 0 {
					return line, true
				}
				inObject++
			}
			open = append(open, obj)
		case ')', ']', '}':
			if n := len(open); n > 0 {
				if open[n-1] {
					inObject--
				}
				open = open[:n-1]
			}
		}
	}
	return 0, false
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentChar(c byte) bool { return isLetter(c) || isDigit(c) || c == '_' }

func isKWChar(c byte) bool { return isIdentChar(c) || c == '-' }
