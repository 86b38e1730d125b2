package value

import (
	"math"
	"strconv"
)

const hexDigits = "0123456789abcdef"

// AppendJSON appends the canonical JSON encoding of the value to dst and
// returns the extended slice. The encoding is deterministic and total:
//
//   - null, true and false render as the bare JSON literals.
//   - Integers render in base 10.
//   - Finite floats render as the shortest decimal text that parses back to
//     the same 64-bit value. NaN and the infinities have no JSON
//     representation and render as null; this is deliberately lossy rather
//     than an error.
//   - Strings render double-quoted with the minimal two-character escapes
//     for quote, backslash, backspace, form feed, newline, carriage return
//     and tab; any other control character below 0x20 uses a \u00xx escape.
//     Everything else, including non-ASCII text, passes through as raw
//     UTF-8.
func (v Value) AppendJSON(dst []byte) []byte {
	switch v.kind {
	case KindBool:
		if v.num != 0 {
			return append(dst, "true"...)
		}
		return append(dst, "false"...)
	case KindInt64:
		return strconv.AppendInt(dst, int64(v.num), 10)
	case KindFloat64:
		return appendFloat(dst, math.Float64frombits(v.num))
	case KindString:
		return appendQuoted(dst, v.str)
	default:
		return append(dst, "null"...)
	}
}

func appendFloat(dst []byte, f float64) []byte {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return append(dst, "null"...)
	}
	// Shortest round-tripping form. Exponent notation only where a plain
	// decimal would be unreasonably long, matching encoding/json.
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	return strconv.AppendFloat(dst, f, format, -1, 64)
}

func appendQuoted(dst []byte, s string) []byte {
	dst = append(dst, '"')
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c != '"' && c != '\\' {
			continue
		}
		dst = append(dst, s[start:i]...)
		switch c {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
		}
		start = i + 1
	}
	dst = append(dst, s[start:]...)
	return append(dst, '"')
}

// AppendJSON appends the row as a JSON object literal: column order
// preserved, pairs separated by ", ", a ": " after each key, and braces
// always present, so an empty row encodes as {}.
func (r Row) AppendJSON(dst []byte) []byte {
	dst = append(dst, '{')
	for i, f := range r {
		if i > 0 {
			dst = append(dst, ',', ' ')
		}
		dst = appendQuoted(dst, f.Name)
		dst = append(dst, ':', ' ')
		dst = f.Value.AppendJSON(dst)
	}
	return append(dst, '}')
}

// EncodeJSON returns the row's JSON object literal as a string.
func (r Row) EncodeJSON() string {
	return string(r.AppendJSON(nil))
}
