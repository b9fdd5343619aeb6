// Package pdf serializes laid-out pages into a PDF file: a small object
// model, a single-writer body/xref writer and a content stream builder.
package pdf

import (
	"fmt"
	"sort"
	"strings"
)

// Object is the generic interface for all PDF objects.
type Object interface {
	String() string
}

// Number represents integer or float values.
type Number float64

func (n Number) String() string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", float64(n)), "0"), ".")
}

// Name represents PDF names. The leading slash is added when serialized;
// bytes outside the regular range are #-escaped.
type Name string

func (n Name) String() string {
	var sb strings.Builder
	sb.WriteByte('/')
	for i := 0; i < len(n); i++ {
		c := n[i]
		if c <= ' ' || c > '~' || strings.IndexByte("()<>[]{}/%#", c) >= 0 {
			fmt.Fprintf(&sb, "#%02X", c)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// Str represents literal strings. Content is raw bytes, WinAnsi for text.
type Str []byte

func (s Str) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, c := range []byte(s) {
		switch c {
		case '(', ')', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

// HexStr represents hex strings (e.g. <AABB>).
type HexStr []byte

func (h HexStr) String() string { return fmt.Sprintf("<%X>", []byte(h)) }

// Array represents PDF arrays.
type Array []Object

func (a Array) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, obj := range a {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(obj.String())
	}
	sb.WriteString("]")
	return sb.String()
}

// Dict represents PDF dictionaries. Keys are serialized in sorted order so
// output is reproducible.
type Dict map[Name]Object

func (d Dict) String() string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("<<")
	for _, k := range keys {
		sb.WriteString(" ")
		sb.WriteString(Name(k).String())
		sb.WriteString(" ")
		sb.WriteString(d[Name(k)].String())
	}
	sb.WriteString(" >>")
	return sb.String()
}

// Ref represents an indirect reference (e.g. 12 0 R). Generations are
// always zero in freshly written files.
type Ref struct {
	Num int
}

func (r Ref) String() string { return fmt.Sprintf("%d 0 R", r.Num) }
