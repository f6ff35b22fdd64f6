// Package zon reads build.zig.zon manifests: the declarative,
// content-addressed description of a Zig project's name, version and
// dependency set. Only the subset of ZON that appears in manifests is
// supported: anonymous struct literals, string and multiline string
// literals, enum literals, identifiers, numbers and booleans.
package zon

import (
	"fmt"
	"strings"
	"unicode"
)

// object is a parsed ZON struct literal with named fields and positional
// items (manifests use positional items only for the paths list).
type object struct {
	fields map[string]value
	items  []value
}

// value is one of: string, enumLit, rawNumber, bool, *object.
type value any

type enumLit string
type rawNumber string

type parser struct {
	src []byte
	pos int
}

func parse(data []byte) (*object, error) {
	p := &parser{src: data}
	p.skipSpace()
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*object)
	if !ok {
		return nil, fmt.Errorf("manifest root is not a struct literal")
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("trailing data after manifest")
	}
	return obj, nil
}

func (p *parser) errorf(format string, args ...any) error {
	line := 1 + strings.Count(string(p.src[:p.pos]), "\n")
	return fmt.Errorf("line %d: %s", line, fmt.Sprintf(format, args...))
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.pos++
		case c == '/' && p.pos+1 < len(p.src) && p.src[p.pos+1] == '/':
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
		default:
			return
		}
	}
}

func (p *parser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *parser) expect(c byte) error {
	if p.peek() != c {
		return p.errorf("expected %q", string(c))
	}
	p.pos++
	return nil
}

func (p *parser) value() (value, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == '.':
		if p.pos+1 < len(p.src) && p.src[p.pos+1] == '{' {
			return p.object()
		}
		p.pos++
		name, err := p.fieldName()
		if err != nil {
			return nil, err
		}
		return enumLit(name), nil
	case c == '"':
		return p.stringLit()
	case c == '\\':
		return p.multilineString()
	case isIdentStart(rune(c)):
		ident := p.ident()
		switch ident {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, p.errorf("unexpected identifier %q", ident)
	case c >= '0' && c <= '9' || c == '-':
		return p.number(), nil
	default:
		return nil, p.errorf("unexpected character %q", string(c))
	}
}

func (p *parser) object() (*object, error) {
	p.pos++ // '.'
	if err := p.expect('{'); err != nil {
		return nil, err
	}

	obj := &object{fields: make(map[string]value)}
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			return obj, nil
		}

		// ".name = value" is a field; anything else is a positional item.
		// ".{" and "." followed by an enum literal are values, so a field
		// needs a lookahead for the "=" after the name.
		if p.peek() == '.' && p.pos+1 < len(p.src) && p.src[p.pos+1] != '{' {
			mark := p.pos
			p.pos++
			name, err := p.fieldName()
			if err != nil {
				return nil, err
			}
			p.skipSpace()
			if p.peek() == '=' {
				p.pos++
				v, err := p.value()
				if err != nil {
					return nil, err
				}
				obj.fields[name] = v
			} else {
				p.pos = mark
				v, err := p.value()
				if err != nil {
					return nil, err
				}
				obj.items = append(obj.items, v)
			}
		} else {
			v, err := p.value()
			if err != nil {
				return nil, err
			}
			obj.items = append(obj.items, v)
		}

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
		default:
			return nil, p.errorf("expected ',' or '}' in struct literal")
		}
	}
}

// fieldName reads an identifier after a consumed '.', including the quoted
// form .@"arbitrary-name".
func (p *parser) fieldName() (string, error) {
	if p.peek() == '@' {
		p.pos++
		s, err := p.stringLit()
		if err != nil {
			return "", err
		}
		return s.(string), nil
	}
	ident := p.ident()
	if ident == "" {
		return "", p.errorf("expected identifier after '.'")
	}
	return ident, nil
}

func (p *parser) ident() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentPart(rune(p.src[p.pos])) {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func (p *parser) stringLit() (value, error) {
	if err := p.expect('"'); err != nil {
		return nil, err
	}
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case '"':
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.src) {
				return nil, p.errorf("unterminated escape sequence")
			}
			switch e := p.src[p.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '"', '\\', '\'':
				b.WriteByte(e)
			default:
				return nil, p.errorf("unsupported escape sequence \\%s", string(e))
			}
			p.pos++
		case '\n':
			return nil, p.errorf("unterminated string literal")
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return nil, p.errorf("unterminated string literal")
}

// multilineString reads consecutive \\-prefixed lines as one string.
func (p *parser) multilineString() (value, error) {
	var lines []string
	for p.peek() == '\\' {
		if p.pos+1 >= len(p.src) || p.src[p.pos+1] != '\\' {
			return nil, p.errorf("expected '\\\\' multiline string prefix")
		}
		p.pos += 2
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] != '\n' {
			p.pos++
		}
		lines = append(lines, string(p.src[start:p.pos]))
		p.skipSpace()
	}
	return strings.Join(lines, "\n"), nil
}

func (p *parser) number() value {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if isIdentPart(rune(c)) || c == '.' || c == '-' || c == '+' {
			p.pos++
			continue
		}
		break
	}
	return rawNumber(p.src[start:p.pos])
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
