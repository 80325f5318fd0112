package corpus

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedList is returned when a list field is not a valid list literal
var ErrMalformedList = errors.New("malformed list field")

// ParseList parses a textual list of strings such as "['Action', 'Drama']"
// or `["Action", "Drama"]`. An empty or blank field is an empty list.
// Elements must be quoted; escapes inside quotes follow Python rules for
// \\, \', \", \n and \t.
func ParseList(raw string) ([]string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return []string{}, nil
	}
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("%w: not a bracketed list", ErrMalformedList)
	}

	p := listParser{src: []rune(s[1 : len(s)-1])}
	return p.parse()
}

// ListOrEmpty parses a list field and returns an empty list when it is malformed
func ListOrEmpty(raw string) []string {
	items, err := ParseList(raw)
	if err != nil {
		return []string{}
	}
	return items
}

type listParser struct {
	src []rune
	pos int
}

func (p *listParser) parse() ([]string, error) {
	items := []string{}
	for {
		p.skipSpace()
		if p.done() {
			return items, nil
		}

		item, err := p.quoted()
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		p.skipSpace()
		if p.done() {
			return items, nil
		}
		if p.src[p.pos] != ',' {
			return nil, fmt.Errorf("%w: expected ',' at offset %d", ErrMalformedList, p.pos)
		}
		p.pos++
	}
}

func (p *listParser) quoted() (string, error) {
	quote := p.src[p.pos]
	if quote != '\'' && quote != '"' {
		return "", fmt.Errorf("%w: unquoted element at offset %d", ErrMalformedList, p.pos)
	}
	p.pos++

	var b strings.Builder
	for !p.done() {
		r := p.src[p.pos]
		p.pos++
		switch {
		case r == quote:
			return b.String(), nil
		case r == '\\' && !p.done():
			esc := p.src[p.pos]
			p.pos++
			switch esc {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case '\\', '\'', '"':
				b.WriteRune(esc)
			default:
				b.WriteRune('\\')
				b.WriteRune(esc)
			}
		default:
			b.WriteRune(r)
		}
	}
	return "", fmt.Errorf("%w: unterminated string", ErrMalformedList)
}

func (p *listParser) skipSpace() {
	for !p.done() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\n' || p.src[p.pos] == '\r') {
		p.pos++
	}
}

func (p *listParser) done() bool {
	return p.pos >= len(p.src)
}
