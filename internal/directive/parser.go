package directive

import (
	"fmt"
	"regexp"
	"strings"
)

// Parse extracts the directive from an annotation. Keywords default to
// DefaultKeywords and match case-insensitively.
//
// It returns ErrNotApplicable when no keyword introduces a brace object and a
// *MalformedError when one does but the object does not parse.
func Parse(annotation string, keywords ...string) (Directive, error) {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	loc := introducer(keywords).FindStringIndex(annotation)
	if loc == nil {
		return Directive{}, ErrNotApplicable
	}
	p := &parser{lex: newLexer(annotation, loc[1]-1)}
	p.advance()
	return p.parseObject()
}

func introducer(keywords []string) *regexp.Regexp {
	quoted := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			quoted = append(quoted, regexp.QuoteMeta(k))
		}
	}
	if len(quoted) == 0 {
		return introducer(DefaultKeywords)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\s*:\s*\{`)
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() {
	p.tok = p.lex.next()
}

func (p *parser) errorf(format string, args ...any) error {
	return &MalformedError{Pos: p.tok.pos, Reason: fmt.Sprintf(format, args...)}
}

func (p *parser) unexpected(want string) error {
	if p.tok.kind == tokIllegal {
		return p.errorf("illegal character %q, expected %s", p.tok.text, want)
	}
	if p.tok.kind == tokIdent {
		return p.errorf("unexpected identifier %q, expected %s", p.tok.text, want)
	}
	return p.errorf("unexpected %s, expected %s", p.tok.kind, want)
}

func (p *parser) expect(kind tokenKind) (token, error) {
	if p.tok.kind != kind {
		return token{}, p.unexpected(kind.String())
	}
	t := p.tok
	p.advance()
	return t, nil
}

func (p *parser) parseObject() (Directive, error) {
	var d Directive
	start := p.tok.pos
	if _, err := p.expect(tokLBrace); err != nil {
		return d, err
	}

	seen := map[string]bool{}
	for p.tok.kind != tokRBrace {
		key, err := p.expect(tokIdent)
		if err != nil {
			return d, err
		}
		name := strings.ToLower(key.text)
		if name == "labels" {
			name = "label"
		}
		if seen[name] {
			return d, &MalformedError{Pos: key.pos, Reason: fmt.Sprintf("duplicate key %q", key.text)}
		}
		seen[name] = true

		if _, err := p.expect(tokColon); err != nil {
			return d, err
		}
		if err := p.parseValue(&d, name, key); err != nil {
			return d, err
		}

		if p.tok.kind == tokComma {
			p.advance()
			continue
		}
		if p.tok.kind != tokRBrace {
			return d, p.unexpected("',' or '}'")
		}
	}

	switch {
	case d.Table == "":
		return d, &MalformedError{Pos: start, Reason: "missing table"}
	case len(d.Labels) == 0:
		return d, &MalformedError{Pos: start, Reason: "missing label"}
	case d.Value == "":
		return d, &MalformedError{Pos: start, Reason: "missing value"}
	}
	return d, nil
}

func (p *parser) parseValue(d *Directive, name string, key token) error {
	switch name {
	case "table", "label", "value", "filter", "limit":
	default:
		return &MalformedError{Pos: key.pos, Reason: fmt.Sprintf("unknown key %q", key.text)}
	}
	if name == "label" {
		labels, err := p.parseList()
		if err != nil {
			return err
		}
		d.Labels = labels
		return nil
	}

	if p.tok.kind == tokLBracket {
		return p.errorf("key %q takes a single identifier, not a list", key.text)
	}
	if name == "limit" {
		raw, err := p.rawValue()
		if err != nil {
			return err
		}
		d.Limit = raw
		return nil
	}
	v, err := p.expect(tokIdent)
	if err != nil {
		return err
	}
	switch name {
	case "table":
		d.Table = v.text
	case "value":
		d.Value = v.text
	case "filter":
		d.Filter = v.text
	}
	return nil
}

// rawValue returns the source text up to the next ',' or '}'. A limit such as
// "-1" is kept as written; EffectiveLimit falls back to the default for it.
func (p *parser) rawValue() (string, error) {
	start, end := p.tok.pos, p.tok.pos
	for p.tok.kind != tokComma && p.tok.kind != tokRBrace && p.tok.kind != tokEOF {
		if p.tok.kind != tokIdent && p.tok.kind != tokIllegal {
			return "", p.unexpected("',' or '}'")
		}
		end = p.tok.pos + len(p.tok.text)
		p.advance()
	}
	if end == start {
		return "", p.unexpected(tokIdent.String())
	}
	return p.lex.input[start:end], nil
}

// parseList accepts either a single identifier or a bracketed list.
func (p *parser) parseList() ([]string, error) {
	if p.tok.kind == tokIdent {
		v := p.tok.text
		p.advance()
		return []string{v}, nil
	}
	if _, err := p.expect(tokLBracket); err != nil {
		return nil, err
	}
	var items []string
	for p.tok.kind != tokRBracket {
		v, err := p.expect(tokIdent)
		if err != nil {
			return nil, err
		}
		items = append(items, v.text)
		if p.tok.kind == tokComma {
			p.advance()
			continue
		}
		if p.tok.kind != tokRBracket {
			return nil, p.unexpected("',' or ']'")
		}
	}
	p.advance()
	if len(items) == 0 {
		return nil, p.errorf("empty label list")
	}
	return items, nil
}
