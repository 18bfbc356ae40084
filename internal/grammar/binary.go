package grammar

import (
	"fmt"
	"strconv"

	"github.com/dekarrin/rezi"
)

// node kind tags in the binary format. Values are persisted; do not reorder.
const (
	tagPattern = iota
	tagCode
	tagRuleRef
	tagSequence
	tagAlternation
	tagOptional
	tagZeroOrMore
	tagOneOrMore
)

// MarshalBinary encodes g with REZI. The format is the rule count followed by
// each rule's name, arguments and body.
func (g Grammar) MarshalBinary() ([]byte, error) {
	var data []byte

	data = append(data, rezi.EncInt(len(g.Rules))...)
	for _, r := range g.Rules {
		data = append(data, rezi.EncString(r.Name)...)
		data = append(data, encArgs(r.Args)...)

		body, err := encNode(r.Body)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		data = append(data, body...)
	}

	return data, nil
}

// UnmarshalBinary decodes data produced by MarshalBinary into g.
func (g *Grammar) UnmarshalBinary(data []byte) error {
	count, n, err := rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("rule count: %w", err)
	}
	data = data[n:]

	rules := make([]Rule, count)
	for i := range rules {
		rules[i].Name, n, err = rezi.DecString(data)
		if err != nil {
			return fmt.Errorf("rule %d name: %w", i, err)
		}
		data = data[n:]

		rules[i].Args, n, err = decArgs(data)
		if err != nil {
			return fmt.Errorf("rule %q args: %w", rules[i].Name, err)
		}
		data = data[n:]

		rules[i].Body, n, err = decNode(data)
		if err != nil {
			return fmt.Errorf("rule %q body: %w", rules[i].Name, err)
		}
		data = data[n:]
	}

	g.Rules = rules
	return nil
}

func encNode(n Node) ([]byte, error) {
	var data []byte

	encList := func(tag int, nodes []Node) error {
		data = append(data, rezi.EncInt(tag)...)
		data = append(data, rezi.EncInt(len(nodes))...)
		for _, sub := range nodes {
			subData, err := encNode(sub)
			if err != nil {
				return err
			}
			data = append(data, subData...)
		}
		return nil
	}

	switch v := n.(type) {
	case *Pattern:
		data = append(data, rezi.EncInt(tagPattern)...)
		data = append(data, rezi.EncString(v.Info.Text)...)
		data = append(data, rezi.EncString(v.Info.Flags)...)
		data = append(data, encArgs(v.Args)...)
	case *Code:
		data = append(data, rezi.EncInt(tagCode)...)
		data = append(data, rezi.EncString(v.Text)...)
	case *RuleRef:
		data = append(data, rezi.EncInt(tagRuleRef)...)
		data = append(data, rezi.EncString(v.Name)...)
	case *Sequence:
		if err := encList(tagSequence, v.Items); err != nil {
			return nil, err
		}
	case *Alternation:
		if err := encList(tagAlternation, v.Alts); err != nil {
			return nil, err
		}
	case *Optional:
		if err := encList(tagOptional, []Node{v.Body}); err != nil {
			return nil, err
		}
	case *ZeroOrMore:
		if err := encList(tagZeroOrMore, []Node{v.Body}); err != nil {
			return nil, err
		}
	case *OneOrMore:
		if err := encList(tagOneOrMore, []Node{v.Body}); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown node type %T", n)
	}

	return data, nil
}

func decNode(data []byte) (Node, int, error) {
	var total int

	tag, n, err := rezi.DecInt(data)
	if err != nil {
		return nil, 0, fmt.Errorf("node tag: %w", err)
	}
	data = data[n:]
	total += n

	switch tag {
	case tagPattern:
		text, n, err := rezi.DecString(data)
		if err != nil {
			return nil, 0, fmt.Errorf("pattern text: %w", err)
		}
		data = data[n:]
		total += n

		flags, n, err := rezi.DecString(data)
		if err != nil {
			return nil, 0, fmt.Errorf("pattern flags: %w", err)
		}
		data = data[n:]
		total += n

		args, n, err := decArgs(data)
		if err != nil {
			return nil, 0, fmt.Errorf("pattern args: %w", err)
		}
		total += n

		return &Pattern{Info: NewPatternInfo(text, flags), Args: args}, total, nil
	case tagCode:
		text, n, err := rezi.DecString(data)
		if err != nil {
			return nil, 0, fmt.Errorf("code text: %w", err)
		}
		return &Code{Text: text}, total + n, nil
	case tagRuleRef:
		name, n, err := rezi.DecString(data)
		if err != nil {
			return nil, 0, fmt.Errorf("rule ref: %w", err)
		}
		return &RuleRef{Name: name}, total + n, nil
	case tagSequence, tagAlternation, tagOptional, tagZeroOrMore, tagOneOrMore:
		count, n, err := rezi.DecInt(data)
		if err != nil {
			return nil, 0, fmt.Errorf("child count: %w", err)
		}
		data = data[n:]
		total += n

		children := make([]Node, count)
		for i := range children {
			children[i], n, err = decNode(data)
			if err != nil {
				return nil, 0, fmt.Errorf("child %d: %w", i, err)
			}
			data = data[n:]
			total += n
		}

		switch tag {
		case tagSequence:
			return &Sequence{Items: children}, total, nil
		case tagAlternation:
			return &Alternation{Alts: children}, total, nil
		}
		if count != 1 {
			return nil, 0, fmt.Errorf("occurrence node has %d children", count)
		}
		switch tag {
		case tagOptional:
			return &Optional{Body: children[0]}, total, nil
		case tagZeroOrMore:
			return &ZeroOrMore{Body: children[0]}, total, nil
		default:
			return &OneOrMore{Body: children[0]}, total, nil
		}
	default:
		return nil, 0, fmt.Errorf("unknown node tag %d", tag)
	}
}

func encArgs(args Args) []byte {
	var data []byte
	data = append(data, rezi.EncInt(len(args))...)
	for _, a := range args {
		data = append(data, rezi.EncString(a.Key)...)
		data = append(data, rezi.EncInt(int(a.Value.Kind))...)
		switch a.Value.Kind {
		case KindString:
			data = append(data, rezi.EncString(a.Value.Str)...)
		case KindNumber:
			data = append(data, rezi.EncString(strconv.FormatFloat(a.Value.Num, 'g', -1, 64))...)
		case KindBool:
			data = append(data, rezi.EncBool(a.Value.Bool)...)
		}
	}
	return data
}

func decArgs(data []byte) (Args, int, error) {
	var total int

	count, n, err := rezi.DecInt(data)
	if err != nil {
		return nil, 0, err
	}
	data = data[n:]
	total += n

	if count == 0 {
		return nil, total, nil
	}

	args := make(Args, count)
	for i := range args {
		args[i].Key, n, err = rezi.DecString(data)
		if err != nil {
			return nil, 0, fmt.Errorf("arg %d key: %w", i, err)
		}
		data = data[n:]
		total += n

		kind, n, err := rezi.DecInt(data)
		if err != nil {
			return nil, 0, fmt.Errorf("arg %q kind: %w", args[i].Key, err)
		}
		data = data[n:]
		total += n
		args[i].Value.Kind = ValueKind(kind)

		switch args[i].Value.Kind {
		case KindNone:
			continue
		case KindString:
			args[i].Value.Str, n, err = rezi.DecString(data)
		case KindNumber:
			var s string
			s, n, err = rezi.DecString(data)
			if err == nil {
				args[i].Value.Num, err = strconv.ParseFloat(s, 64)
			}
		case KindBool:
			args[i].Value.Bool, n, err = rezi.DecBool(data)
		default:
			err = fmt.Errorf("unknown value kind %d", kind)
		}
		if err != nil {
			return nil, 0, fmt.Errorf("arg %q value: %w", args[i].Key, err)
		}
		data = data[n:]
		total += n
	}

	return args, total, nil
}
