package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yungbote/brandprompt-backend/internal/modules/curation"
)

type opKind string

const (
	opAddCategory    opKind = "add-category"
	opRemoveCategory opKind = "remove-category"
	opAddQuestion    opKind = "add-question"
	opRemoveQuestion opKind = "remove-question"
)

type editOp struct {
	kind     opKind
	category int
	question int
	text     string
}

func (o editOp) String() string {
	switch o.kind {
	case opAddCategory:
		return fmt.Sprintf("%s %q", o.kind, o.text)
	case opRemoveCategory:
		return fmt.Sprintf("%s %d", o.kind, o.category)
	case opAddQuestion:
		return fmt.Sprintf("%s %d %q", o.kind, o.category, o.text)
	default:
		return fmt.Sprintf("%s %d %d", o.kind, o.category, o.question)
	}
}

func (o editOp) apply(s *curation.Session) error {
	switch o.kind {
	case opAddCategory:
		return s.AddCategory(o.text)
	case opRemoveCategory:
		return s.RemoveCategory(o.category)
	case opAddQuestion:
		return s.AddQuestion(o.category, o.text)
	case opRemoveQuestion:
		return s.RemoveQuestion(o.category, o.question)
	default:
		return fmt.Errorf("unknown op %q", o.kind)
	}
}

func parseOps(raw []string) ([]editOp, error) {
	ops := make([]editOp, 0, len(raw))
	for _, r := range raw {
		op, err := parseOp(r)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// parseOp reads "kind:arg[:arg]". Question text keeps any further colons.
func parseOp(raw string) (editOp, error) {
	kind, rest, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return editOp{}, fmt.Errorf("op %q: want kind:args", raw)
	}
	op := editOp{kind: opKind(strings.ToLower(kind))}
	var err error
	switch op.kind {
	case opAddCategory:
		op.text = rest
	case opRemoveCategory:
		op.category, err = strconv.Atoi(rest)
	case opAddQuestion:
		idx, text, found := strings.Cut(rest, ":")
		if !found {
			return editOp{}, fmt.Errorf("op %q: want add-question:<category>:<text>", raw)
		}
		op.text = text
		op.category, err = strconv.Atoi(idx)
	case opRemoveQuestion:
		ci, qi, found := strings.Cut(rest, ":")
		if !found {
			return editOp{}, fmt.Errorf("op %q: want remove-question:<category>:<question>", raw)
		}
		if op.category, err = strconv.Atoi(ci); err == nil {
			op.question, err = strconv.Atoi(qi)
		}
	default:
		return editOp{}, fmt.Errorf("op %q: unknown kind %q", raw, kind)
	}
	if err != nil {
		return editOp{}, fmt.Errorf("op %q: bad index: %w", raw, err)
	}
	return op, nil
}
