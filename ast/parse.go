package ast

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// Parse turns source text into a Program, the entry point every component in
// the core builds on (spec.md §4.1). Grounded on the teacher's
// inspector/jsx/inspector.go, which drives the same grammar the same way.
func Parse(src []byte, dialect Dialect) (*Program, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse source: %w", err)
	}

	root := tree.RootNode()
	if root.HasError() {
		if errNode := firstErrorNode(root); errNode != nil {
			line, col := lineCol(src, int(errNode.StartByte()))
			return nil, &ParseError{
				Offset: int(errNode.StartByte()),
				Line:   line,
				Column: col,
				Detail: fmt.Sprintf("unexpected %q", errNode.Type()),
			}
		}
	}

	p := &Program{
		source:  src,
		tree:    tree,
		dialect: dialect,
		cache:   make(map[*sitter.Node]*Node),
	}
	p.root = p.wrap(root)
	return p, nil
}

func firstErrorNode(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstErrorNode(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

func lineCol(src []byte, offset int) (line, col int) {
	line, col = 1, 1
	for i := 0; i < offset && i < len(src); i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
