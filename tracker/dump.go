package tracker

import (
	"fmt"

	"github.com/pterm/pterm"
)

// Dump renders the current scope/function registry as a human-readable tree,
// the way the pack's npillmayer-gorgo renders grammar/parse state with pterm
// for debugging. This is diagnostic only — it changes no serialize or
// instrument semantics and is not part of the tracker's contract (spec.md
// §4.4 exposes no public API to user code; Dump is a Go-side debugging aid
// for whoever embeds the tracker).
func (r *Registry) Dump() string {
	root := pterm.TreeNode{Text: fmt.Sprintf("registry (%d scopes, %d functions)", len(r.scopes), len(r.functions))}

	byParent := map[ScopeID][]ScopeID{}
	var roots []ScopeID
	for id, f := range r.scopes {
		if f.HasParent {
			byParent[f.ParentID] = append(byParent[f.ParentID], id)
		} else {
			roots = append(roots, id)
		}
	}

	var build func(id ScopeID) pterm.TreeNode
	build = func(id ScopeID) pterm.TreeNode {
		f := r.scopes[id]
		label := fmt.Sprintf("scope %s (%s) — %d bindings", shortID(string(id)), f.Decl, len(f.Bindings))
		node := pterm.TreeNode{Text: label}
		for _, child := range byParent[id] {
			node.Children = append(node.Children, build(child))
		}
		return node
	}
	for _, id := range roots {
		root.Children = append(root.Children, build(id))
	}

	funcNode := pterm.TreeNode{Text: "functions"}
	for key, d := range r.functions {
		funcNode.Children = append(funcNode.Children, pterm.TreeNode{
			Text: fmt.Sprintf("%v -> func %s, %d captured scope(s)", key, d.FuncID, len(d.Scopes)),
		})
	}
	root.Children = append(root.Children, funcNode)

	rendered, _ := pterm.DefaultTree.WithRoot(root).Srender()
	return rendered
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
