package fragment

import (
	"github.com/jacoelho/xinclude/internal/xpath"
)

func (idx *index) selectExpression(expr xpath.Expression) []*node {
	seen := make(map[*node]bool)
	var out []*node
	for _, path := range expr.Paths {
		for _, n := range idx.selectPath(path) {
			if n.isDocument() {
				// the document node stands for its root element
				n = idx.root()
				if n == nil {
					continue
				}
			}
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	sortByOrder(out)
	return out
}

func (idx *index) selectPath(path xpath.Path) []*node {
	context := []*node{idx.doc}
	if path.HasID {
		n := idx.byID(path.ID)
		if n == nil {
			return nil
		}
		context = []*node{n}
	}
	for _, step := range path.Steps {
		context = applyStep(context, step)
		if len(context) == 0 {
			return nil
		}
	}
	return context
}

// applyStep evaluates step for every context node. Descendant steps follow
// the abbreviated '//' form: predicates apply per parent.
func applyStep(context []*node, step xpath.Step) []*node {
	seen := make(map[*node]bool)
	var out []*node
	add := func(nodes []*node) {
		for _, n := range nodes {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}

	for _, c := range context {
		switch step.Axis {
		case xpath.AxisSelf:
			if c.isDocument() || step.Test.Matches(c.name.Space, c.name.Local) {
				add(applyPredicates([]*node{c}, step.Predicates))
			}
		case xpath.AxisChild:
			add(applyPredicates(matchChildren(c, step.Test), step.Predicates))
		case xpath.AxisDescendant:
			walk(c, func(n *node) {
				add(applyPredicates(matchChildren(n, step.Test), step.Predicates))
			})
		}
	}
	sortByOrder(out)
	return out
}

func matchChildren(n *node, test xpath.NodeTest) []*node {
	var out []*node
	for _, child := range n.children {
		if test.Matches(child.name.Space, child.name.Local) {
			out = append(out, child)
		}
	}
	return out
}

// walk visits n and its descendants in document order.
func walk(n *node, visit func(*node)) {
	visit(n)
	for _, child := range n.children {
		walk(child, visit)
	}
}

func applyPredicates(nodes []*node, preds []xpath.Predicate) []*node {
	for _, pred := range preds {
		if len(nodes) == 0 {
			return nil
		}
		switch pred.Kind {
		case xpath.PredicatePosition:
			if pred.Position > len(nodes) {
				return nil
			}
			nodes = nodes[pred.Position-1 : pred.Position]
		case xpath.PredicateLast:
			nodes = nodes[len(nodes)-1:]
		case xpath.PredicateAttrExists, xpath.PredicateAttrEquals:
			var kept []*node
			for _, n := range nodes {
				if matchAttr(n, pred) {
					kept = append(kept, n)
				}
			}
			nodes = kept
		}
	}
	return nodes
}

func matchAttr(n *node, pred xpath.Predicate) bool {
	for _, attr := range n.attrs {
		if !pred.Attr.Matches(attr.Name.Space, attr.Name.Local) {
			continue
		}
		if pred.Kind == xpath.PredicateAttrExists || attr.Value == pred.Value {
			return true
		}
	}
	return false
}
