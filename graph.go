package typelib

import (
	"iter"
	"reflect"

	"github.com/creachadair/mds/mapset"
)

// A typeNode is one vertex of a type graph: a type occurrence,
// optionally tagged with the field name under which it appeared in a
// structured parent. Cyclic marks a forward-reference placeholder
// inserted when traversal revisits an already-seen type.
type typeNode struct {
	Type   reflect.Type
	Var    string
	Cyclic bool
}

func (n typeNode) key() nodeKey { return nodeKey{n.Type, n.Var, n.Cyclic} }

type nodeKey struct {
	t      reflect.Type
	v      string
	cyclic bool
}

// typeGraph traverses the structural dependencies of root
// breadth-first and returns the nodes ordered from dependency leaves
// to root; the root node is always last.
//
// A revisited cycle-candidate type is replaced by a placeholder node
// and never re-enqueued, so each distinct type enters the work queue
// at most once and traversal of any finite type terminates.
func typeGraph(root reflect.Type) []typeNode {
	rootNode := typeNode{Type: root}
	queue := []typeNode{rootNode}
	visited := mapset.New(root)

	var order []typeNode // discovery order
	seen := mapset.New[nodeKey]()
	preds := make(map[nodeKey][]nodeKey)

	add := func(n typeNode) {
		if !seen.Has(n.key()) {
			seen.Add(n.key())
			order = append(order, n)
		}
	}

	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		add(parent)
		// Literal kinds are leaves regardless of their underlying
		// shape.
		if kindOf(parent.Type) == kindLiteral {
			continue
		}
		for name, child := range children(parent.Type) {
			switch kindOf(child) {
			case kindAny, kindInvalid:
				// Untyped or unusable positions don't get nodes; the
				// parent's routine degrades for them instead.
				continue
			}
			var node typeNode
			if visited.Has(child) && canRecurse(child) {
				node = typeNode{Type: child, Var: name, Cyclic: true}
			} else {
				node = typeNode{Type: child, Var: name}
				visited.Add(child)
				queue = append(queue, node)
			}
			add(node)
			preds[parent.key()] = append(preds[parent.key()], node.key())
		}
	}

	return staticOrder(order, preds)
}

// staticOrder linearizes the graph so that every predecessor precedes
// the nodes that depend on it. Scanning in discovery order keeps the
// output deterministic; the root, which everything else precedes,
// comes out last.
func staticOrder(order []typeNode, preds map[nodeKey][]nodeKey) []typeNode {
	emitted := mapset.New[nodeKey]()
	out := make([]typeNode, 0, len(order))
	for len(out) < len(order) {
		progressed := false
		for _, n := range order {
			k := n.key()
			if emitted.Has(k) {
				continue
			}
			ready := true
			for _, p := range preds[k] {
				if !emitted.Has(p) {
					ready = false
					break
				}
			}
			if ready {
				emitted.Add(k)
				out = append(out, n)
				progressed = true
			}
		}
		if !progressed {
			// Placeholder insertion breaks every cycle at build time,
			// so a stall here is a bug in the builder.
			panic("typelib: type graph has an unbroken cycle")
		}
	}
	return out
}

// children enumerates the structural dependencies of t: element types
// for containers, member types for unions, declared field types (with
// field names) for records and tuples.
func children(t reflect.Type) iter.Seq2[string, reflect.Type] {
	return func(yield func(string, reflect.Type) bool) {
		switch kindOf(t) {
		case kindPointer:
			yield("", t.Elem())
		case kindList:
			yield("", t.Elem())
		case kindMap:
			if !yield("", t.Key()) {
				return
			}
			yield("", t.Elem())
		case kindUnion:
			members, _ := unionMembers(t)
			for _, m := range members {
				if !yield("", m) {
					return
				}
			}
		case kindTuple, kindStruct:
			info, err := getStructInfo(t)
			if err != nil {
				return
			}
			for _, f := range info.StructFields {
				if !yield(f.Name, f.Type) {
					return
				}
			}
		}
	}
}

// canRecurse reports whether t can participate in a reference cycle.
// Scalar repeats are never cyclic; only container shapes, unions and
// user records can close a loop back to an already-visited type.
func canRecurse(t reflect.Type) bool {
	switch kindOf(t) {
	case kindPointer, kindList, kindMap, kindUnion, kindStruct, kindTuple:
		return true
	}
	return false
}
