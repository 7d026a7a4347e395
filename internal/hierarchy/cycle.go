package hierarchy

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"typelift/internal/metamodel"
)

type visitState uint8

const (
	stateVisiting visitState = iota + 1
	stateDone
)

// CycleError reports a supertype cycle. Path starts and ends at the same
// type.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("supertype cycle: %s", strings.Join(e.Path, " -> "))
}

// CheckAcyclic rejects a hierarchy whose supertype relation is not a DAG.
// Lifting has no cycle guard of its own, so this must run first.
func CheckAcyclic(src Source) error {
	states := make(map[*metamodel.TypeNode]visitState)
	var stack []*metamodel.TypeNode

	var visit func(n *metamodel.TypeNode) error
	visit = func(n *metamodel.TypeNode) error {
		switch states[n] {
		case stateVisiting:
			return &CycleError{Path: cyclePath(stack, n)}
		case stateDone:
			return nil
		}
		states[n] = stateVisiting
		stack = append(stack, n)
		for _, super := range n.Supertypes() {
			if err := visit(super); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		states[n] = stateDone
		return nil
	}

	for _, n := range src.AllTypes() {
		if err := visit(n); err != nil {
			return err
		}
	}
	return nil
}

func cyclePath(stack []*metamodel.TypeNode, back *metamodel.TypeNode) []string {
	start := slices.Index(stack, back)
	path := make([]string, 0, len(stack)-start+1)
	for _, n := range stack[start:] {
		path = append(path, n.Name)
	}
	return append(path, back.Name)
}

func sortByOrder(nodes []*metamodel.TypeNode, order map[*metamodel.TypeNode]int) {
	slices.SortFunc(nodes, func(a, b *metamodel.TypeNode) int {
		if c := cmp.Compare(order[a], order[b]); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}
