package service

import (
	"errors"
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/partita/internal/account/domain"
)

var errCorruptTree = errors.New("account tree contains a cycle")

// arena holds a company's whole chart addressed by id. Codes are treated as
// derived values and recomputed top-down from the new parent on a move.
type arena struct {
	nodes    map[snowflake.ID]*domain.Account
	children map[snowflake.ID][]snowflake.ID
}

func newArena(items []*domain.Account) *arena {
	a := &arena{
		nodes:    make(map[snowflake.ID]*domain.Account, len(items)),
		children: make(map[snowflake.ID][]snowflake.ID),
	}
	for _, item := range items {
		if item == nil {
			continue
		}
		a.nodes[item.ID] = item
		if item.ParentID != nil {
			a.children[*item.ParentID] = append(a.children[*item.ParentID], item.ID)
		}
	}
	return a
}

// isDescendant reports whether candidate sits in the subtree rooted at root.
func (a *arena) isDescendant(root, candidate snowflake.ID) (bool, error) {
	seen := make(map[snowflake.ID]struct{})
	current := candidate
	for {
		if current == root {
			return true, nil
		}
		if _, ok := seen[current]; ok {
			return false, errCorruptTree
		}
		seen[current] = struct{}{}

		node, ok := a.nodes[current]
		if !ok || node.ParentID == nil {
			return false, nil
		}
		current = *node.ParentID
	}
}

// moveLockSet lists, in ascending id order, the rows a move of id under
// newParentID must hold: both parents plus the whole moved subtree.
func (a *arena) moveLockSet(id, newParentID snowflake.ID) []snowflake.ID {
	set := map[snowflake.ID]struct{}{newParentID: {}}
	if node, ok := a.nodes[id]; ok && node.ParentID != nil {
		set[*node.ParentID] = struct{}{}
	}
	visited := make(map[snowflake.ID]struct{})
	stack := []snowflake.ID{id}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := visited[current]; ok {
			continue
		}
		visited[current] = struct{}{}
		set[current] = struct{}{}
		stack = append(stack, a.children[current]...)
	}

	ids := make([]snowflake.ID, 0, len(set))
	for member := range set {
		ids = append(ids, member)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// planMove returns the code rewrites needed to hang id under newParentID,
// the moved node first. An empty plan means the node already sits there.
func (a *arena) planMove(id, newParentID snowflake.ID) ([]domain.CodeUpdate, error) {
	node, ok := a.nodes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if node.Kind == domain.KindMastro {
		return nil, domain.ErrInvalidMove
	}
	parent, ok := a.nodes[newParentID]
	if !ok {
		return nil, domain.ErrParentNotFound
	}
	if expected, _ := node.Kind.ParentKind(); parent.Kind != expected {
		return nil, domain.ErrInvalidParent
	}
	inside, err := a.isDescendant(id, newParentID)
	if err != nil {
		return nil, err
	}
	if inside {
		return nil, domain.ErrInvalidMove
	}
	if node.ParentID != nil && *node.ParentID == newParentID {
		return nil, nil
	}

	siblings := make([]string, 0, len(a.children[newParentID]))
	for _, childID := range a.children[newParentID] {
		if child := a.nodes[childID]; child != nil && child.Kind == node.Kind {
			siblings = append(siblings, child.Code)
		}
	}
	newCode, err := domain.NextCode(node.Kind, parent.Code, siblings)
	if err != nil {
		return nil, err
	}

	oldCode := node.Code
	parentRef := newParentID
	plan := []domain.CodeUpdate{{ID: id, Code: newCode, ParentID: &parentRef}}

	stack := append([]snowflake.ID(nil), a.children[id]...)
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		child := a.nodes[current]
		if child == nil {
			continue
		}
		plan = append(plan, domain.CodeUpdate{
			ID:       child.ID,
			Code:     domain.Rebase(child.Code, oldCode, newCode),
			ParentID: child.ParentID,
		})
		stack = append(stack, a.children[current]...)
	}
	return plan, nil
}
