// Package view builds process trees and runs the sort/filter pipeline
// over a model.Snapshot. Every function here is a pure transform: none of
// them touch /proc or any other I/O.
package view

import (
	"sort"

	"github.com/nsolari/procwatch/model"
)

// Node is one process in the tree, with its children attached.
type Node struct {
	Process  model.ProcessRecord
	Children []*Node
	Depth    int
}

// BuildTree indexes processes by PID in one pass, links each to its
// parent, and promotes any process whose parent isn't present in the
// snapshot (PID 1, reparented orphans, or a race with the sampler) to a
// root. Runs in O(N). Children, and the root list itself, are ordered by
// PID ascending, regardless of the input slice's order.
func BuildTree(processes []model.ProcessRecord) []*Node {
	nodes := make(map[int]*Node, len(processes))
	for _, p := range processes {
		nodes[p.PID] = &Node{Process: p}
	}

	var roots []*Node
	for _, p := range processes {
		n := nodes[p.PID]
		parent, ok := nodes[p.PPID]
		if !ok || p.PPID == p.PID {
			roots = append(roots, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}

	sort.Slice(roots, func(i, j int) bool { return roots[i].Process.PID < roots[j].Process.PID })
	for _, r := range roots {
		sortChildren(r)
		assignDepth(r, 0)
	}
	return roots
}

func sortChildren(n *Node) {
	sort.Slice(n.Children, func(i, j int) bool { return n.Children[i].Process.PID < n.Children[j].Process.PID })
	for _, c := range n.Children {
		sortChildren(c)
	}
}

func assignDepth(n *Node, depth int) {
	n.Depth = depth
	for _, c := range n.Children {
		assignDepth(c, depth+1)
	}
}

// Flatten walks the forest depth-first (parent before children, siblings
// in PID-ascending order) and returns the nodes in display order.
func Flatten(roots []*Node) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(n *Node) {
		out = append(out, n)
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return out
}
