// Package filetree turns a fragment's flat path→content map into the nested
// structure the file explorer renders.
package filetree

import (
	"sort"
	"strings"
)

// Separator splits fragment paths. Fragment paths are POSIX style.
const Separator = "/"

// Node is a directory or a file. The root returned by Build is an unnamed
// directory.
type Node struct {
	Name     string
	Path     string // full path; prefix path for directories
	IsDir    bool
	Children []*Node
}

// Build returns the tree for files. Directories are shared by prefix, siblings
// are ordered by name with directories and files interleaved, and the result
// does not depend on map iteration order.
func Build(files map[string]string) *Node {
	root := &Node{IsDir: true}
	dirs := map[string]*Node{"": root}
	leaves := make(map[string]bool, len(files))

	for p := range files {
		segs := Segments(p)
		if len(segs) == 0 {
			continue
		}
		full := strings.Join(segs, Separator)
		if leaves[full] {
			continue
		}
		leaves[full] = true
		parent := root
		for i, seg := range segs[:len(segs)-1] {
			prefix := strings.Join(segs[:i+1], Separator)
			dir, ok := dirs[prefix]
			if !ok {
				dir = &Node{Name: seg, Path: prefix, IsDir: true}
				dirs[prefix] = dir
				parent.Children = append(parent.Children, dir)
			}
			parent = dir
		}
		parent.Children = append(parent.Children, &Node{Name: segs[len(segs)-1], Path: full})
	}
	sortTree(root)
	return root
}

// Segments splits p on the separator, dropping empty segments so that
// "/src//app.tsx" and "src/app.tsx" land on the same leaf.
func Segments(p string) []string {
	raw := strings.Split(p, Separator)
	out := raw[:0]
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func sortTree(n *Node) {
	sort.SliceStable(n.Children, func(i, j int) bool {
		a, b := n.Children[i], n.Children[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		// exact name tie ("a" file next to "a/" dir): directory first
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return a.Path < b.Path
	})
	for _, c := range n.Children {
		if c.IsDir {
			sortTree(c)
		}
	}
}

// Leaves returns every file path in tree order.
func (n *Node) Leaves() []string {
	var out []string
	n.Walk(func(node *Node, _ int) {
		if !node.IsDir {
			out = append(out, node.Path)
		}
	})
	return out
}

// Walk visits n and its descendants depth first. depth is 0 for n.
func (n *Node) Walk(fn func(node *Node, depth int)) {
	var visit func(*Node, int)
	visit = func(node *Node, depth int) {
		fn(node, depth)
		for _, c := range node.Children {
			visit(c, depth+1)
		}
	}
	visit(n, 0)
}

// Find returns the node at path, or nil.
func (n *Node) Find(path string) *Node {
	cur := n
	for _, seg := range Segments(path) {
		var next *Node
		for _, c := range cur.Children {
			if c.Name == seg {
				next = c
				if c.IsDir {
					break
				}
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// TreeItems renders the children of n in the nested array shape tree-view
// widgets consume: a file is its name, a directory is [name, ...children].
func (n *Node) TreeItems() []any {
	items := make([]any, 0, len(n.Children))
	for _, c := range n.Children {
		if !c.IsDir {
			items = append(items, c.Name)
			continue
		}
		items = append(items, append([]any{c.Name}, c.TreeItems()...))
	}
	return items
}

// DefaultSelection is the file an explorer opens first: the first leaf in
// tree order, or "" for an empty fragment.
func DefaultSelection(files map[string]string) string {
	leaves := Build(files).Leaves()
	if len(leaves) == 0 {
		return ""
	}
	return leaves[0]
}
