package application

import "strings"

// TreeNode is either a *FileNode or a *DirNode in the changed-files display
// tree.
type TreeNode interface {
	isTreeNode()
}

// FileNode is a leaf carrying one changed file's view descriptor.
type FileNode struct {
	DisplayPath string
	Args        *DiffViewArgs
}

func (*FileNode) isTreeNode() {}

// DirNode is a synthetic directory grouping changed files. Subdirectory
// iteration order follows insertion order; it is deterministic but carries no
// meaning.
type DirNode struct {
	Name    string
	Files   []*FileNode
	Subdirs map[string]*DirNode

	order []string
}

func (*DirNode) isTreeNode() {}

func newDirNode(name string) *DirNode {
	return &DirNode{Name: name, Subdirs: make(map[string]*DirNode)}
}

func (d *DirNode) subdir(name string) *DirNode {
	if sub, ok := d.Subdirs[name]; ok {
		return sub
	}
	sub := newDirNode(name)
	d.Subdirs[name] = sub
	d.order = append(d.order, name)
	return sub
}

// SubdirNames returns the subdirectory names in insertion order.
func (d *DirNode) SubdirNames() []string {
	return d.order
}

// children returns the directory's nodes, files first then subdirectories in
// insertion order. The file/directory ordering is an implementation detail,
// not a contract.
func (d *DirNode) children() []TreeNode {
	nodes := make([]TreeNode, 0, len(d.Files)+len(d.order))
	for _, f := range d.Files {
		nodes = append(nodes, f)
	}
	for _, name := range d.order {
		nodes = append(nodes, d.Subdirs[name])
	}
	return nodes
}

// BuildFileTree arranges changed-file descriptors for display. With nesting
// disabled it returns the files as a flat list in input order. With nesting
// enabled it builds a directory tree from each file's display path, then
// collapses chains of single-subdirectory, zero-file directories into one
// node ("a/b/c"). The synthetic root is never collapsed; its children are the
// returned top-level nodes.
func BuildFileTree(files []*FileNode, nest bool) []TreeNode {
	if !nest {
		nodes := make([]TreeNode, 0, len(files))
		for _, f := range files {
			nodes = append(nodes, f)
		}
		return nodes
	}

	root := newDirNode("")
	for _, f := range files {
		dir := root
		segments := strings.Split(f.DisplayPath, "/")
		for _, seg := range segments[:len(segments)-1] {
			dir = dir.subdir(seg)
		}
		dir.Files = append(dir.Files, f)
	}

	for _, name := range root.order {
		flattenDir(root.Subdirs[name])
	}
	return root.children()
}

// flattenDir merges d with its sole subdirectory while d holds no files and
// exactly one child, joining names with "/". Idempotent: a second pass finds
// nothing left to merge.
func flattenDir(d *DirNode) {
	for len(d.Files) == 0 && len(d.order) == 1 {
		child := d.Subdirs[d.order[0]]
		d.Name = d.Name + "/" + child.Name
		d.Files = child.Files
		d.Subdirs = child.Subdirs
		d.order = child.order
	}
	for _, name := range d.order {
		flattenDir(d.Subdirs[name])
	}
}
