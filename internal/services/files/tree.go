package files

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

type NodeType string

const (
	NodeFile   NodeType = "file"
	NodeFolder NodeType = "folder"
)

// Node is an entry of the file explorer tree
type Node struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	Type     NodeType   `json:"type"`
	FileID   *uuid.UUID `json:"file_id,omitempty"`
	Children []*Node    `json:"children,omitempty"`
}

// BuildTree turns flat slash-separated paths into a tree. Folders come
// before files and each level is sorted by name.
func BuildTree(files []File) []*Node {
	root := &Node{Type: NodeFolder}

	for _, f := range files {
		parts := strings.Split(strings.Trim(f.Path, "/"), "/")
		dir := root
		for i, part := range parts {
			if part == "" {
				continue
			}
			p := strings.Join(parts[:i+1], "/")

			if i == len(parts)-1 {
				id := f.ID
				dir.Children = append(dir.Children, &Node{Name: part, Path: p, Type: NodeFile, FileID: &id})
				break
			}
			dir = dir.folder(part, p)
		}
	}

	sortNodes(root.Children)
	return root.Children
}

func (n *Node) folder(name, p string) *Node {
	for _, child := range n.Children {
		if child.Type == NodeFolder && child.Name == name {
			return child
		}
	}
	child := &Node{Name: name, Path: p, Type: NodeFolder}
	n.Children = append(n.Children, child)
	return child
}

func sortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Type != nodes[j].Type {
			return nodes[i].Type == NodeFolder
		}
		return nodes[i].Name < nodes[j].Name
	})
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}
