package shortstack

import (
	"sort"
	"strings"
)

// BuildFileTree converts a flat object listing sharing a prefix into an
// ordered forest of FileTreeNode. It is pure and deterministic: feeding the
// same records in any permutation yields a structurally identical tree, and
// processing the same object twice does not duplicate nodes.
//
// Records whose key equals the prefix itself are skipped. At every level
// folders sort before files, then case-sensitive lexicographic by name.
func BuildFileTree(objects []ObjectRecord, prefix string) []*FileTreeNode {
	index := make(map[string]*FileTreeNode)
	var roots []*FileTreeNode

	for _, obj := range objects {
		rel := strings.TrimPrefix(obj.Key, prefix)
		if rel == "" {
			continue
		}

		parts := splitPath(rel)
		if len(parts) == 0 {
			continue
		}

		nodePath := prefix
		parentKey := ""
		for i, part := range parts {
			isFile := i == len(parts)-1
			if isFile {
				nodePath += part
			} else {
				nodePath += part + "/"
			}

			key := strings.Join(parts[:i+1], "/")
			node, ok := index[key]
			if ok && !isFile && node.Type == NodeFile {
				// a file key that also prefixes deeper keys becomes a
				// folder; children never hang off file nodes
				node.Type = NodeFolder
				node.Size = 0
				node.LastModified = nil
				node.Path += "/"
			}
			if !ok {
				node = &FileTreeNode{
					Name: part,
					Path: nodePath,
					Type: NodeFolder,
				}
				if isFile {
					node.Type = NodeFile
					node.Size = obj.Size
					if !obj.LastModified.IsZero() {
						lm := obj.LastModified
						node.LastModified = &lm
					}
				}

				index[key] = node
				if parentKey == "" {
					roots = append(roots, node)
				} else {
					parent := index[parentKey]
					parent.Children = append(parent.Children, node)
				}
			}
			parentKey = key
		}
	}

	sortNodes(roots)
	return roots
}

func splitPath(p string) []string {
	var parts []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	return parts
}

func sortNodes(nodes []*FileTreeNode) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Type != nodes[j].Type {
			return nodes[i].Type == NodeFolder
		}
		return nodes[i].Name < nodes[j].Name
	})
	for _, n := range nodes {
		if len(n.Children) > 0 {
			sortNodes(n.Children)
		}
	}
}
