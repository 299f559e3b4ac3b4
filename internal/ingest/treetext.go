package ingest

import (
	"strings"

	"github.com/gitdigest/gitdigest/internal/types"
)

const (
	treeBranchConnector   = "├── "
	treeLastConnector     = "└── "
	treeContinuationInset = "│   "
	treeBlankInset        = "    "
	directoryNameSuffix   = "/"
)

// drawTree renders the directory tree with box-drawing connectors. Children
// are expected to be sorted already.
func drawTree(rootNode *types.DirectoryNode) string {
	var builder strings.Builder
	writeTreeNode(&builder, rootNode, "", true)
	return builder.String()
}

func writeTreeNode(builder *strings.Builder, node *types.DirectoryNode, linePrefix string, isLastChild bool) {
	connector := treeBranchConnector
	if isLastChild {
		connector = treeLastConnector
	}
	displayName := node.Name
	if node.Type == types.NodeTypeDirectory {
		displayName += directoryNameSuffix
	}
	builder.WriteString(linePrefix)
	builder.WriteString(connector)
	builder.WriteString(displayName)
	builder.WriteString("\n")

	if node.Type != types.NodeTypeDirectory {
		return
	}
	childPrefix := linePrefix + treeContinuationInset
	if isLastChild {
		childPrefix = linePrefix + treeBlankInset
	}
	for childIndex, childNode := range node.Children {
		writeTreeNode(builder, childNode, childPrefix, childIndex == len(node.Children)-1)
	}
}
