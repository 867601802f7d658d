package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/arche/pkg/domain"
	"github.com/aretw0/arche/pkg/tree"
)

// Report renders the project tree and its progress summaries as markdown.
func Report(t *tree.Tree) string {
	var sb strings.Builder
	root := t.Root()
	title := root.Name()
	if title == "" {
		title = root.ID()
	}
	fmt.Fprintf(&sb, "# Project %s\n\n", escape(title))
	fmt.Fprintf(&sb, "Owner `%s`, %d nodes.\n\n", root.OwnerID(), t.Len())

	sb.WriteString("## Nodes\n\n")
	_ = t.Walk(func(n domain.Node, depth int) error {
		fmt.Fprintf(&sb, "%s- **%s** `%s`", strings.Repeat("  ", depth), escape(n.ID()), n.Kind())
		if n.Name() != "" && n.Name() != n.ID() {
			fmt.Fprintf(&sb, " %s", escape(n.Name()))
		}
		if f, ok := n.(domain.FileReference); ok && f.FileID() != "" {
			fmt.Fprintf(&sb, " (file `%s`)", f.FileID())
		}
		sb.WriteString("\n")
		return nil
	})

	sb.WriteString("\n## Progress\n\n")
	sb.WriteString("| Node | Kind | Count | Resolved |\n")
	sb.WriteString("|---|---|---:|---|\n")
	for _, a := range t.Aggregators() {
		s := a.Progress().Snapshot()
		resolved := "-"
		if s.IDs != nil {
			resolved = strings.Join(s.IDs, ", ")
			if resolved == "" {
				resolved = "none"
			}
		}
		fmt.Fprintf(&sb, "| %s | %s | %d | %s |\n", escape(a.ID()), a.Kind(), s.Count, resolved)
	}
	return sb.String()
}

var markdownEscaper = strings.NewReplacer(`*`, `\*`, `_`, `\_`, "`", "\\`", `|`, `\|`)

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
