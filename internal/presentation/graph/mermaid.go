// Package graph renders component topologies as Mermaid diagrams.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/s8r-framework/s8r/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart from a composite's
// members and connections. It applies semantic styling:
// - Processor: [[Subroutine]]
// - Observer: [/Parallelogram/]
// - Composite member: ((Circle))
// - Default: [Rectangle]
// Active components are highlighted and terminated ones dimmed.
func GenerateMermaid(c *domain.Composite) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	components := c.Components()
	sort.Slice(components, func(i, j int) bool {
		return components[i].ID().String() < components[j].ID().String()
	})

	for _, member := range components {
		writeNode(&sb, "    ", member)
	}

	for _, conn := range c.Connections() {
		writeEdge(&sb, "    ", conn)
	}

	writeOverlay(&sb, components)

	return sb.String()
}

// GenerateMachineMermaid renders a machine as a flowchart with one
// subgraph per composite.
func GenerateMachineMermaid(m *domain.Machine) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	var all []*domain.Component
	for _, composite := range m.Composites() {
		sb.WriteString(fmt.Sprintf("    subgraph %s[\"%s\"]\n",
			sanitizeMermaidID(composite.ID().ShortID()), escapeLabel(composite.ID().Reason())))

		components := composite.Components()
		sort.Slice(components, func(i, j int) bool {
			return components[i].ID().String() < components[j].ID().String()
		})
		for _, member := range components {
			writeNode(&sb, "        ", member)
		}
		all = append(all, components...)

		sb.WriteString("    end\n")

		for _, conn := range composite.Connections() {
			writeEdge(&sb, "    ", conn)
		}
	}

	writeOverlay(&sb, all)

	return sb.String()
}

func writeNode(sb *strings.Builder, indent string, c *domain.Component) {
	opener, closer := "[", "]"
	switch c.Type() {
	case domain.TypeProcessor:
		opener, closer = "[[", "]]"
	case domain.TypeObserver:
		opener, closer = "[/", "/]"
	case domain.TypeComposite:
		opener, closer = "((", "))"
	}

	safeID := sanitizeMermaidID(c.ID().ShortID())
	label := escapeLabel(c.ID().Reason())
	if label == "" {
		label = c.ID().ShortID()
	}
	sb.WriteString(fmt.Sprintf("%s%s%s\"%s\"%s\n", indent, safeID, opener, label, closer))
}

func writeEdge(sb *strings.Builder, indent string, conn *domain.Connection) {
	safeFrom := sanitizeMermaidID(conn.SourceID().ShortID())
	safeTo := sanitizeMermaidID(conn.TargetID().ShortID())

	arrow := fmt.Sprintf("-- \"%s\" -->", conn.Type())
	if !conn.Active() {
		arrow = fmt.Sprintf("-. \"%s\" .->", conn.Type())
	}
	sb.WriteString(fmt.Sprintf("%s%s %s %s\n", indent, safeFrom, arrow, safeTo))
}

// writeOverlay styles nodes by lifecycle state.
func writeOverlay(sb *strings.Builder, components []*domain.Component) {
	if len(components) == 0 {
		return
	}
	sb.WriteString("\n    %% State Styles\n")
	// Force black text (color:#000) for high-contrast regardless of theme.
	sb.WriteString("    classDef active fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef terminated fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray: 5 5,color:#000;\n")

	for _, c := range components {
		safeID := sanitizeMermaidID(c.ID().ShortID())
		switch {
		case c.State() == domain.StateActive:
			sb.WriteString(fmt.Sprintf("    class %s active;\n", safeID))
		case c.State().IsTermination():
			sb.WriteString(fmt.Sprintf("    class %s terminated;\n", safeID))
		}
	}
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
