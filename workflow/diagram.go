package workflow

import "strings"

// MermaidDiagram renders the stage chain as mermaid source. The diagram is a
// static description of the pipeline shape, not computed from runtime state.
func MermaidDiagram(stages []string) string {
	var b strings.Builder
	b.WriteString("graph TD;\n")
	prev := "__start__"
	for _, name := range stages {
		b.WriteString("\t" + prev + " --> " + name + ";\n")
		prev = name
	}
	b.WriteString("\t" + prev + " --> __end__;\n")
	return b.String()
}
