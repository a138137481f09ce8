// Package emit implements Stage S5, the Config Emitter: it serializes a
// graph and coupling plan into preCICE XML with a fixed element ordering
// and deterministic pretty-printing (spec.md §4.5).
package emit

import "strings"

const indentUnit = "    "

// attr is one XML attribute, rendered in the order given (never sorted —
// ordering is part of the deterministic output contract).
type attr struct {
	name, value string
}

func a(name, value string) attr { return attr{name: name, value: value} }

// writer is a hand-rolled indenting XML pretty-printer. It replaces
// encoding/xml so that element ordering, attribute-wrap thresholds, and
// blank-line grouping are under direct control (see DESIGN.md).
type writer struct {
	sb     strings.Builder
	indent int

	lineWrapWidth          int
	attributeWrapThreshold int
}

// newWriter creates a writer using the configured layout budgets.
func newWriter(lineWrapWidth, attributeWrapThreshold int) *writer {
	return &writer{lineWrapWidth: lineWrapWidth, attributeWrapThreshold: attributeWrapThreshold}
}

func (w *writer) indentString() string {
	return strings.Repeat(indentUnit, w.indent)
}

// blank inserts a single grouping blank line between sibling blocks.
func (w *writer) blank() {
	w.sb.WriteString("\n")
}

// comment writes an XML comment verbatim at the current indent.
func (w *writer) comment(text string) {
	w.sb.WriteString(w.indentString())
	w.sb.WriteString("<!--")
	w.sb.WriteString(text)
	w.sb.WriteString("-->\n")
}

// self writes a self-closing element, wrapping one attribute per line at
// the next indent level when the rendered line exceeds threshold columns.
func (w *writer) self(tag string, attrs []attr, threshold int) {
	inline := w.indentString() + "<" + tag + inlineAttrs(attrs) + "/>"
	if len(inline) <= threshold {
		w.sb.WriteString(inline)
		w.sb.WriteString("\n")
		return
	}

	w.sb.WriteString(w.indentString())
	w.sb.WriteString("<")
	w.sb.WriteString(tag)
	w.sb.WriteString("\n")

	inner := strings.Repeat(indentUnit, w.indent+1)
	for _, at := range attrs {
		w.sb.WriteString(inner)
		w.sb.WriteString(at.name)
		w.sb.WriteString(`="`)
		w.sb.WriteString(escapeAttr(at.value))
		w.sb.WriteString(`"`)
		w.sb.WriteString("\n")
	}
	w.sb.WriteString(w.indentString())
	w.sb.WriteString("/>\n")
}

// open writes an opening tag and increases the indent level.
func (w *writer) open(tag string, attrs []attr) {
	w.sb.WriteString(w.indentString())
	w.sb.WriteString("<")
	w.sb.WriteString(tag)
	w.sb.WriteString(inlineAttrs(attrs))
	w.sb.WriteString(">\n")
	w.indent++
}

// close decreases the indent level and writes a closing tag.
func (w *writer) close(tag string) {
	w.indent--
	w.sb.WriteString(w.indentString())
	w.sb.WriteString("</")
	w.sb.WriteString(tag)
	w.sb.WriteString(">\n")
}

func (w *writer) String() string {
	return w.sb.String()
}

func inlineAttrs(attrs []attr) string {
	var sb strings.Builder
	for _, at := range attrs {
		sb.WriteString(" ")
		sb.WriteString(at.name)
		sb.WriteString(`="`)
		sb.WriteString(escapeAttr(at.value))
		sb.WriteString(`"`)
	}
	return sb.String()
}

func escapeAttr(value string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return r.Replace(value)
}
