// Package styles flattens the document's cascading formatting model. For
// every paragraph and run it produces one concrete property set by folding
// document defaults, the basedOn style chain root to leaf and finally the
// node's own direct formatting. Later sources win per property; an unset
// property inherits, never resets.
package styles

import (
	"strings"

	"dxp/docx"
)

// DefaultStyleID is assumed for paragraphs without an explicit style
// reference.
const DefaultStyleID = "Normal"

// Effective is the fully resolved paragraph property set. Every field holds
// a concrete value.
type Effective struct {
	StyleID string

	Alignment         docx.Alignment
	SpaceBefore       float64
	SpaceAfter        float64
	LineSpacing       float64
	IndentLeft        float64
	IndentHanging     float64
	ContextualSpacing bool
	KeepNext          bool
	BorderBottom      *docx.Border

	// Run-level values at paragraph scope, the base every run inherits.
	Run EffectiveRun
}

// EffectiveRun is the fully resolved run property set.
type EffectiveRun struct {
	FontName  string
	FontSize  float64
	Bold      bool
	Italic    bool
	Underline bool
	Strike    bool
	Color     docx.Color
}

// FontKey is the face this run resolves to.
func (r EffectiveRun) FontKey() docx.FontKey {
	return docx.FontKey{Family: primaryFamily(r.FontName), Bold: r.Bold, Italic: r.Italic}
}

// primaryFamily strips alternates from a composite font reference like
// "Helvetica Neue;Arial" and normalizes case.
func primaryFamily(name string) string {
	first, _, _ := strings.Cut(name, ";")
	return strings.ToLower(strings.TrimSpace(first))
}

// folded is the cached ancestor portion of one style: the basedOn chain
// including the style itself, still in optional form.
type folded struct {
	para docx.ParaProps
	run  docx.RunProps
}

// Resolver computes effective styles against one document's registry and
// defaults. All style chains are folded at construction, so a Resolver is
// immutable and safe for concurrent use.
type Resolver struct {
	defaults docx.Defaults
	fold     map[string]folded
}

// New folds every style in the document registry. A cycle in a basedOn
// chain makes the offending style resolve to document defaults alone.
func New(doc *docx.Document) *Resolver {
	r := &Resolver{
		defaults: doc.Defaults,
		fold:     make(map[string]folded, len(doc.Styles)),
	}
	for id := range doc.Styles {
		r.fold[id] = foldChain(id, doc.Styles)
	}
	return r
}

func foldChain(id string, registry map[string]*docx.Style) folded {
	// Collect the chain leaf to root, watching for cycles.
	var chain []*docx.Style
	visited := make(map[string]bool)
	for cur := id; cur != ""; {
		if visited[cur] {
			return folded{} // cycle: document defaults only
		}
		visited[cur] = true
		style, ok := registry[cur]
		if !ok {
			break
		}
		chain = append(chain, style)
		cur = style.BasedOn
	}

	// Apply root first so nearer styles override.
	var f folded
	for i := len(chain) - 1; i >= 0; i-- {
		overlayPara(&f.para, chain[i].Para)
		overlayRun(&f.run, chain[i].Run)
	}
	return f
}

func overlayPara(dst *docx.ParaProps, src docx.ParaProps) {
	if src.Alignment != nil {
		dst.Alignment = src.Alignment
	}
	if src.SpaceBefore != nil {
		dst.SpaceBefore = src.SpaceBefore
	}
	if src.SpaceAfter != nil {
		dst.SpaceAfter = src.SpaceAfter
	}
	if src.LineSpacing != nil {
		dst.LineSpacing = src.LineSpacing
	}
	if src.IndentLeft != nil {
		dst.IndentLeft = src.IndentLeft
	}
	if src.IndentHanging != nil {
		dst.IndentHanging = src.IndentHanging
	}
	if src.ContextualSpacing != nil {
		dst.ContextualSpacing = src.ContextualSpacing
	}
	if src.KeepNext != nil {
		dst.KeepNext = src.KeepNext
	}
	if src.BorderBottom != nil {
		dst.BorderBottom = src.BorderBottom
	}
}

func overlayRun(dst *docx.RunProps, src docx.RunProps) {
	if src.FontName != nil {
		dst.FontName = src.FontName
	}
	if src.FontSize != nil {
		dst.FontSize = src.FontSize
	}
	if src.Bold != nil {
		dst.Bold = src.Bold
	}
	if src.Italic != nil {
		dst.Italic = src.Italic
	}
	if src.Underline != nil {
		dst.Underline = src.Underline
	}
	if src.Strike != nil {
		dst.Strike = src.Strike
	}
	if src.Color != nil {
		dst.Color = src.Color
	}
}

// Resolve computes the effective paragraph properties: style chain fold,
// then direct formatting, then concrete defaults for whatever is left.
// Pure for a given paragraph; resolving twice yields identical results.
func (r *Resolver) Resolve(para *docx.Paragraph) Effective {
	styleID := para.StyleID
	if styleID == "" {
		styleID = DefaultStyleID
	}

	merged := r.fold[styleID] // zero value when unknown: defaults apply
	overlayPara(&merged.para, para.Props)

	eff := Effective{
		StyleID:     styleID,
		LineSpacing: r.defaults.LineSpacing,
		SpaceAfter:  r.defaults.SpaceAfter,
		Run: EffectiveRun{
			FontName: r.defaults.FontName,
			FontSize: r.defaults.FontSize,
		},
	}

	p := merged.para
	if p.Alignment != nil {
		eff.Alignment = *p.Alignment
	}
	if p.SpaceBefore != nil {
		eff.SpaceBefore = *p.SpaceBefore
	}
	if p.SpaceAfter != nil {
		eff.SpaceAfter = *p.SpaceAfter
	}
	if p.LineSpacing != nil {
		eff.LineSpacing = *p.LineSpacing
	}
	if p.ContextualSpacing != nil {
		eff.ContextualSpacing = *p.ContextualSpacing
	}
	if p.KeepNext != nil {
		eff.KeepNext = *p.KeepNext
	}
	eff.BorderBottom = p.BorderBottom
	if eff.BorderBottom != nil {
		// The rule and its gap take room below the text.
		eff.SpaceAfter += eff.BorderBottom.Extra()
	}

	// Indent precedence: direct formatting, then the numbering level, then
	// the style chain.
	switch {
	case para.Props.IndentLeft != nil:
		eff.IndentLeft = *para.Props.IndentLeft
	case para.ListLabel != "":
		eff.IndentLeft = para.ListIndentLeft
	case p.IndentLeft != nil:
		eff.IndentLeft = *p.IndentLeft
	}
	switch {
	case para.Props.IndentHanging != nil:
		eff.IndentHanging = *para.Props.IndentHanging
	case para.ListLabel != "":
		eff.IndentHanging = para.ListIndentHanging
	case p.IndentHanging != nil:
		eff.IndentHanging = *p.IndentHanging
	}

	applyRun(&eff.Run, merged.run)
	return eff
}

// ResolveRun overlays one run's direct formatting on the paragraph's
// effective base.
func (r *Resolver) ResolveRun(eff Effective, run docx.Run) EffectiveRun {
	out := eff.Run
	applyRun(&out, run.Props)
	return out
}

func applyRun(dst *EffectiveRun, src docx.RunProps) {
	if src.FontName != nil {
		dst.FontName = *src.FontName
	}
	if src.FontSize != nil {
		dst.FontSize = *src.FontSize
	}
	if src.Bold != nil {
		dst.Bold = *src.Bold
	}
	if src.Italic != nil {
		dst.Italic = *src.Italic
	}
	if src.Underline != nil {
		dst.Underline = *src.Underline
	}
	if src.Strike != nil {
		dst.Strike = *src.Strike
	}
	if src.Color != nil {
		dst.Color = *src.Color
	}
}

// SuppressSpacing reports whether the spacing between two adjacent
// paragraphs collapses: either side asks for contextual spacing and both
// resolved to the same style.
func SuppressSpacing(prev, next Effective) bool {
	if prev.StyleID != next.StyleID {
		return false
	}
	return prev.ContextualSpacing || next.ContextualSpacing
}
