package styles

import (
	"reflect"
	"testing"

	"dxp/docx"
)

func fptr(v float64) *float64               { return &v }
func bptr(v bool) *bool                     { return &v }
func sptr(v string) *string                 { return &v }
func aptr(v docx.Alignment) *docx.Alignment { return &v }

func testDocument(styles map[string]*docx.Style) *docx.Document {
	return &docx.Document{
		Defaults: docx.Defaults{
			FontSize:    12,
			FontName:    "Aptos",
			SpaceAfter:  8,
			LineSpacing: 1.2,
		},
		Styles: styles,
	}
}

func TestResolveDefaultsOnly(t *testing.T) {
	r := New(testDocument(nil))
	eff := r.Resolve(&docx.Paragraph{})

	if eff.StyleID != DefaultStyleID {
		t.Errorf("style id %q", eff.StyleID)
	}
	if eff.Alignment != docx.AlignLeft {
		t.Error("default alignment")
	}
	if eff.SpaceBefore != 0 || eff.SpaceAfter != 8 || eff.LineSpacing != 1.2 {
		t.Errorf("spacing %g/%g/%g", eff.SpaceBefore, eff.SpaceAfter, eff.LineSpacing)
	}
	if eff.Run.FontName != "Aptos" || eff.Run.FontSize != 12 {
		t.Errorf("run base %+v", eff.Run)
	}
	if eff.Run.Bold || eff.Run.Italic {
		t.Error("toggles should default off")
	}
}

func TestResolveChainFoldOrder(t *testing.T) {
	r := New(testDocument(map[string]*docx.Style{
		"Base": {
			ID:   "Base",
			Para: docx.ParaProps{Alignment: aptr(docx.AlignCenter), SpaceBefore: fptr(10)},
			Run:  docx.RunProps{FontSize: fptr(20), Bold: bptr(true), FontName: sptr("Georgia")},
		},
		"Child": {
			ID:      "Child",
			BasedOn: "Base",
			Run:     docx.RunProps{FontSize: fptr(16)},
		},
	}))

	eff := r.Resolve(&docx.Paragraph{StyleID: "Child"})
	if eff.Run.FontSize != 16 {
		t.Errorf("own style must override parent: size %g", eff.Run.FontSize)
	}
	if !eff.Run.Bold || eff.Run.FontName != "Georgia" {
		t.Error("unset child props must inherit from parent")
	}
	if eff.Alignment != docx.AlignCenter || eff.SpaceBefore != 10 {
		t.Error("paragraph props must inherit through the chain")
	}

	// Direct formatting outranks the whole chain.
	direct := r.Resolve(&docx.Paragraph{
		StyleID: "Child",
		Props:   docx.ParaProps{Alignment: aptr(docx.AlignRight)},
	})
	if direct.Alignment != docx.AlignRight {
		t.Error("direct formatting must win")
	}

	run := r.ResolveRun(eff, docx.Run{Props: docx.RunProps{Bold: bptr(false)}})
	if run.Bold {
		t.Error("run-level off toggle must override style-level on")
	}
	if run.FontSize != 16 {
		t.Error("unset run props must keep paragraph base")
	}
}

func TestResolveCycleFallsBackToDefaults(t *testing.T) {
	r := New(testDocument(map[string]*docx.Style{
		"A": {ID: "A", BasedOn: "B", Run: docx.RunProps{FontSize: fptr(30)}},
		"B": {ID: "B", BasedOn: "A", Run: docx.RunProps{FontSize: fptr(40)}},
	}))

	eff := r.Resolve(&docx.Paragraph{StyleID: "A"})
	if eff.Run.FontSize != 12 {
		t.Errorf("cyclic style must resolve to document defaults, got size %g", eff.Run.FontSize)
	}
}

func TestResolveIsPure(t *testing.T) {
	r := New(testDocument(map[string]*docx.Style{
		"Base": {ID: "Base", Run: docx.RunProps{Bold: bptr(true)}},
	}))
	para := &docx.Paragraph{
		StyleID: "Base",
		Props:   docx.ParaProps{SpaceAfter: fptr(4)},
	}

	first := r.Resolve(para)
	second := r.Resolve(para)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("resolution not stable:\n%+v\n%+v", first, second)
	}
}

func TestBorderBottomExtendsSpaceAfter(t *testing.T) {
	r := New(testDocument(nil))
	eff := r.Resolve(&docx.Paragraph{
		Props: docx.ParaProps{
			SpaceAfter:   fptr(6),
			BorderBottom: &docx.Border{Width: 1.5, Space: 2},
		},
	})
	if eff.SpaceAfter != 6+1.5+2 {
		t.Errorf("space after %g", eff.SpaceAfter)
	}
	if eff.BorderBottom == nil {
		t.Error("border must be carried for the emitter rule")
	}
}

func TestIndentPrecedence(t *testing.T) {
	r := New(testDocument(map[string]*docx.Style{
		"ListStyle": {ID: "ListStyle", Para: docx.ParaProps{IndentLeft: fptr(10)}},
	}))

	listed := r.Resolve(&docx.Paragraph{
		StyleID:           "ListStyle",
		ListLabel:         "1.",
		ListIndentLeft:    36,
		ListIndentHanging: 18,
	})
	if listed.IndentLeft != 36 || listed.IndentHanging != 18 {
		t.Errorf("numbering indents must beat style indents: %g/%g", listed.IndentLeft, listed.IndentHanging)
	}

	direct := r.Resolve(&docx.Paragraph{
		StyleID:        "ListStyle",
		ListLabel:      "1.",
		ListIndentLeft: 36,
		Props:          docx.ParaProps{IndentLeft: fptr(72)},
	})
	if direct.IndentLeft != 72 {
		t.Errorf("direct indent must win: %g", direct.IndentLeft)
	}
}

func TestSuppressSpacing(t *testing.T) {
	same := Effective{StyleID: "ListParagraph", ContextualSpacing: true}
	other := Effective{StyleID: "Normal"}

	if !SuppressSpacing(same, same) {
		t.Error("same style with contextual spacing must collapse")
	}
	if SuppressSpacing(same, other) {
		t.Error("different styles must not collapse")
	}
	if SuppressSpacing(other, other) {
		t.Error("without the flag nothing collapses")
	}
}

func TestFontKey(t *testing.T) {
	run := EffectiveRun{FontName: "Helvetica Neue; Arial", Bold: true}
	key := run.FontKey()
	want := docx.FontKey{Family: "helvetica neue", Bold: true}
	if key != want {
		t.Errorf("font key %+v", key)
	}
}
