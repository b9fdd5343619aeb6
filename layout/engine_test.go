package layout

import (
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"

	"dxp/docx"
	"dxp/fonts"
	"dxp/styles"
)

// Tests run against the built-in fallback metrics (nonexistent family, empty
// font search path), which makes every measurement deterministic:
// line height ratio 1.2, ascent ratio 0.8, Helvetica-class widths.
const testFamily = "No Such Test Face 1891"

func testEngine(t *testing.T, doc *docx.Document) *Engine {
	t.Helper()
	t.Setenv(fonts.EnvFonts, t.TempDir())
	fr := fonts.NewResolver(nil, fonts.Config{Workers: 1}, zap.NewNop())
	t.Cleanup(func() { fr.Close() })
	return New(doc, styles.New(doc), fr, 1, zap.NewNop())
}

// testDoc uses a small page and spacing-free defaults so heights are easy
// to reason about: font size 10 gives 12pt lines.
func testDoc(pageHeight float64, blocks ...docx.Block) *docx.Document {
	return &docx.Document{
		Geometry: docx.Geometry{
			PageWidth:    300,
			PageHeight:   pageHeight,
			MarginTop:    20,
			MarginBottom: 20,
			MarginLeft:   20,
			MarginRight:  20,
		},
		Defaults: docx.Defaults{
			FontSize:    10,
			FontName:    testFamily,
			SpaceAfter:  0,
			LineSpacing: 1.0,
		},
		Blocks: blocks,
	}
}

func textPara(words ...string) *docx.Paragraph {
	return &docx.Paragraph{Runs: []docx.Run{{Text: strings.Join(words, " ")}}}
}

func TestSingleLinePlacement(t *testing.T) {
	doc := testDoc(200, textPara("Hello", "world"))
	pages := testEngine(t, doc).Layout()

	if len(pages) != 1 {
		t.Fatalf("pages %d", len(pages))
	}
	page := pages[0]
	if len(page.Lines) != 1 {
		t.Fatalf("lines %d", len(page.Lines))
	}
	line := page.Lines[0]
	if len(line.Chunks) != 2 {
		t.Fatalf("chunks %d", len(line.Chunks))
	}

	if line.Chunks[0].X != 20 {
		t.Errorf("first chunk x %g, want left margin", line.Chunks[0].X)
	}
	// Second word starts after the first plus one space advance.
	wantX := 20 + line.Chunks[0].Width + line.Chunks[1].Font.AdvanceWidth(' ', 10)
	if math.Abs(line.Chunks[1].X-wantX) > 1e-9 {
		t.Errorf("second chunk x %g, want %g", line.Chunks[1].X, wantX)
	}
	// Baseline: top margin + ascent (0.8 em at 10pt).
	if math.Abs(line.Baseline-(20+8)) > 1e-9 {
		t.Errorf("baseline %g", line.Baseline)
	}
	if line.Height != 12 {
		t.Errorf("line height %g", line.Height)
	}
}

func TestLineWidthsNeverExceedColumn(t *testing.T) {
	words := make([]string, 120)
	for i := range words {
		words[i] = "measure"
	}
	doc := testDoc(2000, textPara(words...))
	pages := testEngine(t, doc).Layout()

	avail := 300.0 - 20 - 20
	count := 0
	for _, page := range pages {
		for _, line := range page.Lines {
			count++
			if line.Width > avail+1e-9 {
				t.Errorf("line width %g exceeds column %g", line.Width, avail)
			}
		}
	}
	if count < 2 {
		t.Fatalf("expected a wrapped paragraph, got %d lines", count)
	}
}

func TestJustifiedLinesFillTheColumn(t *testing.T) {
	words := make([]string, 40)
	for i := range words {
		words[i] = "justify"
	}
	para := textPara(words...)
	align := docx.AlignJustify
	para.Props.Alignment = &align

	doc := testDoc(2000, para)
	pages := testEngine(t, doc).Layout()

	avail := 300.0 - 20 - 20
	lines := pages[0].Lines
	if len(lines) < 3 {
		t.Fatalf("want several lines, got %d", len(lines))
	}
	for i, line := range lines[:len(lines)-1] {
		last := line.Chunks[len(line.Chunks)-1]
		right := last.X + last.Width
		if math.Abs(right-(20+avail)) > 1e-6 {
			t.Errorf("justified line %d right edge %g, want %g", i, right, 20+avail)
		}
	}
	final := lines[len(lines)-1]
	lastChunk := final.Chunks[len(final.Chunks)-1]
	if lastChunk.X+lastChunk.Width >= 20+avail-1 {
		t.Error("final line must keep natural spacing")
	}
}

func TestOversizedChunkPlacedAlone(t *testing.T) {
	// One unbreakable 60-character word at 10pt is far wider than the
	// 260pt column.
	doc := testDoc(200, textPara(strings.Repeat("M", 60)))
	pages := testEngine(t, doc).Layout()

	line := pages[0].Lines[0]
	if len(line.Chunks) != 1 {
		t.Fatalf("oversized chunk must sit alone, got %d chunks", len(line.Chunks))
	}
	if line.Width <= 260 {
		t.Error("expected the overflow width to be preserved, not truncated")
	}
}

func TestParagraphSplitsAcrossPages(t *testing.T) {
	// Usable height 60 = 5 lines per page; ~12 lines of text.
	words := make([]string, 110)
	for i := range words {
		words[i] = "flow"
	}
	doc := testDoc(100, textPara(words...))
	pages := testEngine(t, doc).Layout()

	if len(pages) < 2 {
		t.Fatalf("expected a multi-page paragraph, got %d pages", len(pages))
	}
	total := 0
	for _, page := range pages {
		if len(page.Lines) > 5 {
			t.Errorf("page holds %d lines, only 5 fit", len(page.Lines))
		}
		for _, line := range page.Lines {
			if line.Baseline > 100-20+1e-9 {
				t.Errorf("baseline %g below bottom margin", line.Baseline)
			}
		}
		total += len(page.Lines)
	}
	if total < 10 {
		t.Errorf("lines lost during pagination: %d", total)
	}
}

func TestOrphanControlMovesWholeParagraph(t *testing.T) {
	// Usable 60. Filler takes one line; space-before pushes the cursor so
	// only one line of the three-line paragraph would fit.
	filler := textPara("filler")
	target := textPara(strings.Repeat("word ", 40))
	before := 36.0
	target.Props.SpaceBefore = &before

	doc := testDoc(100, filler, target)
	pages := testEngine(t, doc).Layout()

	if len(pages) < 2 {
		t.Fatalf("pages %d", len(pages))
	}
	if got := len(pages[0].Lines); got != 1 {
		t.Errorf("first page must keep only the filler line, got %d lines", got)
	}
	if got := len(pages[1].Lines); got < 2 {
		t.Errorf("moved paragraph must not start with a stranded line, got %d", got)
	}
}

func TestWidowControlMovesAnExtraLine(t *testing.T) {
	// Usable 60, filler one line, space-before 12: remaining 36 fits three
	// of the four lines, which would strand the last one. One extra line
	// moves with it.
	filler := textPara("filler")
	words := make([]string, 26) // wraps to four lines at this column width
	for i := range words {
		words[i] = "widow"
	}
	target := textPara(words...)
	before := 12.0
	target.Props.SpaceBefore = &before

	doc := testDoc(100, filler, target)
	pages := testEngine(t, doc).Layout()

	if len(pages) != 2 {
		t.Fatalf("pages %d", len(pages))
	}
	onFirst := len(pages[0].Lines) - 1 // minus the filler line
	onSecond := len(pages[1].Lines)
	if onSecond < 2 {
		t.Errorf("widow stranded: %d line(s) on the second page", onSecond)
	}
	if onFirst < 1 {
		t.Errorf("first page lost the paragraph entirely: %d lines", onFirst)
	}
}

func TestKeepWithNext(t *testing.T) {
	filler := textPara("one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten",
		"eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen", "eighteen")
	heading := textPara("Heading")
	keep := true
	heading.Props.KeepNext = &keep
	body := textPara("body", "text", "follows", "the", "heading", "here", "and", "wraps", "onto", "more", "lines")

	doc := testDoc(100, filler, heading, body)
	pages := testEngine(t, doc).Layout()

	// Wherever the heading landed, the following paragraph starts on the
	// same page.
	headingPage := -1
	for i, page := range pages {
		for _, line := range page.Lines {
			if len(line.Chunks) > 0 && string(line.Chunks[0].Text) == "Heading" {
				headingPage = i
				if len(page.Lines) < 2 {
					t.Error("keep-with-next violated: heading alone on its page")
				}
			}
		}
	}
	if headingPage == -1 {
		t.Fatal("heading not found")
	}
}

func TestContextualSpacingSuppressed(t *testing.T) {
	ctx := true
	styleID := "ListParagraph"
	first := textPara("first")
	first.StyleID = styleID
	first.Props.ContextualSpacing = &ctx
	after := 20.0
	first.Props.SpaceAfter = &after
	second := textPara("second")
	second.StyleID = styleID
	second.Props.ContextualSpacing = &ctx

	doc := testDoc(400, first, second)
	pages := testEngine(t, doc).Layout()

	lines := pages[0].Lines
	if len(lines) != 2 {
		t.Fatalf("lines %d", len(lines))
	}
	gap := lines[1].Baseline - lines[0].Baseline
	if math.Abs(gap-12) > 1e-9 {
		t.Errorf("spacing not suppressed between same-style paragraphs: gap %g", gap)
	}
}

func TestListLabelInGutter(t *testing.T) {
	para := textPara("item", "text")
	para.ListLabel = "1."
	para.ListIndentLeft = 36
	para.ListIndentHanging = 18

	doc := testDoc(200, para)
	pages := testEngine(t, doc).Layout()

	line := pages[0].Lines[0]
	if len(line.Chunks) != 3 {
		t.Fatalf("expected label + two words, got %d chunks", len(line.Chunks))
	}
	label := line.Chunks[0]
	if string(label.Text) != "1." {
		t.Errorf("label text %q", label.Text)
	}
	if math.Abs(label.X-(20+36-18)) > 1e-9 {
		t.Errorf("label x %g, want gutter position %g", label.X, 20.0+36-18)
	}
	if math.Abs(line.Chunks[1].X-(20+36)) > 1e-9 {
		t.Errorf("text x %g, want indent position %g", line.Chunks[1].X, 20.0+36)
	}
}

func TestTableLayout(t *testing.T) {
	table := &docx.Table{
		ColWidths: []float64{130, 130},
		Rows: []docx.Row{
			{Cells: []docx.Cell{
				{Width: 130, Paragraphs: []*docx.Paragraph{textPara("left")}},
				{Width: 130, Paragraphs: []*docx.Paragraph{textPara("right")}},
			}},
			{Cells: []docx.Cell{
				{Width: 130, Paragraphs: []*docx.Paragraph{textPara("second")}},
				{Width: 130, Paragraphs: []*docx.Paragraph{textPara("row")}},
			}},
		},
	}
	doc := testDoc(400, table)
	pages := testEngine(t, doc).Layout()

	page := pages[0]
	if len(page.Lines) != 4 {
		t.Fatalf("cell lines %d", len(page.Lines))
	}
	// Second column starts one column width to the right.
	var leftX, rightX float64
	for _, line := range page.Lines {
		switch string(line.Chunks[0].Text) {
		case "left":
			leftX = line.Chunks[0].X
		case "right":
			rightX = line.Chunks[0].X
		}
	}
	if leftX != 20 || rightX != 150 {
		t.Errorf("cell origins %g/%g", leftX, rightX)
	}
}

func TestTableRowsBreakBetweenRows(t *testing.T) {
	longCell := func() docx.Cell {
		words := make([]string, 30)
		for i := range words {
			words[i] = "cell"
		}
		return docx.Cell{Width: 260, Paragraphs: []*docx.Paragraph{textPara(words...)}}
	}
	table := &docx.Table{
		Rows: []docx.Row{
			{Cells: []docx.Cell{longCell()}},
			{Cells: []docx.Cell{longCell()}},
		},
	}
	doc := testDoc(100, table) // usable 60: one tall row per page
	pages := testEngine(t, doc).Layout()

	if len(pages) != 2 {
		t.Fatalf("rows must break between rows only: %d pages", len(pages))
	}
	if len(pages[0].Lines) == 0 || len(pages[1].Lines) == 0 {
		t.Error("each page should hold one row")
	}
}

func TestFitColumnWidths(t *testing.T) {
	// Declared widths wider than the column are scaled down proportionally
	// and the last column absorbs the rounding remainder.
	for _, cols := range []int{1, 2, 5} {
		declared := make([]float64, cols)
		for i := range declared {
			declared[i] = 271.3
		}
		widths := fitColumnWidths(declared, 260)
		var sum float64
		for _, w := range widths {
			sum += w
		}
		if math.Abs(sum-260) > 1e-9 {
			t.Errorf("%d columns: widths sum %g, want 260", cols, sum)
		}
	}
	scaled := fitColumnWidths([]float64{100, 300}, 260)
	if math.Abs(scaled[0]-65) > 1e-9 || math.Abs(scaled[1]-195) > 1e-9 {
		t.Errorf("proportional scaling: %v", scaled)
	}

	// No usable declared widths: equal split filling the column.
	for _, cols := range []int{1, 2, 5} {
		widths := fitColumnWidths(make([]float64, cols), 260)
		var sum float64
		for _, w := range widths {
			sum += w
			if math.Abs(w-260/float64(cols)) > 1e-9 {
				t.Errorf("%d columns: width %g, want equal split", cols, w)
			}
		}
		if math.Abs(sum-260) > 1e-9 {
			t.Errorf("%d columns: equal split sum %g, want 260", cols, sum)
		}
	}

	// Declared widths that fit are kept as declared.
	kept := fitColumnWidths([]float64{50, 60}, 260)
	if kept[0] != 50 || kept[1] != 60 {
		t.Errorf("declared widths altered: %v", kept)
	}

	if fitColumnWidths(nil, 260) != nil {
		t.Error("no columns must yield no widths")
	}
}

func TestInlineImagePlacement(t *testing.T) {
	para := &docx.Paragraph{
		Runs: []docx.Run{{Text: "pic"}},
		Images: []*docx.Image{{
			Data:          []byte{0xFF, 0xD8, 0xFF},
			PixelWidth:    200,
			PixelHeight:   100,
			DisplayWidth:  100,
			DisplayHeight: 50,
		}},
	}
	doc := testDoc(400, para)
	pages := testEngine(t, doc).Layout()

	page := pages[0]
	if len(page.Images) != 1 {
		t.Fatalf("images %d", len(page.Images))
	}
	img := page.Images[0]
	if img.Width != 100 || img.Height != 50 {
		t.Errorf("image box %gx%g", img.Width, img.Height)
	}
	// The image bottom sits on the line baseline.
	line := page.Lines[0]
	if math.Abs((img.Y+img.Height)-line.Baseline) > 1e-9 {
		t.Errorf("image bottom %g, baseline %g", img.Y+img.Height, line.Baseline)
	}
}

func TestUnderlineRule(t *testing.T) {
	u := true
	para := &docx.Paragraph{
		Runs: []docx.Run{{Text: "under", Props: docx.RunProps{Underline: &u}}},
	}
	doc := testDoc(200, para)
	pages := testEngine(t, doc).Layout()

	page := pages[0]
	if len(page.Rules) != 1 {
		t.Fatalf("rules %d", len(page.Rules))
	}
	rule := page.Rules[0]
	line := page.Lines[0]
	if rule.Y <= line.Baseline {
		t.Error("underline must sit below the baseline")
	}
	if math.Abs(rule.Width-line.Chunks[0].Width) > 1e-9 {
		t.Error("underline width must match the chunk")
	}
}
