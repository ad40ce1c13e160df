package export

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/cognicore/seqlearn/pkg/seqlearn/store"
)

// Report is the content of the HTML summary.
type Report struct {
	Run    store.Run
	Scores []store.Score
}

// WriteReport renders r as a standalone HTML page.
func WriteReport(w io.Writer, r Report) error {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	title := "Sequence learning run " + r.Run.ID
	page := elem(atom.Html,
		elem(atom.Head,
			withAttr(elem(atom.Meta), "charset", "utf-8"),
			elem(atom.Title, text(title)),
		),
		elem(atom.Body,
			elem(atom.H1, text(title)),
			elem(atom.P, text(summaryLine(r.Run))),
			elem(atom.H2, text("Average final posterior")),
			averageTable(r),
			elem(atom.H2, text("Per participant")),
			scoreTable(r.Scores),
		),
	)
	doc.AppendChild(page)

	return html.Render(w, doc)
}

func summaryLine(run store.Run) string {
	started := ""
	if !run.StartedAt.IsZero() {
		started = ", started " + run.StartedAt.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("%d participants from %s, chunk length %d%s",
		run.Participants, run.DataDir, run.ChunkLength, started)
}

func averageTable(r Report) *html.Node {
	sums := make(map[string]float64)
	bics := make(map[string]float64)
	counts := make(map[string]int)
	for _, s := range r.Scores {
		sums[s.Model] += s.FinalPosterior
		bics[s.Model] += s.BIC
		counts[s.Model]++
	}

	models := r.Run.Models
	if len(models) == 0 {
		for m := range counts {
			models = append(models, m)
		}
		sort.Strings(models)
	}

	table := elem(atom.Table, headerRow("model", "mean final posterior", "mean BIC"))
	for _, m := range models {
		n := counts[m]
		if n == 0 {
			continue
		}
		table.AppendChild(row(m, formatFloat(sums[m]/float64(n)), formatFloat(bics[m]/float64(n))))
	}
	return table
}

func scoreTable(scores []store.Score) *html.Node {
	table := elem(atom.Table, headerRow(
		"participant", "model", "parameters", "steps", "log-likelihood", "BIC", "mean cost (bits)", "final posterior",
	))
	for _, s := range scores {
		table.AppendChild(row(
			s.Participant,
			s.Model,
			strconv.Itoa(s.Parameters),
			strconv.Itoa(s.Steps),
			formatFloat(s.LogLikelihood),
			formatFloat(s.BIC),
			formatFloat(s.MeanCost),
			formatFloat(s.FinalPosterior),
		))
	}
	return table
}

func headerRow(cells ...string) *html.Node {
	tr := elem(atom.Tr)
	for _, c := range cells {
		tr.AppendChild(elem(atom.Th, text(c)))
	}
	return tr
}

func row(cells ...string) *html.Node {
	tr := elem(atom.Tr)
	for _, c := range cells {
		tr.AppendChild(elem(atom.Td, text(c)))
	}
	return tr
}

func elem(a atom.Atom, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func withAttr(n *html.Node, key, val string) *html.Node {
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
