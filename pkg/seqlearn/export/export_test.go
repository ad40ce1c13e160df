package export

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/cognicore/seqlearn/pkg/seqlearn/compare"
	"github.com/cognicore/seqlearn/pkg/seqlearn/internalerr"
	"github.com/cognicore/seqlearn/pkg/seqlearn/store"
)

func TestWritePosteriors(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")

	path, err := WritePosteriors(dir, "p01", []string{"tp", "baseline"}, [][]float64{
		{0.5, 0.75},
		{0.5, 0.25},
	})
	if err != nil {
		t.Fatalf("WritePosteriors: %v", err)
	}
	if filepath.Base(path) != "p01_posteriors.txt" {
		t.Errorf("path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "tp;baseline\n0.5;0.5\n0.75;0.25\n"
	if string(data) != want {
		t.Errorf("file content:\n%q\nwant:\n%q", data, want)
	}
}

func TestWritePosteriorsShapeMismatch(t *testing.T) {
	dir := t.TempDir()
	if _, err := WritePosteriors(dir, "x", []string{"tp"}, [][]float64{{1}, {1}}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := WritePosteriors(dir, "x", []string{"a", "b"}, [][]float64{{1}, {1, 2}}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for ragged series, got %v", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteRowsReportsWriteError(t *testing.T) {
	// enough rows to overflow the bufio buffer before Flush
	series := make([]float64, 5000)
	if err := writeRows(failingWriter{}, []string{"tp"}, [][]float64{series}, len(series)); err == nil {
		t.Error("expected write error")
	}
	if err := writeRows(failingWriter{}, []string{"tp"}, [][]float64{{1}}, 1); err == nil {
		t.Error("expected flush error")
	}
}

func TestWritePosteriorsOverwrites(t *testing.T) {
	dir := t.TempDir()
	if _, err := WritePosteriors(dir, "p", []string{"tp"}, [][]float64{{0.1, 0.2, 0.3}}); err != nil {
		t.Fatal(err)
	}
	path, err := WritePosteriors(dir, "p", []string{"tp"}, [][]float64{{1}})
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "tp\n1\n" {
		t.Errorf("file content = %q", data)
	}
}

func TestWriteTripletPosteriors(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteTripletPosteriors(dir, "general", []string{"tp"}, []compare.TripletPosteriors{
		{Type: "type_a", Posteriors: [][]float64{{1, 1}}},
		{Type: "type_b", Posteriors: [][]float64{{1}}},
	})
	if err != nil {
		t.Fatalf("WriteTripletPosteriors: %v", err)
	}
	if len(paths) != 2 || filepath.Base(paths[1]) != "general_type_b_posteriors.txt" {
		t.Errorf("paths = %v", paths)
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	err := WriteReport(&buf, Report{
		Run: store.Run{ID: "01RUN", DataDir: "data", Models: []string{"tp", "baseline"}, ChunkLength: 3, Participants: 2},
		Scores: []store.Score{
			{Participant: "p1", Model: "tp", BIC: 10, FinalPosterior: 0.8},
			{Participant: "p2", Model: "tp", BIC: 20, FinalPosterior: 0.6},
			{Participant: "p1", Model: "baseline", BIC: 30, FinalPosterior: 0.2},
			{Participant: "p2", Model: "baseline", BIC: 40, FinalPosterior: 0.4},
		},
	})
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		t.Errorf("missing doctype: %.40s", out)
	}
	for _, want := range []string{"01RUN", "<td>0.7000</td>", "<td>15.0000</td>", "<td>p2</td>"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}

	// output must parse back and contain two tables
	doc, err := html.Parse(strings.NewReader(out))
	if err != nil {
		t.Fatalf("html.Parse: %v", err)
	}
	tables := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			tables++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if tables != 2 {
		t.Errorf("expected 2 tables, got %d", tables)
	}
}

func TestWriteReportEscapes(t *testing.T) {
	var buf bytes.Buffer
	err := WriteReport(&buf, Report{
		Run:    store.Run{ID: "x"},
		Scores: []store.Score{{Participant: "<script>", Model: "tp"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "<script>") {
		t.Error("participant name not escaped")
	}
}
