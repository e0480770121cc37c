package snapshotstore

import (
	"strings"
	"testing"

	"github.com/nsolari/procwatch/model"
)

func TestExportCSVEscapesCommasInCommand(t *testing.T) {
	ns := NamedSnapshot{Name: "test", Processes: []model.ProcessRecord{
		{PID: 1, Name: "p", User: "u", CPUPercent: 1.5, RSSKB: 100, Command: "foo, bar, baz"},
	}}
	out, err := Export(ns, FormatCSV)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if strings.Contains(out, "foo, bar, baz") {
		t.Error("expected commas in command to be replaced with semicolons")
	}
	if !strings.Contains(out, "foo; bar; baz") {
		t.Errorf("expected semicolon-joined command, got: %s", out)
	}
}

func TestExportHTMLEscapesProcessName(t *testing.T) {
	ns := NamedSnapshot{Name: "test", Processes: []model.ProcessRecord{
		{PID: 1, Name: "<script>", User: "u"},
	}}
	out, err := Export(ns, FormatHTML)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if strings.Contains(out, "<script>") {
		t.Error("raw <script> tag leaked into HTML export unescaped")
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Errorf("expected escaped process name, got: %s", out)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	_, err := Export(NamedSnapshot{}, Format("yaml"))
	if err == nil {
		t.Error("expected error for unsupported export format")
	}
}

func TestStateDifferDiff(t *testing.T) {
	old := []model.ProcessRecord{{PID: 1, Name: "a", CPUPercent: 10}}
	new := []model.ProcessRecord{{PID: 1, Name: "a", CPUPercent: 25}}

	d := NewStateDiffer()
	diffs, summary := d.Diff(old, new)

	if len(diffs) != 1 || diffs[0].Kind != DiffModified {
		t.Fatalf("diffs = %+v, want one Modified entry", diffs)
	}
	if summary.Modified != 1 || summary.SignificantCPUChanges != 1 {
		t.Errorf("summary = %+v, want Modified=1 SignificantCPUChanges=1", summary)
	}
}
