package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Jharmony/StreamVault/types"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{"json lowercase", "json", FormatJSON, false},
		{"json uppercase", "JSON", FormatJSON, false},
		{"table", "table", FormatTable, false},
		{"yaml", "yaml", FormatYAML, false},
		{"empty", "", "", false},
		{"invalid", "xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFormat_InvalidErrorMessage(t *testing.T) {
	_, err := ParseFormat("csv")
	if err == nil {
		t.Fatal("expected error for invalid format")
	}
	if !strings.Contains(err.Error(), "json, table, or yaml") {
		t.Errorf("error message should mention valid formats, got: %v", err)
	}
}

func samplePublishResult() *types.PublishResult {
	confirmed := true
	return &types.PublishResult{
		Success:     true,
		Tier:        types.TierSample,
		ContentID:   "tx-123",
		PermawebURL: "https://arweave.net/tx-123",
		Confirmed:   &confirmed,
		Persistence: &types.PersistenceReport{Remote: true, Local: true},
	}
}

func TestRenderer_JSON_PublishResult(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatJSON, false, &buf)

	if err := r.Render(samplePublishResult()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	for _, want := range []string{`"contentId": "tx-123"`, `"confirmed": true`, `"remote": true`} {
		if !strings.Contains(got, want) {
			t.Errorf("JSON output missing %s: %s", want, got)
		}
	}
	if strings.Contains(got, `"error"`) {
		t.Errorf("empty error should be omitted: %s", got)
	}
}

func TestRenderer_YAML(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatYAML, false, &buf)

	if err := r.Render(map[string]string{"contentId": "tx-123"}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got := buf.String(); !strings.Contains(got, "contentId: tx-123") {
		t.Errorf("YAML output missing expected content: %s", got)
	}
}

func TestRenderer_Table_Struct(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, false, &buf)

	if err := r.Render(samplePublishResult()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "contentId:") || !strings.Contains(got, "tx-123") {
		t.Errorf("Table output missing content id: %s", got)
	}
	// *bool is dereferenced, nested structs are summarized
	if !strings.Contains(got, "confirmed:") || !strings.Contains(got, "true") {
		t.Errorf("Table output missing confirmed: %s", got)
	}
	if !strings.Contains(got, "{...}") {
		t.Errorf("Table output should summarize persistence: %s", got)
	}
}

func TestRenderer_Table_Slice(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, false, &buf)

	data := []types.ProfileSampleRecord{
		{ContentID: "tx-1", Title: "first"},
		{ContentID: "tx-2", Title: "second"},
	}
	if err := r.Render(data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "contentId") || !strings.Contains(got, "title") {
		t.Errorf("Table output missing headers: %s", got)
	}
	if !strings.Contains(got, "first") || !strings.Contains(got, "second") {
		t.Errorf("Table output missing data: %s", got)
	}
}

func TestRenderer_Table_EmptySlice(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, false, &buf)

	if err := r.Render([]types.ProfileSampleRecord{}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if got := buf.String(); !strings.Contains(got, "(no results)") {
		t.Errorf("Empty slice should show '(no results)', got: %s", got)
	}
}

func TestRenderer_Table_MapKeysSorted(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, false, &buf)

	if err := r.Render(map[string]int64{"zeta": 1, "alpha": 2, "mid": 3}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	a, m, z := strings.Index(got, "alpha"), strings.Index(got, "mid"), strings.Index(got, "zeta")
	if a < 0 || !(a < m && m < z) {
		t.Errorf("map keys not sorted: %s", got)
	}
}

func TestRenderer_Table_Time(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, false, &buf)

	type row struct {
		At    time.Time `json:"at"`
		Never time.Time `json:"never"`
	}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	if err := r.Render(row{At: at}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "2026-03-01T11:00:00Z") {
		t.Errorf("time not rendered as UTC RFC3339: %s", got)
	}
}

func TestRenderer_ColorDoesNotAffectJSON(t *testing.T) {
	var bufColor, bufNoColor bytes.Buffer

	rColor := NewRendererWithWriter(FormatJSON, true, &bufColor)
	rNoColor := NewRendererWithWriter(FormatJSON, false, &bufNoColor)

	data := samplePublishResult()
	if err := rColor.Render(data); err != nil {
		t.Fatalf("Render with color failed: %v", err)
	}
	if err := rNoColor.Render(data); err != nil {
		t.Fatalf("Render without color failed: %v", err)
	}

	if bufColor.String() != bufNoColor.String() {
		t.Errorf("color should not affect JSON output")
	}
}

func TestRenderer_Table_ResultStatus(t *testing.T) {
	tests := []struct {
		name string
		res  *types.PublishResult
		want string
	}{
		{"succeeded", samplePublishResult(), "succeeded"},
		{"rejected", &types.PublishResult{Error: "Connect a wallet.", Rejected: true}, "rejected"},
		{"orphaned", &types.PublishResult{ContentID: "tx-9", Error: "mint failed"}, "orphaned"},
		{"failed", &types.PublishResult{Error: "Upload failed: 500"}, "failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewRendererWithWriter(FormatTable, false, &buf).Render(tt.res); err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			first, _, _ := strings.Cut(buf.String(), "\n")
			if !strings.HasPrefix(first, "status:") || !strings.Contains(first, tt.want) {
				t.Errorf("first line = %q, want status %s", first, tt.want)
			}
		})
	}
}

func TestRenderer_Table_SkipsHiddenFields(t *testing.T) {
	var buf bytes.Buffer
	type row struct {
		Shown  string `json:"shown"`
		Hidden string `json:"-"`
		Plain  string
	}
	if err := NewRendererWithWriter(FormatTable, false, &buf).Render([]row{{Shown: "a", Hidden: "b", Plain: "c"}}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	got := buf.String()
	if strings.Contains(got, "Hidden") || strings.Contains(got, " b") {
		t.Errorf("hidden field rendered: %s", got)
	}
	if !strings.Contains(got, "plain") || !strings.Contains(got, "c") {
		t.Errorf("untagged field missing: %s", got)
	}
}

func TestRenderTUI_Unsupported(t *testing.T) {
	r := NewRendererWithWriter(FormatJSON, false, &bytes.Buffer{})
	if err := r.RenderTUI("samples", nil); err == nil {
		t.Error("expected error for unsupported TUI view")
	}
}
