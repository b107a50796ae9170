package types

import "testing"

func TestGateways_URLs(t *testing.T) {
	gw := Gateways{Primary: "https://arweave.net/", Secondary: "https://ar-io.net"}

	if got := gw.PrimaryURL("abc"); got != "https://arweave.net/abc" {
		t.Errorf("PrimaryURL = %q", got)
	}
	if got := gw.SecondaryURL("abc"); got != "https://ar-io.net/abc" {
		t.Errorf("SecondaryURL = %q", got)
	}
	urls := gw.URLs("abc")
	if len(urls) != 2 || urls[0] != "https://arweave.net/abc" {
		t.Errorf("URLs = %v", urls)
	}
	if got := gw.PrimaryURL(""); got != "" {
		t.Errorf("PrimaryURL(\"\") = %q, want empty", got)
	}
}

func TestSampleTags(t *testing.T) {
	tags := SampleTags("Song (15s sample)", "Artist", 15)

	want := map[string]string{
		TagAppName:         AppName,
		TagType:            UploadTypeSample,
		TagTitle:           "Song (15s sample)",
		TagArtist:          "Artist",
		TagDurationSeconds: "15",
	}
	for name, value := range want {
		got, ok := GetTag(tags, name)
		if !ok {
			t.Errorf("missing tag %s", name)
			continue
		}
		if got != value {
			t.Errorf("tag %s = %q, want %q", name, got, value)
		}
	}
}

func TestPublishResult_Orphaned(t *testing.T) {
	if (&PublishResult{Success: false, ContentID: "tx"}).Orphaned() != true {
		t.Error("failed result with content id should be orphaned")
	}
	if (&PublishResult{Success: true, ContentID: "tx"}).Orphaned() {
		t.Error("successful result is not orphaned")
	}
	if (&PublishResult{Success: false}).Orphaned() {
		t.Error("failed result without content id is not orphaned")
	}
}
