package manifest

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	f := Parse(sample)
	want := Fields{
		UniqueID:    "someone.greatmod",
		Name:        "Great Mod",
		Description: "Does great things.",
		UpdateKeys:  []string{"Nexus:2400"},
	}
	if !reflect.DeepEqual(f, want) {
		t.Fatalf("Parse = %+v, want %+v", f, want)
	}
}

func TestParseIgnoresCommentedFields(t *testing.T) {
	text := `{
  // "Name": "commented out",
  "Name": "Real Name",
  /* "Description": "also commented", */
  "Description": "real",
  "uniqueID": "case.insensitive"
}`
	f := Parse(text)
	if f.Name != "Real Name" {
		t.Errorf("Name = %q, want Real Name", f.Name)
	}
	if f.Description != "real" {
		t.Errorf("Description = %q, want real", f.Description)
	}
	if f.UniqueID != "case.insensitive" {
		t.Errorf("UniqueID = %q, want case.insensitive", f.UniqueID)
	}
}

func TestParseKeepsURLsInStrings(t *testing.T) {
	text := `{"UniqueID": "a.b", "Description": "see https://example.com/mods"}`
	f := Parse(text)
	if f.Description != "see https://example.com/mods" {
		t.Fatalf("Description = %q", f.Description)
	}
}

func TestParseStripsBOM(t *testing.T) {
	text := "\uFEFF" + `{"UniqueID": "a.b"}`
	if f := Parse(text); f.UniqueID != "a.b" {
		t.Fatalf("UniqueID = %q, want a.b", f.UniqueID)
	}
}

func TestNexusID(t *testing.T) {
	cases := []struct {
		keys []string
		want string
	}{
		{[]string{"Nexus:2400"}, "2400"},
		{[]string{"ModDrop:7", " Nexus:13 "}, "13"},
		{[]string{"ModDrop:7"}, ""},
		{nil, ""},
	}
	for _, c := range cases {
		if got := NexusID(c.keys); got != c.want {
			t.Errorf("NexusID(%v) = %q, want %q", c.keys, got, c.want)
		}
	}
}

func TestStripCommentsUnterminatedBlock(t *testing.T) {
	got := StripComments(`{"a": 1} /* trailing`)
	if got != `{"a": 1} ` {
		t.Fatalf("got %q", got)
	}
}
