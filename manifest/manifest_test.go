package manifest

import (
	"strings"
	"testing"
)

const sample = `{
  // This mod does great things.
  "Name": "Great Mod",
  "Author": "someone",
  "Version": "1.2.0",
  "Description": "Does great things.",
  "UniqueID": "someone.greatmod",
  "UpdateKeys": [ "Nexus:2400" ]
}
`

func TestReplaceField(t *testing.T) {
	got := ReplaceField(sample, "Name", "超棒模组")
	if !strings.Contains(got, `"Name": "超棒模组",`) {
		t.Fatalf("replaced name missing:\n%s", got)
	}
	if !strings.Contains(got, "// This mod does great things.") {
		t.Fatal("comment not preserved")
	}
	if !strings.Contains(got, `"Description": "Does great things.",`) {
		t.Fatal("unrelated field modified")
	}
}

func TestReplaceFieldRoundTrip(t *testing.T) {
	once := ReplaceField(sample, "Name", "Translated")
	back := ReplaceField(once, "Name", "Great Mod")
	if back != sample {
		t.Fatalf("round trip mismatch:\n%s", back)
	}
}

func TestReplaceFieldIdempotent(t *testing.T) {
	once := ReplaceField(sample, "Description", "v2")
	twice := ReplaceField(once, "Description", "v2")
	if once != twice {
		t.Fatal("second replace changed the document")
	}
}

func TestReplaceFieldNonInterference(t *testing.T) {
	got := ReplaceField(sample, "Description", "new text")
	// Everything outside the Description value span must be byte-identical.
	wantPrefix := sample[:strings.Index(sample, "Does great things.")]
	wantSuffix := sample[strings.Index(sample, "Does great things.")+len("Does great things."):]
	if !strings.HasPrefix(got, wantPrefix) {
		t.Fatal("bytes before the value span changed")
	}
	if !strings.HasSuffix(got, wantSuffix) {
		t.Fatal("bytes after the value span changed")
	}
}

func TestReplaceFieldAbsent(t *testing.T) {
	text := `{"UniqueID": "a.b"}`
	if got := ReplaceField(text, "Name", "x"); got != text {
		t.Fatalf("absent field mutated document: %s", got)
	}
}

func TestReplaceFieldFirstOccurrenceOnly(t *testing.T) {
	text := `{"Name": "one", "Nested": {"Name": "two"}}`
	got := ReplaceField(text, "Name", "X")
	if !strings.Contains(got, `"Name": "X"`) || !strings.Contains(got, `"Name": "two"`) {
		t.Fatalf("expected only first occurrence replaced: %s", got)
	}
}

func TestReplaceFieldEscaping(t *testing.T) {
	got := ReplaceField(sample, "Name", `say "hi" \ now`+"\n")
	if !strings.Contains(got, `"Name": "say \"hi\" \\ now\n",`) {
		t.Fatalf("escaping wrong:\n%s", got)
	}
}

func TestHasField(t *testing.T) {
	if !HasField(sample, "Name") {
		t.Fatal("Name should be present")
	}
	if HasField(sample, "Missing") {
		t.Fatal("Missing should be absent")
	}
}

func TestUpsertListKeyReplaceExisting(t *testing.T) {
	got := UpsertListKey(sample, "UpdateKeys", "Nexus", "9999")
	if !strings.Contains(got, `"UpdateKeys": [ "Nexus:9999" ]`) {
		t.Fatalf("token not replaced in place:\n%s", got)
	}
	if strings.Count(got, "Nexus:") != 1 {
		t.Fatal("list length changed")
	}
}

func TestUpsertListKeyAppend(t *testing.T) {
	text := `{"UniqueID": "a.b", "UpdateKeys": [ "ModDrop:7" ]}`
	got := UpsertListKey(text, "UpdateKeys", "Nexus", "42")
	if !strings.Contains(got, `[ "ModDrop:7", "Nexus:42" ]`) {
		t.Fatalf("token not appended:\n%s", got)
	}
}

func TestUpsertListKeyEmptyList(t *testing.T) {
	text := `{"UniqueID": "a.b", "UpdateKeys": []}`
	got := UpsertListKey(text, "UpdateKeys", "Nexus", "42")
	if !strings.Contains(got, `"UpdateKeys": [ "Nexus:42"]`) {
		t.Fatalf("leading-space append wrong:\n%s", got)
	}
}

func TestUpsertListKeyInsertAfterAnchorWithComma(t *testing.T) {
	text := "{\n  \"UniqueID\": \"a.b\",\n  \"Version\": \"1.0\"\n}"
	got := UpsertListKey(text, "UpdateKeys", "Nexus", "42")
	if !strings.Contains(got, `"UpdateKeys": [ "Nexus:42" ],`) {
		t.Fatalf("inserted field missing trailing comma:\n%s", got)
	}
	if !strings.Contains(got, `"Version": "1.0"`) {
		t.Fatalf("following field damaged:\n%s", got)
	}
}

func TestUpsertListKeyInsertAfterTrailingAnchor(t *testing.T) {
	text := "{\n  \"Name\": \"m\",\n  \"UniqueID\": \"a.b\"\n}"
	got := UpsertListKey(text, "UpdateKeys", "Nexus", "42")
	if !strings.Contains(got, "\"UniqueID\": \"a.b\",\n    \"UpdateKeys\": [ \"Nexus:42\" ]\n}") {
		t.Fatalf("leading-comma insert wrong:\n%s", got)
	}
}

func TestUpsertListKeyNoAnchor(t *testing.T) {
	text := `{"Name": "m"}`
	if got := UpsertListKey(text, "UpdateKeys", "Nexus", "42"); got != text {
		t.Fatalf("missing anchor should be a no-op, got:\n%s", got)
	}
}

func TestUpsertListKeyIdempotent(t *testing.T) {
	text := `{"UniqueID": "a.b"}`
	once := UpsertListKey(text, "UpdateKeys", "Nexus", "42")
	twice := UpsertListKey(once, "UpdateKeys", "Nexus", "42")
	if once != twice {
		t.Fatalf("upsert not idempotent:\n%s\nvs\n%s", once, twice)
	}
}

func TestDetectScript(t *testing.T) {
	cases := []struct {
		in         string
		han, simpl bool
	}{
		{"Great Mod", false, false},
		{"這是繁體", true, false},
		{"这是简体", true, true},
		{"Mixed 简 text", true, true},
	}
	for _, c := range cases {
		sc := DetectScript(c.in)
		if sc.Han != c.han || sc.Simplified != c.simpl {
			t.Errorf("DetectScript(%q) = %+v, want han=%v simplified=%v", c.in, sc, c.han, c.simpl)
		}
	}
}
