package notify

import (
	"strings"
	"testing"
	"time"

	"notion-herald/internal/notion"
	"notion-herald/internal/util"
)

var day = time.Date(2025, 9, 8, 7, 0, 0, 0, util.JST)

func TestRenderDigest_Empty(t *testing.T) {
	msg, err := RenderDigest(nil, day)
	if err != nil {
		t.Fatalf("RenderDigest: %v", err)
	}
	want := "**Tasks for 2025/09/08 (in time order):**\n" + NoTasks
	if msg != want {
		t.Fatalf("unexpected message:\n got: %q\nwant: %q", msg, want)
	}
}

func TestRenderDigest_OrdersByStart(t *testing.T) {
	records := []notion.Record{
		{ID: "1", Title: "later", Start: "2025-09-08T09:00"},
		{ID: "2", Title: "earlier", Start: "2025-09-08T08:00"},
	}
	msg, err := RenderDigest(records, day)
	if err != nil {
		t.Fatalf("RenderDigest: %v", err)
	}
	want := "**Tasks for 2025/09/08 (in time order):**\n" +
		"1. **earlier**\t2025/09/08 08:00\n" +
		"2. **later**\t2025/09/08 09:00\n"
	if msg != want {
		t.Fatalf("unexpected message:\n got: %q\nwant: %q", msg, want)
	}
}

func TestRenderDigest_PlaceholdersAndZones(t *testing.T) {
	records := []notion.Record{
		{ID: "a", Title: "", Start: "2025-09-08"},
		{ID: "b", Title: "utc", Start: "2025-09-08T01:30:00Z"},
	}
	msg, err := RenderDigest(records, day)
	if err != nil {
		t.Fatalf("RenderDigest: %v", err)
	}
	// Date-only starts sort by their JST midnight, before 10:30 JST.
	if !strings.Contains(msg, "1. **"+Untitled+"**\t"+NoTime+"\n") {
		t.Fatalf("expected untitled date-only line first: %q", msg)
	}
	if !strings.Contains(msg, "2. **utc**\t2025/09/08 10:30\n") {
		t.Fatalf("expected UTC start rendered in JST: %q", msg)
	}
}

func TestRenderDigest_UTCMidnightHasTime(t *testing.T) {
	records := []notion.Record{
		{ID: "a", Title: "standup", Start: "2025-09-08T00:00:00.000Z"},
		{ID: "b", Title: "all day", Start: "2025-09-08"},
	}
	msg, err := RenderDigest(records, day)
	if err != nil {
		t.Fatalf("RenderDigest: %v", err)
	}
	if !strings.Contains(msg, "1. **all day**\t"+NoTime+"\n") {
		t.Fatalf("expected date-only record first: %q", msg)
	}
	if !strings.Contains(msg, "2. **standup**\t2025/09/08 09:00\n") {
		t.Fatalf("expected 09:00 JST for a stored UTC midnight: %q", msg)
	}
}

func TestSortRecords_MissingStartLastAndStable(t *testing.T) {
	records := []notion.Record{
		{ID: "n1"},
		{ID: "t2", Start: "2025-09-08T12:00:00+09:00"},
		{ID: "n2", Start: "garbage"},
		{ID: "t1", Start: "2025-09-08T07:00:00+09:00"},
		{ID: "n3"},
	}
	got := SortRecords(records)
	want := []string{"t1", "t2", "n1", "n2", "n3"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("order = %v, want %v", ids(got), want)
		}
	}
	if records[0].ID != "n1" {
		t.Fatal("SortRecords must not reorder its input")
	}
}

func TestRenderDigest_NoDatePlaceholder(t *testing.T) {
	msg, _ := RenderDigest([]notion.Record{{ID: "x", Title: "floating"}}, day)
	if !strings.Contains(msg, "1. **floating**\t"+NoDate) {
		t.Fatalf("expected no-date placeholder: %q", msg)
	}
}

func ids(rs []notion.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}
