package notify

import (
	"bytes"
	"sort"
	"strings"
	"text/template"
	"time"

	"notion-herald/internal/notion"
	"notion-herald/internal/util"
)

const (
	Untitled     = "(untitled)"
	NoDate       = "(date not set)"
	NoTime       = "(time not set)"
	NoTasks      = "No tasks for today."
	entryLayout  = "2006/01/02 15:04"
	headerLayout = "2006/01/02"
)

// Entry is one numbered line of a digest.
type Entry struct {
	Index int
	Title string
	When  string
}

type Digest struct {
	Day     string
	Entries []Entry
}

// DefaultDigest renders the header, then one "n. **title**\twhen" line per
// entry, or the no-tasks sentence.
const DefaultDigest = `**Tasks for {{.Day}} (in time order):**
{{range .Entries}}{{.Index}}. **{{.Title}}**	{{.When}}
{{else}}` + NoTasks + `{{end}}`

var digestTmpl = template.Must(template.New("digest").Parse(DefaultDigest))

// RenderDigest orders records by start instant, records without a start
// last with ties in input order, and renders the message for targetDate.
func RenderDigest(records []notion.Record, targetDate time.Time) (string, error) {
	sorted := SortRecords(records)
	d := Digest{Day: targetDate.In(util.JST).Format(headerLayout)}
	for i, r := range sorted {
		title := r.Title
		if title == "" {
			title = Untitled
		}
		d.Entries = append(d.Entries, Entry{Index: i + 1, Title: title, When: formatWhen(r.Start)})
	}
	var buf bytes.Buffer
	if err := digestTmpl.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SortRecords returns a stably sorted copy of records.
func SortRecords(records []notion.Record) []notion.Record {
	sorted := make([]notion.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, oki := startOf(sorted[i])
		tj, okj := startOf(sorted[j])
		switch {
		case oki && okj:
			return ti.Before(tj)
		case oki:
			return true
		default:
			return false
		}
	})
	return sorted
}

func startOf(r notion.Record) (time.Time, bool) {
	if r.Start == "" {
		return time.Time{}, false
	}
	t, err := util.Parse(r.Start)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func formatWhen(start string) string {
	if start == "" {
		return NoDate
	}
	if !strings.Contains(start, "T") {
		return NoTime
	}
	t, err := util.Parse(start)
	if err != nil {
		return NoTime
	}
	return t.In(util.JST).Format(entryLayout)
}
