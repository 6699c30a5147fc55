package output

import (
	"bytes"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ashtangalog/ashtanga/internal/model"
	"github.com/ashtangalog/ashtanga/internal/stats"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// RenderMarkdown converts user-written notes to sanitized HTML.
func RenderMarkdown(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	safe := sanitizer.SanitizeBytes(buf.Bytes())
	return template.HTML(safe), nil
}

type htmlRecord struct {
	*model.PracticeRecord
	Length       string
	NotesHTML    template.HTML
	Breakthrough template.HTML
}

type htmlPage struct {
	Profile    *model.UserProfile
	Avatar     template.URL
	Records    []htmlRecord
	Summary    stats.Summary
	TotalTime  string
	ExportedAt string
}

var journalTemplate = template.Must(template.New("journal").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Profile.Name}} · Practice Journal</title>
<style>
body{font-family:Georgia,serif;max-width:46rem;margin:2rem auto;padding:0 1rem;color:#1f2937}
header{display:flex;gap:1rem;align-items:center;border-bottom:1px solid #e5e7eb;padding-bottom:1rem}
header img{width:64px;height:64px;border-radius:50%;object-fit:cover}
.sig{color:#6b7280;font-style:italic}
.summary{color:#6b7280;margin:1rem 0}
article{border-bottom:1px solid #f3f4f6;padding:1rem 0}
article h2{font-size:1.05rem;margin:0}
.meta{color:#92400e;font-size:.9rem}
.breakthrough{background:#fef3c7;padding:.25rem .5rem;border-radius:4px}
.photos img{max-width:100%;margin-top:.5rem}
</style>
</head>
<body>
<header>
{{if .Avatar}}<img src="{{.Avatar}}" alt="">{{end}}
<div><h1>{{.Profile.Name}}</h1><div class="sig">{{.Profile.Signature}}</div></div>
</header>
<p class="summary">{{.Summary.Total.Sessions}} sessions over {{.Summary.Total.Days}} days · {{.TotalTime}} · longest streak {{.Summary.LongestStreak}} days · exported {{.ExportedAt}}</p>
{{range .Records}}<article>
<h2>{{.Date}} · {{.Type}}</h2>
<div class="meta">{{.Length}}</div>
{{.NotesHTML}}
{{if .Breakthrough}}<div class="breakthrough">★ {{.Breakthrough}}</div>{{end}}
{{if .Photos}}<div class="photos">{{range .Photos}}<img src="{{.}}" alt="">{{end}}</div>{{end}}
</article>
{{else}}<p>No practice records.</p>
{{end}}</body>
</html>
`))

// WriteHTML renders a standalone HTML journal of the given records.
func WriteHTML(w io.Writer, profile *model.UserProfile, recs []*model.PracticeRecord, now time.Time) error {
	page := htmlPage{
		Profile:    profile,
		Summary:    stats.Compute(recs, now.Format(model.DateLayout)),
		ExportedAt: now.Format("2006-01-02 15:04"),
	}
	if page.Profile == nil {
		page.Profile = model.NewProfile("", now)
	}
	if strings.HasPrefix(page.Profile.Avatar, "data:image/") {
		page.Avatar = template.URL(page.Profile.Avatar)
	}
	page.TotalTime = FormatMinutes(page.Summary.Total.TotalMinutes)

	for _, r := range recs {
		notes, err := RenderMarkdown(r.Notes)
		if err != nil {
			return err
		}
		hr := htmlRecord{PracticeRecord: r, Length: FormatSeconds(r.Duration), NotesHTML: notes}
		if r.HasBreakthrough() {
			hr.Breakthrough = template.HTML(sanitizer.Sanitize(r.Breakthrough))
		}
		page.Records = append(page.Records, hr)
	}
	return journalTemplate.Execute(w, page)
}
