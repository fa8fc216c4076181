package fs

import (
	"html/template"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"
)

var listingTemplate = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>Index of {{.Dir}}</title></head>
<body>
<h1>Index of {{.Dir}}</h1>
<hr>
<pre>
{{if .Parent}}<a href="{{.Parent}}">../</a>
{{end}}{{range .Entries}}<a href="{{.Href}}">{{.Name}}</a>	{{.Size}}	{{.ModTime}}
{{end}}</pre>
<hr>
</body>
</html>
`))

type listingEntry struct {
	Name, Href, Size, ModTime string
}

// RenderListing writes the HTML directory listing.
func RenderListing(w io.Writer, urlPath string, entries []Info) error {
	dir := urlPath
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}

	args := struct {
		Dir     string
		Parent  string
		Entries []listingEntry
	}{Dir: dir}

	if dir != "/" {
		args.Parent = path.Dir(strings.TrimSuffix(dir, "/"))
		if !strings.HasSuffix(args.Parent, "/") {
			args.Parent += "/"
		}
	}

	for _, entry := range entries {
		name, size := entry.Name, "-"
		if entry.Dir {
			name += "/"
		} else {
			size = formatSize(entry.Size)
		}

		args.Entries = append(args.Entries, listingEntry{
			Name:    name,
			Href:    dir + url.PathEscape(entry.Name) + strings.TrimPrefix(name, entry.Name),
			Size:    size,
			ModTime: entry.ModTime.UTC().Format("02-Jan-2006 15:04"),
		})
	}

	return listingTemplate.Execute(w, args)
}

func formatSize(size int64) string {
	const units = "KMGT"

	if size < 1024 {
		return strconv.FormatInt(size, 10)
	}

	value, unit := float64(size), -1
	for value >= 1024 && unit < len(units)-1 {
		value /= 1024
		unit++
	}

	return strconv.FormatInt(int64(value+0.5), 10) + string(units[unit])
}
