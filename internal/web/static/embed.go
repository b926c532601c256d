package static

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed assets/*
var assetsFS embed.FS

// jpegDataURIPrefix is the only data URI shape the templates will emit.
const jpegDataURIPrefix = "data:image/jpeg;base64,"

// funcs are the helpers available to the page templates.
var funcs = template.FuncMap{
	// imageSrc marks a processed-image data URI as safe for an img src.
	// Anything else is dropped so html/template never sees an unchecked URL.
	"imageSrc": func(src string) template.URL {
		if !strings.HasPrefix(src, jpegDataURIPrefix) {
			return ""
		}
		return template.URL(src) //nolint:gosec // prefix checked above
	},
}

// Pages parses the embedded page templates. Each page is executed by file name.
func Pages() (*template.Template, error) {
	return template.New("pages").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
}

// GetFileSystem returns an http.FileSystem for the embedded assets directory.
func GetFileSystem() http.FileSystem {
	fsys, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		panic(err)
	}
	return http.FS(fsys)
}
