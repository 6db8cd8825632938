package process

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"exsyn/config"
	"exsyn/document"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	Title      string
	Kind       string
	Format     string
	SourceFile string
	SourceDir  string
	RefID      string
	Rules      []string
}

func buildValues(name config.TemplateFieldName, doc *document.Document, src, refID string, format config.OutputFmt, labels []string) Values {
	dir := filepath.ToSlash(filepath.Dir(src))
	if dir == "." {
		dir = ""
	}
	return Values{
		Context:    string(name),
		Title:      doc.Title(),
		Kind:       doc.Kind.String(),
		Format:     format.String(),
		SourceFile: strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
		SourceDir:  dir,
		RefID:      refID,
		Rules:      labels,
	}
}

func expandTemplate(name config.TemplateFieldName, field string, values Values) (string, error) {
	tmpl, err := template.New(string(name)).Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
