package templatecollection

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
)

// Collection renders page templates by name. A page "page_x" is parsed from
// page_x.gohtml together with layout.gohtml and every shared_*.gohtml.
type Collection interface {
	ExecuteTemplate(wr io.Writer, name string, data interface{}) error
}

var ErrTemplateNotFound = fmt.Errorf("templatecollection.ErrTemplateNotFound: template not found")

func parsePage(fileSystem fs.FS, funcs template.FuncMap, name string) (*template.Template, error) {
	var fileNames []string

	for _, pattern := range []string{name + ".gohtml", "layout.gohtml", "shared_*.gohtml"} {
		names, err := fs.Glob(fileSystem, pattern)
		if err != nil {
			return nil, fmt.Errorf("templatecollection.parsePage: could not get names for pattern %q: %w", pattern, err)
		}

		fileNames = append(fileNames, names...)
	}

	if len(fileNames) == 0 || fileNames[0] != name+".gohtml" {
		return nil, fmt.Errorf("templatecollection.parsePage: %q: %w", name, ErrTemplateNotFound)
	}

	tpl, err := template.New(name).Funcs(funcs).ParseFS(fileSystem, fileNames...)
	if err != nil {
		return nil, fmt.Errorf("templatecollection.parsePage: could not construct template %q: %w", name, err)
	}

	return tpl, nil
}

// Cached parses every page once, up front.
type Cached struct {
	m map[string]*template.Template
}

func NewCached(fileSystem fs.FS, funcs template.FuncMap) (*Cached, error) {
	pageFiles, err := fs.Glob(fileSystem, "page_*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("templatecollection.NewCached: could not get page template names: %w", err)
	}

	c := Cached{m: make(map[string]*template.Template)}

	for _, pageFile := range pageFiles {
		name := strings.TrimSuffix(path.Base(pageFile), ".gohtml")

		tpl, err := parsePage(fileSystem, funcs, name)
		if err != nil {
			return nil, fmt.Errorf("templatecollection.NewCached: %w", err)
		}

		c.m[name] = tpl
	}

	return &c, nil
}

func (c *Cached) ExecuteTemplate(wr io.Writer, name string, data interface{}) error {
	tpl, ok := c.m[name]
	if !ok {
		return fmt.Errorf("templatecollection.Cached.ExecuteTemplate: %q: %w", name, ErrTemplateNotFound)
	}

	if err := tpl.ExecuteTemplate(wr, name, data); err != nil {
		return fmt.Errorf("templatecollection.Cached.ExecuteTemplate: %w", err)
	}

	return nil
}

// Live parses on every call, for editing templates on disk.
type Live struct {
	fs    fs.FS
	funcs template.FuncMap
}

func NewLive(fileSystem fs.FS, funcs template.FuncMap) *Live {
	return &Live{fs: fileSystem, funcs: funcs}
}

func (l *Live) ExecuteTemplate(wr io.Writer, name string, data interface{}) error {
	tpl, err := parsePage(l.fs, l.funcs, name)
	if err != nil {
		return fmt.Errorf("templatecollection.Live.ExecuteTemplate: %w", err)
	}

	if err := tpl.ExecuteTemplate(wr, name, data); err != nil {
		return fmt.Errorf("templatecollection.Live.ExecuteTemplate: %w", err)
	}

	return nil
}
