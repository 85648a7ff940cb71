// Package script renders build scripts for the build farm from embedded
// per-dialect templates.
package script

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"text/template"

	oerrors "github.com/modrel/cli/internal/errors"
	"github.com/modrel/cli/internal/target"
)

//go:embed templates
var templateFS embed.FS

// Generator renders build scripts. It is safe for concurrent use.
type Generator struct {
	catalog  *target.Catalog
	hostRoot string
	fsys     fs.FS
}

// Option configures a Generator.
type Option func(*Generator)

// WithTemplates replaces the embedded templates. The filesystem must hold
// one directory per dialect.
func WithTemplates(fsys fs.FS) Option {
	return func(g *Generator) {
		g.fsys = fsys
	}
}

// NewGenerator creates a generator for scripts submitted from host.
func NewGenerator(catalog *target.Catalog, host target.Host, opts ...Option) *Generator {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		// The directory is embedded at compile time.
		panic(err)
	}
	g := &Generator{
		catalog:  catalog,
		hostRoot: catalog.Root(host.OS),
		fsys:     sub,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Render builds the complete script for scriptName on target t. The result
// is the dialect header, one variable definition per parameter, the shared
// utility snippet if the dialect has one, and the script body.
func (g *Generator) Render(t target.Target, scriptName string, p Params) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	dialect, err := g.catalog.Dialect(t.OS)
	if err != nil {
		return "", err
	}

	tr := newTranslator(g.hostRoot, g.catalog.Root(t.OS), dialect)
	p = tr.params(p)

	var buf bytes.Buffer

	header, err := g.execute(dialect, "header", p, true)
	if err != nil {
		return "", err
	}
	buf.WriteString(header)

	for _, d := range p.Defines() {
		buf.WriteString(defineLine(dialect, d))
		buf.WriteByte('\n')
	}

	util, err := g.execute(dialect, "util", p, false)
	if err != nil {
		return "", err
	}
	buf.WriteString(util)

	body, err := g.execute(dialect, scriptName, p, true)
	if err != nil {
		return "", err
	}
	buf.WriteString(body)

	out := buf.String()
	if dialect == target.DialectBatch {
		out = strings.ReplaceAll(out, "\n", "\r\n")
	}
	return out, nil
}

// execute renders one template of a dialect. Missing optional templates
// render as "".
func (g *Generator) execute(dialect target.Dialect, name string, p Params, required bool) (string, error) {
	file := path.Join(string(dialect), name+".tmpl")
	content, err := fs.ReadFile(g.fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return "", nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return "", oerrors.NewConfigurationError(
				fmt.Sprintf("no %s script template %q", dialect, name),
				map[string]string{"Template": file},
				"Every area script in the catalog needs a template for its dialect")
		}
		return "", fmt.Errorf("reading template %s: %w", file, err)
	}

	tmpl, err := template.New(file).
		Option("missingkey=error").
		Funcs(template.FuncMap{
			"source": sourceFunc(p.Source),
		}).
		Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("parsing template %s: %w", file, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("executing template %s: %w", file, err)
	}

	out := buf.String()
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out, nil
}

func sourceFunc(source map[string]string) func(string) (string, error) {
	return func(key string) (string, error) {
		v, ok := source[key]
		if !ok {
			return "", fmt.Errorf("unknown source parameter %q", key)
		}
		return v, nil
	}
}

// defineLine formats a variable definition in the dialect's syntax.
func defineLine(dialect target.Dialect, d Define) string {
	if dialect == target.DialectBatch {
		return "set " + d.Name + "=" + batchEscape(d.Value)
	}
	return "export " + d.Name + "=" + shellQuote(d.Value)
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

var batchReplacer = strings.NewReplacer(
	"^", "^^",
	"&", "^&",
	"|", "^|",
	"<", "^<",
	">", "^>",
	"%", "%%",
)

func batchEscape(s string) string {
	return batchReplacer.Replace(s)
}
