package script

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/modrel/cli/internal/errors"
	"github.com/modrel/cli/internal/target"
)

const testCatalog = `
oses:
  Linux:
    dialect: shell
    root: /shared
    servers:
      rhel8-x86_64: [R3.14.12.7, R7.0.7]
  Windows:
    dialect: batch
    root: "W:"
    defaultServer: windows6_3-AMD64
    servers:
      windows6_3-AMD64: [R3.14.12.7]
areas:
  support:
    toolchain: true
    scripts: {Linux: support, Windows: support}
  matlab:
    scripts: {Windows: matlab}
`

var (
	linuxHost   = target.Host{OS: target.OSLinux, Distro: "rhel", Major: "8", Arch: "x86_64"}
	linuxTarget = target.Target{OS: target.OSLinux, Server: "rhel8-x86_64", Toolchain: "R7.0.7"}
	winTarget   = target.Target{OS: target.OSWindows, Server: "windows6_3-AMD64", Toolchain: "R3.14.12.7"}
)

func testGenerator(t *testing.T, opts ...Option) *Generator {
	t.Helper()
	c, err := target.Parse([]byte(testCatalog))
	require.NoError(t, err)
	return NewGenerator(c, linuxHost, opts...)
}

func testParams() Params {
	return Params{
		User:      "abc12345",
		Email:     "first.last@example.com",
		Toolchain: "R7.0.7",
		BuildDir:  "/shared/prod/R7.0.7/support",
		Module:    "motion/pmac",
		Version:   "2-5",
		Area:      "support",
		BuildName: "build_20240102-030405_abc12345_support_motion_pmac_2-5.rhel8-x86_64",
		Server:    "rhel8-x86_64",
		Kind:      KindBuild,
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Source: map[string]string{
			"git_repo": "ssh://git.example.com/support/motion/pmac",
			"git_ref":  "2-5",
		},
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr string
	}{
		{name: "complete", mutate: func(*Params) {}},
		{name: "missing user", mutate: func(p *Params) { p.User = "" }, wantErr: "user"},
		{
			name:    "reports every missing value",
			mutate:  func(p *Params) { p.Module = ""; p.Version = " " },
			wantErr: "module, version",
		},
		{name: "zero timestamp", mutate: func(p *Params) { p.Timestamp = time.Time{} }, wantErr: "timestamp"},
		{name: "bad kind", mutate: func(p *Params) { p.Kind = "nightly" }, wantErr: "invalid build kind"},
		{
			name:    "bad source key",
			mutate:  func(p *Params) { p.Source = map[string]string{"Git-Repo": "x"} },
			wantErr: "invalid source parameter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefinesOrder(t *testing.T) {
	var names []string
	for _, d := range testParams().Defines() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{
		"_user", "_email", "_epics", "_build_dir", "_module", "_version",
		"_area", "_force", "_build_name", "_git_ref", "_git_repo",
	}, names)
}

func TestRenderShell(t *testing.T) {
	g := testGenerator(t)

	out, err := g.Render(linuxTarget, "support", testParams())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "#!/bin/bash\n"))
	assert.Contains(t, out, "export _user='abc12345'\n")
	assert.Contains(t, out, "export _build_dir='/shared/prod/R7.0.7/support'\n")
	assert.Contains(t, out, "export _force='false'\n")
	assert.Contains(t, out, "export _git_repo='ssh://git.example.com/support/motion/pmac'\n")
	assert.Contains(t, out, "prepare_build_dir() {")
	assert.Contains(t, out, "Building motion/pmac 2-5 against $_epics")
	assert.Contains(t, out, `chmod -R a-w "$target"`)
	assert.NotContains(t, out, "\r\n")

	// Header, defines, utility snippet, body.
	header := strings.Index(out, "#!/bin/bash")
	define := strings.Index(out, "export _user")
	util := strings.Index(out, "prepare_build_dir() {")
	body := strings.Index(out, "# Support module build")
	assert.True(t, header < define && define < util && util < body)
}

func TestRenderLocalBuildKeepsWritable(t *testing.T) {
	g := testGenerator(t)
	p := testParams()
	p.Kind = KindLocal

	out, err := g.Render(linuxTarget, "support", p)
	require.NoError(t, err)
	assert.NotContains(t, out, "chmod -R a-w")
}

func TestRenderBatchTranslatesPaths(t *testing.T) {
	g := testGenerator(t)
	p := testParams()
	p.Server = winTarget.Server
	p.Toolchain = winTarget.Toolchain
	p.BuildDir = "/shared/prod/R3.14.12.7/support"
	p.Source["git_mirror"] = "/shared/mirror/support/motion/pmac"

	out, err := g.Render(winTarget, "support", p)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "@echo off\r\n"))
	assert.Contains(t, out, "set _build_dir=W:\\prod\\R3.14.12.7\\support\r\n")
	assert.Contains(t, out, "set _git_mirror=W:\\mirror\\support\\motion\\pmac\r\n")
	// Module paths are not filesystem paths.
	assert.Contains(t, out, "set _module=motion/pmac\r\n")
	assert.NotContains(t, strings.ReplaceAll(out, "\r\n", ""), "\n")
}

func TestRenderQuotesValues(t *testing.T) {
	g := testGenerator(t)
	p := testParams()
	p.Email = "o'brien@example.com"

	out, err := g.Render(linuxTarget, "support", p)
	require.NoError(t, err)
	assert.Contains(t, out, `export _email='o'\''brien@example.com'`)

	p.Server = winTarget.Server
	p.Email = "a&b@example.com"
	out, err = g.Render(winTarget, "support", p)
	require.NoError(t, err)
	assert.Contains(t, out, "set _email=a^&b@example.com")
}

func TestRenderErrors(t *testing.T) {
	g := testGenerator(t)

	t.Run("invalid params", func(t *testing.T) {
		p := testParams()
		p.Version = ""
		_, err := g.Render(linuxTarget, "support", p)
		assert.ErrorContains(t, err, "version")
	})

	t.Run("unknown os", func(t *testing.T) {
		_, err := g.Render(target.Target{OS: "Solaris"}, "support", testParams())
		assert.True(t, errors.Is(err, oerrors.ErrConfiguration))
	})

	t.Run("missing area template", func(t *testing.T) {
		_, err := g.Render(linuxTarget, "matlab", testParams())
		assert.True(t, errors.Is(err, oerrors.ErrConfiguration))
	})

	t.Run("unknown source key", func(t *testing.T) {
		p := testParams()
		delete(p.Source, "git_ref")
		_, err := g.Render(linuxTarget, "support", p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown source parameter "git_ref"`)
	})
}

func TestRenderCustomTemplates(t *testing.T) {
	fsys := fstest.MapFS{
		"shell/header.tmpl": &fstest.MapFile{Data: []byte("#!/bin/sh")},
		"shell/probe.tmpl":  &fstest.MapFile{Data: []byte("echo {{ .Module }} {{ .Nonexistent }}")},
		"shell/plain.tmpl":  &fstest.MapFile{Data: []byte("echo {{ .Version }} {{ .Kind }}")},
	}
	g := testGenerator(t, WithTemplates(fsys))

	out, err := g.Render(linuxTarget, "plain", testParams())
	require.NoError(t, err)
	// No util snippet for this dialect, so the body follows the defines.
	assert.True(t, strings.HasPrefix(out, "#!/bin/sh\nexport _user="))
	assert.True(t, strings.HasSuffix(out, "export _git_repo='ssh://git.example.com/support/motion/pmac'\necho 2-5 build\n"))

	_, err = g.Render(linuxTarget, "probe", testParams())
	assert.Error(t, err)
}

func TestTranslatorPath(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		dialect target.Dialect
		in      string
		want    string
	}{
		{"same root", "/shared", "/shared", target.DialectShell, "/shared/prod", "/shared/prod"},
		{"other root", "/shared", "/mnt/shared", target.DialectShell, "/shared/prod/x", "/mnt/shared/prod/x"},
		{"root itself", "/shared", "/mnt/shared", target.DialectShell, "/shared", "/mnt/shared"},
		{"prefix only", "/shared", "/mnt/shared", target.DialectShell, "/shared2/x", "/shared2/x"},
		{"outside root", "/shared", "W:", target.DialectBatch, "/home/x", "/home/x"},
		{"batch separators", "/shared", "W:", target.DialectBatch, "/shared/work/a", `W:\work\a`},
		{"generic host", "", "W:", target.DialectBatch, "/shared/work/a", "/shared/work/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, newTranslator(tt.from, tt.to, tt.dialect).Path(tt.in))
		})
	}
}
