package script

import (
	"strings"

	"github.com/modrel/cli/internal/target"
)

// translator rewrites paths under the invoking host's shared root to the
// same location as the target OS mounts it.
type translator struct {
	from    string
	to      string
	dialect target.Dialect
}

func newTranslator(hostRoot, targetRoot string, dialect target.Dialect) translator {
	return translator{from: hostRoot, to: targetRoot, dialect: dialect}
}

// active reports whether the roots differ.
func (t translator) active() bool {
	return t.from != "" && t.to != "" && t.from != t.to
}

// Path translates one value. Values outside the host root are returned
// unchanged.
func (t translator) Path(value string) string {
	if !t.active() {
		return value
	}
	rest, ok := strings.CutPrefix(value, t.from)
	if !ok || (rest != "" && rest[0] != '/') {
		return value
	}
	out := t.to + rest
	if t.dialect == target.DialectBatch {
		out = strings.ReplaceAll(out, "/", `\`)
	}
	return out
}

// params returns a copy of p with every path value translated.
func (t translator) params(p Params) Params {
	if !t.active() {
		return p
	}
	p.User = t.Path(p.User)
	p.Email = t.Path(p.Email)
	p.Toolchain = t.Path(p.Toolchain)
	p.BuildDir = t.Path(p.BuildDir)
	p.Module = t.Path(p.Module)
	p.Version = t.Path(p.Version)
	p.Area = t.Path(p.Area)
	p.BuildName = t.Path(p.BuildName)
	p.Server = t.Path(p.Server)

	if p.Source != nil {
		source := make(map[string]string, len(p.Source))
		for k, v := range p.Source {
			source[k] = t.Path(v)
		}
		p.Source = source
	}
	return p
}
