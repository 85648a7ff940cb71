package target

import (
	"bufio"
	"io/fs"
	"os"
	"runtime"
	"strings"
)

// OS family names used as catalog keys.
const (
	OSLinux   = "Linux"
	OSWindows = "Windows"
	OSGeneric = "generic"
)

// Host describes the machine modrel runs on.
type Host struct {
	// OS is the OS family catalog key.
	OS string

	// Distro is the distribution ID from os-release, e.g. "rhel".
	Distro string

	// Major is the major distribution version, e.g. "8".
	Major string

	// Arch is the CPU architecture in build-server notation, e.g. "x86_64".
	Arch string

	// Toolchain is the toolchain version the host is configured for.
	Toolchain string
}

// ServerName derives the build server name matching this host,
// e.g. "rhel8-x86_64". It is empty for generic hosts.
func (h Host) ServerName() string {
	if h.OS == OSGeneric || h.Distro == "" {
		return ""
	}
	return h.Distro + h.Major + "-" + h.Arch
}

// DetectHost inspects the running machine. fsys is the root filesystem;
// pass nil to use the real one.
func DetectHost(fsys fs.FS, toolchain string) Host {
	if fsys == nil {
		fsys = os.DirFS("/")
	}
	return detectHost(fsys, runtime.GOOS, runtime.GOARCH, toolchain)
}

func detectHost(fsys fs.FS, goos, goarch, toolchain string) Host {
	h := Host{
		OS:        osFamily(goos),
		Arch:      archName(goos, goarch),
		Toolchain: toolchain,
	}
	if h.OS == OSLinux {
		release := readOSRelease(fsys)
		h.Distro = release["ID"]
		h.Major, _, _ = strings.Cut(release["VERSION_ID"], ".")
	}
	return h
}

func osFamily(goos string) string {
	switch goos {
	case "linux":
		return OSLinux
	case "windows":
		return OSWindows
	default:
		return OSGeneric
	}
}

func archName(goos, goarch string) string {
	if goos == "windows" {
		return strings.ToUpper(goarch)
	}
	switch goarch {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	case "386":
		return "i686"
	default:
		return goarch
	}
}

// readOSRelease parses /etc/os-release into a map. Missing files yield an
// empty map.
func readOSRelease(fsys fs.FS) map[string]string {
	values := make(map[string]string)
	f, err := fsys.Open("etc/os-release")
	if err != nil {
		return values
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		values[key] = strings.Trim(value, `"'`)
	}
	return values
}
