package install

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/blackwell-systems/modman/internal/apperr"
)

var sevenZipNames = []string{"7z", "7za", "7zz"}

// LocateSevenZip finds a 7-Zip binary. A configured path wins; otherwise
// PATH is searched, then the usual install locations for the platform.
func LocateSevenZip(configured string) (string, error) {
	if configured != "" {
		if isExecutableFile(configured) {
			return configured, nil
		}
		return "", apperr.Newf(apperr.InvalidInput, "locate 7-Zip", "configured 7-Zip path %s is not an executable file", configured)
	}

	for _, name := range sevenZipNames {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}

	for _, p := range wellKnownSevenZipPaths() {
		if isExecutableFile(p) {
			return p, nil
		}
	}

	return "", apperr.New(apperr.InvalidInput, "locate 7-Zip", "7-Zip is required but was not found. Please install 7-Zip.")
}

func wellKnownSevenZipPaths() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			filepath.Join(os.Getenv("ProgramFiles"), "7-Zip", "7z.exe"),
			filepath.Join(os.Getenv("ProgramFiles(x86)"), "7-Zip", "7z.exe"),
			`C:\Program Files\7-Zip\7z.exe`,
		}
	case "darwin":
		return []string{"/opt/homebrew/bin/7zz", "/opt/homebrew/bin/7z", "/usr/local/bin/7z"}
	default:
		return []string{"/usr/bin/7z", "/usr/bin/7za", "/usr/local/bin/7z", "/snap/bin/7z"}
	}
}

func isExecutableFile(p string) bool {
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode()&0o111 != 0
}
