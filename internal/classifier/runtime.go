package classifier

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/straja-ai/nlp-phishing/internal/redact"
)

// sharedLibraryEnv overrides the ONNX Runtime library lookup.
const sharedLibraryEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

func initRuntime(modelDir string) error {
	libPath := resolveSharedLibraryPath(modelDir)
	if libPath == "" {
		return fmt.Errorf("onnxruntime shared library not found in %v; set %s", libraryDirs(modelDir), sharedLibraryEnv)
	}
	redact.Logf("classifier: onnxruntime library %s", libPath)
	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}
	return nil
}

// resolveSharedLibraryPath finds the ONNX Runtime library for this platform.
// The env override wins; then the model bundle (<dir>, <dir>/lib), the
// directory of the running binary, the loader path and system locations.
// Versioned sonames such as libonnxruntime.so.1.23.0 are accepted.
func resolveSharedLibraryPath(modelDir string) string {
	if env := strings.TrimSpace(os.Getenv(sharedLibraryEnv)); env != "" {
		return env
	}

	patterns := libraryPatterns(runtime.GOOS)
	for _, dir := range libraryDirs(modelDir) {
		for _, pattern := range patterns {
			matches, _ := filepath.Glob(filepath.Join(dir, pattern))
			for _, candidate := range matches {
				if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
					return candidate
				}
			}
		}
	}
	return ""
}

func libraryPatterns(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"libonnxruntime.dylib", "libonnxruntime.*.dylib"}
	case "windows":
		return []string{"onnxruntime.dll"}
	default:
		return []string{"libonnxruntime.so", "libonnxruntime.so.*"}
	}
}

func libraryDirs(modelDir string) []string {
	var dirs []string
	if strings.TrimSpace(modelDir) != "" {
		dirs = append(dirs, modelDir, filepath.Join(modelDir, "lib"))
	}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe), filepath.Join(filepath.Dir(exe), "lib"))
	}
	for _, key := range []string{"LD_LIBRARY_PATH", "DYLD_LIBRARY_PATH"} {
		for _, dir := range filepath.SplitList(os.Getenv(key)) {
			if dir != "" {
				dirs = append(dirs, dir)
			}
		}
	}
	return append(dirs, "/usr/local/lib", "/usr/lib", "/opt/homebrew/lib")
}
