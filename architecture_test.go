//go:build unit

package xmlcrypto

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

const modulePath = "github.com/philiph/xmlcrypto"

// packageImports maps every non-test Go file under dir to its import paths.
func packageImports(t *testing.T, dir string) map[string][]string {
	t.Helper()

	files := map[string][]string{}
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		name := info.Name()
		if info.IsDir() && path != dir && (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".") || name == "testdata") {
			return filepath.SkipDir
		}
		if info.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		f, err := parser.ParseFile(token.NewFileSet(), path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		for _, imp := range f.Imports {
			p, err := strconv.Unquote(imp.Path.Value)
			if err != nil {
				return err
			}
			files[path] = append(files[path], p)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", dir, err)
	}
	return files
}

func TestArchitecture_InternalDoesNotImportRoot(t *testing.T) {
	for file, imports := range packageImports(t, "internal") {
		for _, imp := range imports {
			if imp == modulePath {
				t.Errorf("%s imports the root package", file)
			}
		}
	}
}

// The domain is pure: standard library only.
func TestArchitecture_DomainImportsStandardLibraryOnly(t *testing.T) {
	for file, imports := range packageImports(t, filepath.Join("internal", "core", "domain")) {
		for _, imp := range imports {
			if first := strings.SplitN(imp, "/", 2)[0]; strings.Contains(first, ".") {
				t.Errorf("%s imports %s", file, imp)
			}
		}
	}
}

func TestArchitecture_CoreDoesNotImportAdapters(t *testing.T) {
	adapters := modulePath + "/internal/adapters/"
	for file, imports := range packageImports(t, filepath.Join("internal", "core")) {
		for _, imp := range imports {
			if strings.HasPrefix(imp, adapters) {
				t.Errorf("%s imports adapter %s", file, imp)
			}
		}
	}
}

func TestArchitecture_FixturesStayOutOfProduction(t *testing.T) {
	fixtures := modulePath + "/testfixtures/"
	for _, dir := range []string{".", "internal"} {
		for file, imports := range packageImports(t, dir) {
			if strings.HasPrefix(file, "testfixtures") {
				continue
			}
			for _, imp := range imports {
				if strings.HasPrefix(imp, fixtures) {
					t.Errorf("%s imports test fixture %s", file, imp)
				}
			}
		}
	}
}
