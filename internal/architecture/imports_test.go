package architecture_test

import (
	"bufio"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"
)

// The entity models may only be imported by the kernel, the schema layer and
// test fixtures; everything else goes through kernel.Mutate.
func TestRecordsImportBoundary(t *testing.T) {
	root, modulePath := moduleRoot(t)
	recordsPkg := modulePath + "/internal/domain/records"
	allowed := []string{
		"internal/domain/records/",
		"internal/kernel/",
		"internal/data/db/",
		"internal/data/store/storetest/",
	}

	type violation struct {
		file string
		imp  string
	}
	var violations []violation
	walkGoFiles(t, root, func(rel string, f *ast.File) {
		for _, p := range allowed {
			if strings.HasPrefix(rel, p) {
				return
			}
		}
		for _, spec := range f.Imports {
			imp, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				continue
			}
			if imp == recordsPkg {
				violations = append(violations, violation{file: rel, imp: imp})
			}
		}
	}, parser.ImportsOnly)

	if len(violations) > 0 {
		var b strings.Builder
		b.WriteString("entity models imported outside the kernel:\n")
		for _, v := range violations {
			fmt.Fprintf(&b, "- %s imports %q\n", v.file, v.imp)
		}
		t.Fatal(b.String())
	}
}

func TestImportBoundaries(t *testing.T) {
	root, modulePath := moduleRoot(t)

	type violation struct {
		file string
		imp  string
		rule string
	}
	var violations []violation
	walkGoFiles(t, root, func(rel string, f *ast.File) {
		disallowed := disallowedImports(modulePath, layerFor(rel))
		if len(disallowed) == 0 {
			return
		}
		for _, spec := range f.Imports {
			imp, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				continue
			}
			for _, bad := range disallowed {
				if strings.HasPrefix(imp, bad) {
					violations = append(violations, violation{file: rel, imp: imp, rule: bad})
					break
				}
			}
		}
	}, parser.ImportsOnly)

	if len(violations) > 0 {
		var b strings.Builder
		b.WriteString("import boundary violations:\n")
		for _, v := range violations {
			fmt.Fprintf(&b, "- %s imports %q (disallowed: %q)\n", v.file, v.imp, v.rule)
		}
		t.Fatal(b.String())
	}
}

func TestKernelExportedSurface(t *testing.T) {
	root, _ := moduleRoot(t)
	dir := filepath.Join(root, "internal", "kernel")
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read kernel dir: %v", err)
	}

	fset := token.NewFileSet()
	var exported []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, 0)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		for _, decl := range f.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				if d.Recv == nil && d.Name.IsExported() {
					exported = append(exported, d.Name.Name)
				}
				if d.Recv != nil && d.Name.IsExported() {
					exported = append(exported, "method "+d.Name.Name)
				}
			case *ast.GenDecl:
				for _, spec := range d.Specs {
					switch s := spec.(type) {
					case *ast.TypeSpec:
						if s.Name.IsExported() {
							exported = append(exported, s.Name.Name)
						}
					case *ast.ValueSpec:
						for _, n := range s.Names {
							if n.IsExported() {
								exported = append(exported, n.Name)
							}
						}
					}
				}
			}
		}
	}
	sort.Strings(exported)
	want := []string{"ListEntities", "Mutate", "MutationContext", "ReadEntity"}
	if strings.Join(exported, ",") != strings.Join(want, ",") {
		t.Fatalf("kernel exports %v, want exactly %v", exported, want)
	}
}

func layerFor(rel string) string {
	switch {
	case strings.HasPrefix(rel, "internal/domain/"):
		return "domain"
	case strings.HasPrefix(rel, "internal/data/"):
		return "data"
	case strings.HasPrefix(rel, "internal/kernel/"):
		return "kernel"
	case strings.HasPrefix(rel, "internal/pkg/"):
		return "pkg"
	default:
		return ""
	}
}

func disallowedImports(modulePath string, layer string) []string {
	outer := []string{
		modulePath + "/internal/app",
		modulePath + "/internal/cli",
		modulePath + "/internal/auth",
	}
	switch layer {
	case "domain":
		return append(outer,
			modulePath+"/internal/data/",
			modulePath+"/internal/kernel",
			modulePath+"/internal/observability",
			modulePath+"/internal/policy",
		)
	case "data":
		return append(outer, modulePath+"/internal/kernel")
	case "kernel":
		return outer
	case "pkg":
		return append(outer,
			modulePath+"/internal/domain/",
			modulePath+"/internal/data/",
			modulePath+"/internal/kernel",
		)
	default:
		return nil
	}
}

func walkGoFiles(t *testing.T, root string, fn func(rel string, f *ast.File), mode parser.Mode) {
	t.Helper()
	internalDir := filepath.Join(root, "internal")
	fset := token.NewFileSet()
	err := filepath.WalkDir(internalDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", "vendor", "node_modules", ".gocache":
				return filepath.SkipDir
			default:
				return nil
			}
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		f, err := parser.ParseFile(fset, path, nil, mode)
		if err != nil {
			return err
		}
		fn(filepath.ToSlash(rel), f)
		return nil
	})
	if err != nil {
		t.Fatalf("walk internal/: %v", err)
	}
}

func moduleRoot(t *testing.T) (string, string) {
	t.Helper()
	start, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	root, err := findModuleRoot(start)
	if err != nil {
		t.Fatalf("find module root: %v", err)
	}
	modulePath, err := readModulePath(filepath.Join(root, "go.mod"))
	if err != nil {
		t.Fatalf("read module path: %v", err)
	}
	return root, modulePath
}

func findModuleRoot(start string) (string, error) {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found from %s", start)
		}
		dir = parent
	}
}

func readModulePath(goModPath string) (string, error) {
	f, err := os.Open(goModPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if !strings.HasPrefix(line, "module ") {
			continue
		}
		mp := strings.TrimSpace(strings.TrimPrefix(line, "module "))
		if mp == "" {
			return "", fmt.Errorf("empty module path in %s", goModPath)
		}
		return mp, nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("module path not found in %s", goModPath)
}
