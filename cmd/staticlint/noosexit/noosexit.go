// Package noosexit defines an analyzer that keeps main.main from terminating
// the process directly, so that deferred cleanup such as closing the storage
// and flushing the logger always runs.
package noosexit

import (
	"go/ast"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/types/typeutil"
)

// Analyzer reports calls of os.Exit and syscall.Exit made directly inside
// the main.main function. Calls are resolved through type information, so
// renamed imports are caught too.
var Analyzer = &analysis.Analyzer{
	Name: "noosexit",
	Doc:  "prohibits direct use of os.Exit in main.main",
	Run:  run,
}

var exitFuncs = map[string]bool{
	"os.Exit":      true,
	"syscall.Exit": true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() != "main" {
		return nil, nil
	}

	for _, file := range pass.Files {
		// Exclude go-build cache files
		filename := pass.Fset.File(file.Pos()).Name()
		if isGoBuildCacheFile(filename) {
			continue
		}

		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Name.Name != "main" || fn.Recv != nil || fn.Body == nil {
				continue
			}

			ast.Inspect(fn.Body, func(n ast.Node) bool {
				// Function literals run later, if at all; only main's own body counts.
				if _, isLiteral := n.(*ast.FuncLit); isLiteral {
					return false
				}

				call, ok := n.(*ast.CallExpr)
				if !ok {
					return true
				}

				callee := typeutil.StaticCallee(pass.TypesInfo, call)
				if callee == nil || callee.Pkg() == nil {
					return true
				}

				if exitFuncs[callee.Pkg().Path()+"."+callee.Name()] {
					pass.Reportf(call.Pos(), "avoid using %s.%s in main.main", callee.Pkg().Name(), callee.Name())
				}

				return true
			})
		}
	}
	return nil, nil
}

func isGoBuildCacheFile(path string) bool {
	path = filepath.ToSlash(path)
	return strings.Contains(path, "/go-build/")
}
