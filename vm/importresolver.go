package vm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxImportSize is the default max imported file size.
const DefaultMaxImportSize = 5 << 20 // 5 MiB

// FileExtension is the language's compiled/source file suffix consulted
// by ImportResolver.Resolve.
const FileExtension = ".atom"

// Compiler is the external front-end collaborator the core accepts but
// never implements. ImportResolver.Resolve calls it only when file-import
// is enabled and name ends in FileExtension.
type Compiler func(path string, source []byte) (*Module, error)

// NativePackage is a thunk registered under a name, invoked by
// ImportResolver.Resolve's package-resolution step.
type NativePackage func() *Value

// ImportResolver maps import names to either a registered native package
// or a compiled file module, caching results. Not thread-safe.
type ImportResolver struct {
	cache       map[string]*Value
	executed    map[string]bool
	native      map[string]NativePackage
	compiler    Compiler
	importFiles bool
	maxSize     int
	baseDir     string
}

// NewImportResolver constructs a resolver. compiler may be nil if
// importFiles is false.
func NewImportResolver(compiler Compiler, importFiles bool, maxSize int, baseDir string) *ImportResolver {
	if maxSize <= 0 {
		maxSize = DefaultMaxImportSize
	}
	return &ImportResolver{
		cache:       map[string]*Value{},
		executed:    map[string]bool{},
		native:      map[string]NativePackage{},
		compiler:    compiler,
		importFiles: importFiles,
		maxSize:     maxSize,
		baseDir:     baseDir,
	}
}

// RegisterNative installs a native package thunk under name.
func (r *ImportResolver) RegisterNative(name string, pkg NativePackage) {
	r.native[name] = pkg
}

// RegisterModule seeds the cache with an already-built module value —
// used by the interpreter to register the executing file module's own
// export value once its main body finishes, and by tests that hand-build
// a Module without a Compiler.
func (r *ImportResolver) RegisterModule(name string, v *Value) {
	r.cache[name] = v
	r.executed[name] = true
}

// Resolve implements the four-step import behavior: cache, file import,
// native package, not-found. run is called (at most once per path) to
// execute a freshly compiled module's main body and obtain its export
// value.
func (r *ImportResolver) Resolve(name string, run func(m *Module) (*Value, error)) (*Value, error) {
	if v, ok := r.cache[name]; ok {
		return v, nil
	}

	if strings.HasSuffix(name, FileExtension) {
		if !r.importFiles {
			return nil, fmt.Errorf("importing disabled by host")
		}
		path := name
		if !filepath.IsAbs(path) && r.baseDir != "" {
			path = filepath.Join(r.baseDir, path)
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("no such package: %s", name)
		}
		if info.Size() > int64(r.maxSize) {
			return nil, fmt.Errorf("import %s exceeds max import size of %d bytes", name, r.maxSize)
		}
		source, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if r.compiler == nil {
			return nil, fmt.Errorf("no compiler registered for file imports")
		}
		module, err := r.compiler(path, source)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s: %w", name, err)
		}
		v, err := run(module)
		if err != nil {
			return nil, err
		}
		r.cache[name] = v
		r.executed[name] = true
		return v, nil
	}

	if pkg, ok := r.native[name]; ok {
		v := pkg()
		r.cache[name] = v
		r.executed[name] = true
		return v, nil
	}

	return nil, fmt.Errorf("no such package")
}
