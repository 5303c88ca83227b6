// Package loader reads Beancount files from disk, optionally following
// include directives.
//
// Without WithFollowIncludes only the given file is parsed and its include
// directives stay in the AST. With it, every included file is resolved
// relative to the including file, parsed once, and merged into a single AST
// sorted by date.
//
//	ldr := loader.New(loader.WithFollowIncludes())
//	result, err := ldr.Load(ctx, "main.beancount")
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/robinvdvleuten/ourfinance/ast"
	"github.com/robinvdvleuten/ourfinance/parser"
	"github.com/robinvdvleuten/ourfinance/telemetry"
)

// Loader loads ledger files.
type Loader struct {
	// FollowIncludes makes Load resolve include directives recursively.
	FollowIncludes bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithFollowIncludes makes the loader merge all included files.
func WithFollowIncludes() Option {
	return func(l *Loader) {
		l.FollowIncludes = true
	}
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Result is a loaded ledger.
type Result struct {
	AST *ast.AST

	// Root is the absolute path of the file passed to Load.
	Root string

	// Includes lists the absolute paths of every included file that was
	// loaded, in load order. Empty unless includes are followed.
	Includes []string
}

// Files returns Root followed by Includes.
func (r *Result) Files() []string {
	files := make([]string, 0, 1+len(r.Includes))
	if r.Root != "" {
		files = append(files, r.Root)
	}
	return append(files, r.Includes...)
}

// Load parses filename, following includes when configured. Read failures
// wrap the os error; syntax errors are returned as *parser.ParseError.
func (l *Loader) Load(ctx context.Context, filename string) (*Result, error) {
	timer := telemetry.StartTimer(ctx, "loader.load "+filepath.Base(filename))
	defer timer.End()

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for %s: %w", filename, err)
	}

	if !l.FollowIncludes {
		tree, err := parseFile(ctx, filename)
		if err != nil {
			return nil, err
		}
		return &Result{AST: tree, Root: absPath}, nil
	}

	state := &loaderState{visited: make(map[string]bool)}
	tree, err := state.loadRecursive(ctx, filename)
	if err != nil {
		return nil, err
	}

	return &Result{AST: tree, Root: absPath, Includes: state.includes}, nil
}

// LoadBytes parses an in-memory ledger such as stdin. Includes cannot be
// resolved without a directory, so a loader that follows includes rejects
// data containing them.
func (l *Loader) LoadBytes(ctx context.Context, filename string, data []byte) (*ast.AST, error) {
	tree, err := parser.ParseBytesWithFilename(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	if l.FollowIncludes && len(tree.Includes) > 0 {
		if filename == "<stdin>" {
			return nil, fmt.Errorf("include directives are not supported when reading from stdin")
		}
		return nil, fmt.Errorf("%s: include directives found; use Load() instead of LoadBytes() to resolve includes", filename)
	}
	return tree, nil
}

// MustLoad is Load for fixtures. It panics on error.
func (l *Loader) MustLoad(ctx context.Context, filename string) *Result {
	result, err := l.Load(ctx, filename)
	if err != nil {
		panic(err)
	}
	return result
}

// MustLoadBytes is LoadBytes for fixtures. It panics on error.
func (l *Loader) MustLoadBytes(ctx context.Context, filename string, data []byte) *ast.AST {
	tree, err := l.LoadBytes(ctx, filename, data)
	if err != nil {
		panic(err)
	}
	return tree
}

func parseFile(ctx context.Context, filename string) (*ast.AST, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return parser.ParseBytesWithFilename(ctx, filename, data)
}

type loaderState struct {
	visited  map[string]bool
	includes []string
}

func (l *loaderState) loadRecursive(ctx context.Context, filename string) (*ast.AST, error) {
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for %s: %w", filename, err)
	}

	// Files included more than once, including cycles, are loaded once.
	if l.visited[absPath] {
		return &ast.AST{}, nil
	}
	isRoot := len(l.visited) == 0
	l.visited[absPath] = true
	if !isRoot {
		l.includes = append(l.includes, absPath)
	}

	tree, err := parseFile(ctx, filename)
	if err != nil {
		return nil, err
	}

	if len(tree.Includes) == 0 {
		tree.Includes = nil
		return tree, nil
	}

	baseDir := filepath.Dir(absPath)
	included := make([]*ast.AST, 0, len(tree.Includes))

	for _, inc := range tree.Includes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		includePath := inc.Filename
		if !filepath.IsAbs(includePath) {
			includePath = filepath.Join(baseDir, includePath)
		}

		sub, err := l.loadRecursive(ctx, includePath)
		if err != nil {
			return nil, fmt.Errorf("in file %s: %w", filename, err)
		}
		included = append(included, sub)
	}

	return mergeASTs(tree, included...), nil
}

// mergeASTs combines a file with its includes. An option set by the
// including file shadows every value of the same option in the includes.
func mergeASTs(main *ast.AST, included ...*ast.AST) *ast.AST {
	result := &ast.AST{
		Directives: make(ast.Directives, 0, len(main.Directives)),
		Options:    append([]*ast.Option(nil), main.Options...),
		Skipped:    main.Skipped,
	}

	shadowed := make(map[string]bool, len(main.Options))
	for _, opt := range main.Options {
		shadowed[opt.Name] = true
	}

	result.Directives = append(result.Directives, main.Directives...)
	for _, inc := range included {
		result.Directives = append(result.Directives, inc.Directives...)
		for _, opt := range inc.Options {
			if !shadowed[opt.Name] {
				result.Options = append(result.Options, opt)
			}
		}
		result.Skipped += inc.Skipped
	}

	ast.SortDirectives(result)
	return result
}
