package ledger

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/robinvdvleuten/ourfinance/loader"
)

var errIsDirectory = errors.New("is a directory")

// Load reads the ledger at path, follows its includes and builds a
// snapshot. Any failure, including a syntax error, is returned as a
// *LoadError wrapping the cause.
func Load(ctx context.Context, path string) (*Snapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &LoadError{Path: path, Err: errIsDirectory}
	}

	result, err := loader.New(loader.WithFollowIncludes()).Load(ctx, path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	return Build(ctx, result.AST, WithSource(result.Root, info.ModTime(), result.Files())), nil
}

// LoadBytes builds a snapshot from in-memory source. Include directives are
// rejected because there is no directory to resolve them against.
func LoadBytes(ctx context.Context, filename string, data []byte) (*Snapshot, error) {
	tree, err := loader.New(loader.WithFollowIncludes()).LoadBytes(ctx, filename, data)
	if err != nil {
		return nil, &LoadError{Path: filename, Err: err}
	}
	return Build(ctx, tree, WithSource(filename, time.Time{}, nil)), nil
}
