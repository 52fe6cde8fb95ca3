package declare

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/delegateas/XrmSync-sub000/internal/model"
)

//go:embed schema.cue
var schemaCUE string

// Error code constants for loading failures.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build or schema unification failed
	ErrCodeInvalid     = "E007" // Declared value cannot be converted
)

// LoadError represents an error that occurred while loading declarations.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads every CUE file in dir, unifies it with the schema and converts
// the result. Conversion errors are collected, not fail-fast.
func Load(dir string) (model.Declaration, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return model.Declaration{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("declaration directory not found: %s", dir)}
	}
	if err != nil {
		return model.Declaration{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing declaration directory: %v", err)}
	}
	if !info.IsDir() {
		return model.Declaration{}, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return model.Declaration{}, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return model.Declaration{}, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return model.Declaration{}, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return model.Declaration{}, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	return build(ctx, ctx.BuildInstance(inst))
}

// CompileString converts a declaration given as CUE source.
func CompileString(src string) (model.Declaration, error) {
	ctx := cuecontext.New()
	return build(ctx, ctx.CompileString(src, cue.Filename("declaration.cue")))
}

func build(ctx *cue.Context, user cue.Value) (model.Declaration, error) {
	if err := user.Err(); err != nil {
		return model.Declaration{}, buildError(err)
	}

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return model.Declaration{}, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("compiling schema: %v", err)}
	}

	value := schema.Unify(user)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return model.Declaration{}, buildError(err)
	}

	return Compile(value)
}

func buildError(err error) *LoadError {
	cerr := formatCUEError(err)
	if ce, ok := cerr.(*CompileError); ok {
		return &LoadError{Code: ErrCodeBuildFailed, Message: ce.Message, Pos: ce.Pos}
	}
	return &LoadError{Code: ErrCodeBuildFailed, Message: err.Error()}
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
