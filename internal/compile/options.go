package compile

import (
	"fmt"
	"runtime"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
)

// Options configures code generation for one target.
type Options struct {
	// TargetName is the human-readable device descriptor.
	TargetName string
	// TargetTriple is the toolchain triple passed through to the backend.
	TargetTriple string
	// RegisterBits is the width of the target's vector registers.
	RegisterBits int

	// ModuleName prefixes every exported symbol of the compiled module.
	ModuleName string
	// MaxTasks is the desired task count for parallel regions.
	MaxTasks int
	// Parallelize enables task dispatch; off, every region lowers to a
	// single sequential loop.
	Parallelize bool
	// Vectorize enables vector-width loops with scalar remainders.
	Vectorize bool
	// VectorWidth is the lane count; zero derives it from RegisterBits.
	VectorWidth int
}

// DefaultOptions returns a generic single-board target configuration.
func DefaultOptions() Options {
	return Options{
		TargetName:   "generic",
		RegisterBits: 128,
		ModuleName:   "model",
		MaxTasks:     4,
		Parallelize:  true,
		Vectorize:    true,
		VectorWidth:  0,
	}
}

// EffectiveVectorWidth resolves the lane count, deriving it from the
// register width and a 32-bit element when not set explicitly.
func (o Options) EffectiveVectorWidth() int {
	if o.VectorWidth > 0 {
		return o.VectorWidth
	}
	if o.RegisterBits >= 32 {
		return o.RegisterBits / 32
	}
	return 1
}

// Validate checks the option invariants, accumulating every violation.
func (o Options) Validate() error {
	var errs *multierror.Error
	if o.ModuleName == "" {
		errs = multierror.Append(errs, fmt.Errorf("module_name must not be empty"))
	}
	if o.MaxTasks < 1 {
		errs = multierror.Append(errs, fmt.Errorf("max_tasks must be at least 1, got %d", o.MaxTasks))
	}
	if o.VectorWidth < 0 {
		errs = multierror.Append(errs, fmt.Errorf("vector_width must not be negative, got %d", o.VectorWidth))
	}
	switch o.RegisterBits {
	case 0, 32, 64, 128, 256, 512:
	default:
		errs = multierror.Append(errs, fmt.Errorf("register_bits must be one of 32/64/128/256/512, got %d", o.RegisterBits))
	}
	return errs.ErrorOrNil()
}

// HCL schema for an options file:
//
//	target {
//	  name          = "cortex-m7"
//	  triple        = "thumbv7em-none-eabihf"
//	  register_bits = 128
//	}
//
//	codegen {
//	  module_name  = "model"
//	  max_tasks    = cpu_count
//	  parallelize  = true
//	  vectorize    = true
//	  vector_width = 4
//	}
type optionsFile struct {
	Target  *targetBlock  `hcl:"target,block"`
	Codegen *codegenBlock `hcl:"codegen,block"`
}

type targetBlock struct {
	Name         string `hcl:"name"`
	Triple       string `hcl:"triple,optional"`
	RegisterBits int    `hcl:"register_bits,optional"`
}

type codegenBlock struct {
	ModuleName  string `hcl:"module_name,optional"`
	MaxTasks    int    `hcl:"max_tasks,optional"`
	Parallelize *bool  `hcl:"parallelize,optional"`
	Vectorize   *bool  `hcl:"vectorize,optional"`
	VectorWidth int    `hcl:"vector_width,optional"`
}

// LoadOptions reads an HCL options file, layering it over DefaultOptions.
// The file may refer to cpu_count, the host's logical CPU count.
func LoadOptions(fs afero.Fs, path string) (Options, error) {
	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return Options{}, fmt.Errorf("reading options file: %w", err)
	}
	return ParseOptions(src, path)
}

// ParseOptions decodes option source text layered over DefaultOptions.
func ParseOptions(src []byte, filename string) (Options, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Options{}, fmt.Errorf("parsing %s: %w", filename, diags)
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"cpu_count": cty.NumberIntVal(int64(runtime.NumCPU())),
		},
	}
	var decoded optionsFile
	if diags := gohcl.DecodeBody(file.Body, evalCtx, &decoded); diags.HasErrors() {
		return Options{}, fmt.Errorf("decoding %s: %w", filename, diags)
	}

	opts := DefaultOptions()
	if t := decoded.Target; t != nil {
		opts.TargetName = t.Name
		if t.Triple != "" {
			opts.TargetTriple = t.Triple
		}
		if t.RegisterBits != 0 {
			opts.RegisterBits = t.RegisterBits
		}
	}
	if c := decoded.Codegen; c != nil {
		if c.ModuleName != "" {
			opts.ModuleName = c.ModuleName
		}
		if c.MaxTasks != 0 {
			opts.MaxTasks = c.MaxTasks
		}
		if c.Parallelize != nil {
			opts.Parallelize = *c.Parallelize
		}
		if c.Vectorize != nil {
			opts.Vectorize = *c.Vectorize
		}
		if c.VectorWidth != 0 {
			opts.VectorWidth = c.VectorWidth
		}
	}
	if err := opts.Validate(); err != nil {
		return Options{}, fmt.Errorf("invalid options in %s: %w", filename, err)
	}
	return opts, nil
}
