package compile

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"

	"github.com/emberlab/emberc/internal/ir"
)

// WriteHeader renders the C interface of a compiled module: an include
// guard, the opaque state struct, and one prototype per exported function.
// Functions whose names start with "_" or with the module-internal prefix
// are implementation details and are left out.
func WriteHeader(w io.Writer, c *Compiled, opts Options) error {
	guard := strings.ToUpper(sanitizeIdent(opts.ModuleName)) + "_H"

	var b strings.Builder
	fmt.Fprintf(&b, "//\n// %s.h\n//\n// Generated interface for the %s module.\n//\n\n", opts.ModuleName, opts.ModuleName)
	fmt.Fprintf(&b, "#ifndef %s\n#define %s\n\n", guard, guard)
	b.WriteString("#include <stdint.h>\n\n")
	b.WriteString("#ifdef __cplusplus\nextern \"C\" {\n#endif\n\n")

	writeStateStruct(&b, c, opts)

	for _, fn := range c.Module.Functions() {
		if !exported(fn.Name) {
			continue
		}
		writePrototype(&b, fn)
	}

	b.WriteString("\n#ifdef __cplusplus\n} // extern \"C\"\n#endif\n\n")
	fmt.Fprintf(&b, "#endif // %s\n", guard)

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteHeaderFile writes the header for a compiled module to path.
func WriteHeaderFile(fs afero.Fs, path string, c *Compiled, opts Options) error {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("creating header file: %w", err)
	}
	if err := WriteHeader(f, c, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// exported reports whether a function belongs in the public header.
func exported(name string) bool {
	return !strings.HasPrefix(name, "_") && !strings.HasPrefix(name, InternalPrefix)
}

// writeStateStruct renders the module's intermediate storage as a struct
// of opaque byte members, so callers can allocate it without depending on
// its contents.
func writeStateStruct(b *strings.Builder, c *Compiled, opts Options) {
	name := sanitizeIdent(opts.ModuleName) + "_state"
	fmt.Fprintf(b, "typedef struct %s\n{\n", name)
	if len(c.State) == 0 {
		fmt.Fprintf(b, "    uint8_t _0[1];\n")
	}
	for i, buf := range c.State {
		fmt.Fprintf(b, "    uint8_t _%d[%d];\n", i, buf.Size*buf.Elem.SizeBytes())
	}
	fmt.Fprintf(b, "} %s;\n\n", name)
}

func writePrototype(b *strings.Builder, fn *ir.Function) {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = cType(p.Kind) + " " + p.Name
	}
	fmt.Fprintf(b, "void %s(%s);\n", fn.Name, strings.Join(params, ", "))
}

func cType(k ir.ParamKind) string {
	switch k {
	case ir.ParamScalarInt:
		return "int32_t"
	case ir.ParamScalarFloat:
		return "double"
	default:
		return "double*"
	}
}

// sanitizeIdent maps a module name to a valid C identifier.
func sanitizeIdent(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "model"
	}
	return b.String()
}
