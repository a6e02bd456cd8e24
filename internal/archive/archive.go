package archive

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/emberlab/emberc/internal/graph"
)

// FormatVersion is the archive format revision this package reads and
// writes. Loaders reject anything newer.
const FormatVersion = 1

type fileModel struct {
	Version int        `msgpack:"version"`
	Nodes   []fileNode `msgpack:"nodes"`
}

type fileNode struct {
	ID     int64          `msgpack:"id"`
	Op     string         `msgpack:"op"`
	Inputs []filePortRef  `msgpack:"inputs"`
	Fields map[string]any `msgpack:"fields,omitempty"`
}

// filePortRef records one input binding; a zero Node means unbound.
type filePortRef struct {
	Node int64 `msgpack:"node"`
	Port int   `msgpack:"port"`
}

// Save writes the model to w.
func Save(w io.Writer, m *graph.Model) error {
	doc := fileModel{Version: FormatVersion}
	for _, n := range m.Nodes() {
		rec := fileNode{
			ID: int64(n.ID()),
			Op: n.Op().OpName(),
		}
		for _, in := range n.Inputs() {
			var ref filePortRef
			if in.Bound() {
				src, err := in.Source()
				if err != nil {
					return err
				}
				ref = filePortRef{Node: int64(src.Node), Port: src.Port}
			}
			rec.Inputs = append(rec.Inputs, ref)
		}
		if fw, ok := n.Op().(FieldWriter); ok {
			fields := newWriter()
			fw.WriteFields(fields)
			rec.Fields = fields.fields
		}
		doc.Nodes = append(doc.Nodes, rec)
	}
	return msgpack.NewEncoder(w).Encode(&doc)
}

// Load reads a model from r, rebuilding it through the graph creation API.
// Ops are constructed from the registry, have their fields restored, and
// are added in dependency order, so a loaded model passes the same
// validation a freshly built one does.
func Load(r io.Reader) (*graph.Model, error) {
	var doc fileModel
	if err := msgpack.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding model archive: %w", err)
	}
	if doc.Version > FormatVersion {
		return nil, fmt.Errorf("archive format version %d is newer than supported version %d", doc.Version, FormatVersion)
	}

	order, err := dependencyOrder(doc.Nodes)
	if err != nil {
		return nil, err
	}

	m := graph.NewModel()
	remap := make(map[int64]graph.NodeID, len(doc.Nodes))
	for _, rec := range order {
		factory, err := lookupOp(rec.Op)
		if err != nil {
			return nil, err
		}
		op := factory()
		if fr, ok := op.(FieldReader); ok {
			if err := fr.ReadFields(newReader(rec.Fields)); err != nil {
				return nil, fmt.Errorf("restoring %s node: %w", rec.Op, err)
			}
		}
		inputs := make([]graph.PortRef, len(rec.Inputs))
		for i, ref := range rec.Inputs {
			if ref.Node == 0 {
				inputs[i] = graph.Unbound
				continue
			}
			id, ok := remap[ref.Node]
			if !ok {
				return nil, fmt.Errorf("%w: saved node %d references unknown node %d",
					graph.ErrIllegalState, rec.ID, ref.Node)
			}
			inputs[i] = graph.PortRef{Node: id, Port: ref.Port}
		}
		n, err := m.AddNode(op, inputs...)
		if err != nil {
			return nil, fmt.Errorf("restoring %s node: %w", rec.Op, err)
		}
		remap[rec.ID] = n.ID()
	}
	return m, nil
}

// dependencyOrder sorts saved nodes so every bound input's source comes
// first, keeping the file order among independent nodes. A reference
// cycle or dangling reference fails the load.
func dependencyOrder(nodes []fileNode) ([]fileNode, error) {
	byID := make(map[int64]int, len(nodes))
	for i, rec := range nodes {
		if rec.ID == 0 {
			return nil, fmt.Errorf("%w: archive contains a node with id 0", graph.ErrIllegalState)
		}
		if _, dup := byID[rec.ID]; dup {
			return nil, fmt.Errorf("%w: archive contains node %d twice", graph.ErrIllegalState, rec.ID)
		}
		byID[rec.ID] = i
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(nodes))
	order := make([]fileNode, 0, len(nodes))

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: archive contains a reference cycle through node %d",
				graph.ErrIllegalState, nodes[i].ID)
		}
		state[i] = visiting
		for _, ref := range nodes[i].Inputs {
			if ref.Node == 0 {
				continue
			}
			j, ok := byID[ref.Node]
			if !ok {
				return fmt.Errorf("%w: saved node %d references unknown node %d",
					graph.ErrIllegalState, nodes[i].ID, ref.Node)
			}
			if err := visit(j); err != nil {
				return err
			}
		}
		state[i] = done
		order = append(order, nodes[i])
		return nil
	}
	for i := range nodes {
		if err := visit(i); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// SaveModel writes the model to a file.
func SaveModel(fs afero.Fs, path string, m *graph.Model) error {
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("creating model archive: %w", err)
	}
	if err := Save(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadModel reads a model from a file.
func LoadModel(fs afero.Fs, path string) (*graph.Model, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening model archive: %w", err)
	}
	defer f.Close()
	return Load(f)
}
