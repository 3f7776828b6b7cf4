package catalog

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

//go:embed machines.csv
var machinesCSV []byte

// CSV column headers
const (
	colName       = "Machine Name"
	colSynonyms   = "Synonyms"
	colFormats    = "File Formats"
	colUSBPath    = "USB Path"
	colNotes      = "Notes"
	colDesignSize = "Design Size"
)

// ErrMissingColumn is returned when the catalog CSV lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Machine is one record of the machine catalog.
type Machine struct {
	Name     string
	Synonyms []string
	Formats  []string

	// USBPath is the design-import folder on the machine's USB stick,
	// e.g. "EMB/Embf". Nil when the machine reads from the volume root.
	USBPath    *string
	Notes      string
	DesignSize string
}

// Catalog is an immutable list of machines.
type Catalog struct {
	machines []Machine
}

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return Load(bytes.NewReader(machinesCSV))
})

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return defaultCatalog()
}

// New builds a catalog from machine records. Used by tests and by Load.
func New(machines []Machine) *Catalog {
	out := make([]Machine, len(machines))
	copy(out, machines)
	return &Catalog{machines: out}
}

// Load parses a machine catalog CSV with a header row.
func Load(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, col := range []string{colName, colSynonyms, colFormats, colUSBPath, colNotes, colDesignSize} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	var machines []Machine
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		get := func(col string) string {
			i := idx[col]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		m := Machine{
			Name:       get(colName),
			Synonyms:   splitList(get(colSynonyms)),
			Formats:    splitList(strings.ToLower(get(colFormats))),
			Notes:      get(colNotes),
			DesignSize: get(colDesignSize),
		}
		if p := get(colUSBPath); p != "" {
			m.USBPath = &p
		}
		if m.Name == "" {
			continue
		}
		machines = append(machines, m)
	}

	return &Catalog{machines: machines}, nil
}

// All returns every machine in catalog order.
func (c *Catalog) All() []Machine {
	out := make([]Machine, len(c.machines))
	copy(out, c.machines)
	return out
}

// WithFormat returns the machines that read ext directly.
func (c *Catalog) WithFormat(ext string) []Machine {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	var out []Machine
	for _, m := range c.machines {
		for _, f := range m.Formats {
			if f == ext {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// Names returns every machine name and synonym, each paired with the index
// of its machine. Used to present a pick list.
func (c *Catalog) Names() []NameRef {
	var out []NameRef
	for i, m := range c.machines {
		out = append(out, NameRef{Name: m.Name, Index: i})
		for _, s := range m.Synonyms {
			out = append(out, NameRef{Name: s, Index: i})
		}
	}
	return out
}

// NameRef points a display name at a machine.
type NameRef struct {
	Name  string
	Index int
}

// Machine returns the machine at index i.
func (c *Catalog) Machine(i int) Machine {
	return c.machines[i]
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
