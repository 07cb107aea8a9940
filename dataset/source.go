package dataset

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log"
	"os"
)

//go:embed penguins_sample.csv
var sampleCSV []byte

// Source loads the dataset once at startup.
type Source interface {
	// Name describes the source for logs ("embedded", "file:penguins.csv").
	Name() string
	Load(ctx context.Context) (*Dataset, error)
}

// Load reads a dataset from src and logs what was loaded.
func Load(ctx context.Context, src Source) (*Dataset, error) {
	ds, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Name(), err)
	}
	log.Printf("🐧 Penguins: loaded %d records from %s (%d species, %d islands)",
		ds.Len(), src.Name(), len(ds.Species()), len(ds.Islands()))
	return ds, nil
}

// EmbeddedSource serves the sample CSV compiled into the binary.
type EmbeddedSource struct{}

func (EmbeddedSource) Name() string { return "embedded" }

func (EmbeddedSource) Load(context.Context) (*Dataset, error) {
	return ParseCSV(bytes.NewReader(sampleCSV))
}

// Sample returns the embedded sample dataset. It panics if the embedded file
// does not parse, which only a broken build can cause.
func Sample() *Dataset {
	ds, err := EmbeddedSource{}.Load(context.Background())
	if err != nil {
		panic(fmt.Sprintf("embedded dataset: %v", err))
	}
	return ds
}

// FileSource reads a CSV file from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return "file:" + s.Path }

func (s FileSource) Load(context.Context) (*Dataset, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ParseCSV(f)
}
