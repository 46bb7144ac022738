// Package shard reads the master file (the list of shard paths) and
// materializes individual shard files into dense matrices.
package shard

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/pkuwalter/mr-mpi-som/internal/matrix"
)

// ReadMasterFile returns the shard paths listed one per line in path. Blank
// lines are skipped.
func ReadMasterFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "shard: opening master file %q", path)
	}
	defer f.Close()

	var paths []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			paths = append(paths, trimmed)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "shard: reading master file %q", path)
	}
	return paths, nil
}

// Load reads nvecsPerFile whitespace-separated feature vectors of ndimen
// floats each from the shard file at path into a dense matrix. Unlike the
// source, read and parse failures are surfaced to the caller rather than
// silently proceeding with garbage data (spec.md §7).
func Load(path string, nvecsPerFile, ndimen int) (*matrix.Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "shard: opening %q", path)
	}
	defer f.Close()

	m, err := matrix.Create(nvecsPerFile, ndimen)
	if err != nil {
		return nil, err
	}

	reader := bufio.NewReaderSize(f, 1<<20)
	data := m.Data()
	for i := range data {
		v, err := readFloat(reader)
		if err != nil {
			return nil, errors.Wrapf(err, "shard: reading element %d of %q", i, path)
		}
		data[i] = v
	}
	return m, nil
}

func readFloat(r *bufio.Reader) (float64, error) {
	var v float64
	if _, err := fmt.Fscan(r, &v); err != nil {
		return 0, err
	}
	return v, nil
}
