package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// openInput opens name for reading; "-" is stdin.
func openInput(name string, stdin io.Reader) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(stdin), nil
	}
	return os.Open(name)
}

// readVectors parses one vector per line. Values are separated by tabs,
// spaces or commas. Blank lines and lines starting with # are skipped.
// When skipColumns is positive, that many leading columns are dropped
// (e.g. an ID column).
func readVectors(r io.Reader, skipColumns int) ([][]float32, error) {
	var out [][]float32

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == '\t' || r == ' ' || r == ','
		})
		if skipColumns > len(fields) {
			return nil, fmt.Errorf("line %d: %d columns, cannot skip %d", line, len(fields), skipColumns)
		}
		fields = fields[skipColumns:]

		vec := make([]float32, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, i+1+skipColumns, err)
			}
			vec[i] = float32(v)
		}
		out = append(out, vec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func readVectorFile(name string, stdin io.Reader, skipColumns int) ([][]float32, error) {
	f, err := openInput(name, stdin)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readVectors(f, skipColumns)
}
