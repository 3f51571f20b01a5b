// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runfile

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/aclements/go-gg/table"
	"gopkg.in/yaml.v3"

	"github.com/kevinabrown/boxfish/errors"
	"github.com/kevinabrown/boxfish/metadata"
)

const frontMatterDelim = "---"

// ReadTable reads a CSV table file with optional YAML front matter.
// Columns whose values all parse as integers become []int, columns of
// numbers become []float64, and all others []string.
func ReadTable(path string) (metadata.Metadata, *table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading table")
	}
	defer f.Close()

	md, data, err := parseTable(f)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "parsing %s", path)
	}
	return md, data, nil
}

func parseTable(r io.Reader) (metadata.Metadata, *table.Table, error) {
	br := bufio.NewReader(r)
	md, err := frontMatter(br)
	if err != nil {
		return nil, nil, err
	}

	cr := csv.NewReader(br)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, errors.New("missing header row")
	}
	header := records[0]
	seen := make(map[string]bool, len(header))
	for _, col := range header {
		if seen[col] {
			return nil, nil, errors.Newf("duplicate column %q", col)
		}
		seen[col] = true
	}
	return md, table.TableFromStrings(header, records[1:], true), nil
}

// frontMatter consumes a leading "---" delimited YAML block from br, if
// there is one.
func frontMatter(br *bufio.Reader) (metadata.Metadata, error) {
	peek, _ := br.Peek(len(frontMatterDelim))
	if string(peek) != frontMatterDelim {
		return nil, nil
	}
	if _, err := br.ReadString('\n'); err != nil {
		return nil, errors.New("unterminated front matter")
	}
	var buf bytes.Buffer
	for {
		line, err := br.ReadString('\n')
		if strings.TrimRight(line, "\r\n") == frontMatterDelim {
			break
		}
		if err != nil {
			return nil, errors.New("unterminated front matter")
		}
		buf.WriteString(line)
	}
	var md metadata.Metadata
	if err := yaml.Unmarshal(buf.Bytes(), &md); err != nil {
		return nil, errors.Wrap(err, "front matter")
	}
	return md, nil
}
