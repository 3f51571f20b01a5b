// Copyright 2026 The Boxfish Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runfile reads run descriptors from disk.
//
// A run descriptor is a YAML file. Every top-level key other than
// "files" is run metadata. "files" lists the tables and projections of
// the run:
//
//	hardware:
//	  coords: [x, y, z]
//	  dim: {x: 4, y: 4, z: 4}
//	files:
//	  - filetype: table
//	    filename: nodes.csv
//	    domain: torus
//	    type: node
//	    field: nid
//	  - filetype: projection
//	    filename: placement.csv
//	    type: file
//	    subdomain:
//	      - {domain: app, type: rank, field: rank}
//	      - {domain: torus, type: node, field: nid}
//
// File names are relative to the descriptor. Table and join table
// files are CSV with a header row, optionally preceded by a block of
// YAML metadata between two "---" lines. The metadata of an item is
// the file's metadata overridden by the descriptor entry.
package runfile

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kevinabrown/boxfish/datatree"
	"github.com/kevinabrown/boxfish/errors"
	"github.com/kevinabrown/boxfish/metadata"
)

// filesKey is the descriptor key listing the run's files.
const filesKey = "files"

// A Run is a parsed run descriptor with its files loaded.
type Run struct {
	// Name is the base name of the descriptor file.
	Name string

	// Dir is the directory file names are relative to.
	Dir string

	Metadata    metadata.Metadata
	Tables      []datatree.TableSpec
	Projections []datatree.ProjectionSpec
}

type entry struct {
	FileType  string          `mapstructure:"filetype"`
	FileName  string          `mapstructure:"filename"`
	Domain    string          `mapstructure:"domain"`
	Type      string          `mapstructure:"type"`
	Field     string          `mapstructure:"field"`
	Subdomain []subdomainSpec `mapstructure:"subdomain"`
}

type subdomainSpec struct {
	Domain string `mapstructure:"domain"`
	Type   string `mapstructure:"type"`
	Field  string `mapstructure:"field"`
}

// Load reads the run descriptor at path and every file it lists.
func Load(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading run descriptor")
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}

	r := &Run{
		Name:     filepath.Base(path),
		Dir:      filepath.Dir(path),
		Metadata: make(metadata.Metadata),
	}
	for k, v := range doc {
		if k != filesKey {
			r.Metadata[k] = v
		}
	}

	files, _ := doc[filesKey].([]any)
	for i, f := range files {
		raw, ok := f.(map[string]any)
		if !ok {
			return nil, errors.Newf("%s: files[%d] is not a mapping", path, i)
		}
		var e entry
		if err := metadata.Decode(raw, &e); err != nil {
			return nil, errors.Wrapf(err, "%s: files[%d]", path, i)
		}
		if err := r.add(e, raw); err != nil {
			return nil, errors.Wrapf(err, "%s: files[%d]", path, i)
		}
	}
	return r, nil
}

func (r *Run) add(e entry, raw map[string]any) error {
	switch strings.ToUpper(e.FileType) {
	case "TABLE":
		md, data, err := ReadTable(filepath.Join(r.Dir, e.FileName))
		if err != nil {
			return err
		}
		r.Tables = append(r.Tables, datatree.TableSpec{
			Name:     e.FileName,
			Domain:   e.Domain,
			Type:     e.Type,
			Field:    e.Field,
			Metadata: metadata.Merge(md, raw),
			Data:     data,
		})

	case "PROJECTION":
		spec := datatree.ProjectionSpec{
			Type:     e.Type,
			Metadata: metadata.Merge(raw),
		}
		for _, sd := range e.Subdomain {
			spec.Subdomains = append(spec.Subdomains, datatree.SubdomainSpec{
				Domain: sd.Domain,
				Type:   sd.Type,
				Field:  sd.Field,
			})
		}
		if strings.EqualFold(e.Type, datatree.FileProjection) {
			md, data, err := ReadTable(filepath.Join(r.Dir, e.FileName))
			if err != nil {
				return err
			}
			spec.Metadata = metadata.Merge(md, raw)
			spec.Data = data
		}
		r.Projections = append(r.Projections, spec)

	default:
		return errors.Newf("unknown filetype %q", e.FileType)
	}
	return nil
}

// Insert adds r to tree.
func (r *Run) Insert(tree *datatree.Tree) (datatree.Handle, *datatree.LoadReport, error) {
	return tree.InsertRun(r.Name, r.Metadata, r.Tables, r.Projections)
}
