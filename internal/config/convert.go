package config

import (
	"fmt"
	"strings"

	"jsonrows/internal/datasource"
	"jsonrows/internal/driver"
	"jsonrows/internal/schema"
	"jsonrows/internal/storage"
)

// Schema builds the column schema declared under parser.columns.
func (p Pipeline) Schema() (schema.Schema, error) {
	cols := make([]schema.Column, 0, len(p.Parser.Columns))
	for i, c := range p.Parser.Columns {
		typ, err := schema.ParseType(c.Type)
		if err != nil {
			return schema.Schema{}, fmt.Errorf("parser.columns[%d]: %w", i, err)
		}
		col := schema.Column{
			Name:     c.Name,
			Type:     typ,
			Format:   c.Format,
			Timezone: c.Timezone,
		}
		if c.Typecast != nil {
			b, ok := c.Typecast.(bool)
			if !ok {
				return schema.Schema{}, fmt.Errorf("parser.columns[%d]: typecast must be a bool, got %T", i, c.Typecast)
			}
			col.Typecast = &b
		}
		cols = append(cols, col)
	}
	return schema.New(cols)
}

// Task builds the driver task for the parser section.
func (p Pipeline) Task() (driver.Task, error) {
	s, err := p.Schema()
	if err != nil {
		return driver.Task{}, err
	}
	t := driver.NewTask(p.Parser.Root, s)
	if p.Parser.DefaultTypecast != nil {
		t.DefaultTypecast = *p.Parser.DefaultTypecast
	}
	t.StopOnInvalidRecord = p.Parser.StopOnInvalidRecord
	t.MultiDocument = p.Parser.MultiDocument
	if p.Parser.DefaultTimezone != "" {
		t.DefaultTimezone = p.Parser.DefaultTimezone
	}
	if p.Parser.DefaultTimestampFormat != "" {
		t.DefaultTimestampFormat = p.Parser.DefaultTimestampFormat
	}
	return t, nil
}

// SourceSpec builds the datasource spec for the source section.
func (p Pipeline) SourceSpec() (datasource.Spec, error) {
	s := p.Source
	timeout, err := s.HTTPTimeout()
	if err != nil {
		return datasource.Spec{}, fmt.Errorf("source.http.timeout: %w", err)
	}
	spec := datasource.Spec{
		Kind:          strings.ToLower(s.Kind),
		Headers:       s.HTTP.Headers,
		Timeout:       timeout,
		MaxRetries:    s.HTTP.MaxRetries,
		Compression:   s.Compression,
		Encoding:      s.Encoding,
		MaxChunkBytes: s.MaxChunkBytes,
	}
	switch spec.Kind {
	case datasource.KindFile:
		spec.Path = s.File.Path
	case datasource.KindList:
		spec.Path = s.List.Path
	case datasource.KindGlob:
		spec.Pattern = s.Glob.Pattern
	case datasource.KindHTTP:
		spec.URL = s.HTTP.URL
	}
	return spec, nil
}

// StorageConfig builds the backend config. The destination columns are the
// parser columns in declaration order.
func (p Pipeline) StorageConfig() (storage.Config, error) {
	s, err := p.Schema()
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Kind:    strings.ToLower(p.Storage.Kind),
		DSN:     p.Storage.DB.DSN,
		Table:   p.Storage.DB.Table,
		Columns: s.Names(),
		Schema:  s,
		Options: p.Storage.Options,
	}, nil
}
