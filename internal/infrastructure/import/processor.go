package csvimport

import (
	"context"
	"io"
)

// Processing limits applied when no option overrides them.
const (
	defaultMaxFileSize = 10 * 1024 * 1024
	defaultMaxRows     = 100000
	defaultMaxErrors   = 100
	defaultPreviewRows = 5
)

// ImportProcessor runs the validation pass over an uploaded CSV file.
// Reference and uniqueness lookups are optional; without them only
// field rules are applied.
type ImportProcessor struct {
	maxFileSize     int64
	maxRows         int
	maxErrors       int
	previewRows     int
	referenceLookup func(refType, value string) (bool, error)
	uniqueLookup    func(entityType, field, value string) (bool, error)
}

// ProcessorOption configures an ImportProcessor.
type ProcessorOption func(*ImportProcessor)

// WithMaxFileSize caps the accepted upload size in bytes.
func WithMaxFileSize(size int64) ProcessorOption {
	return func(p *ImportProcessor) { p.maxFileSize = size }
}

// WithMaxRows caps the number of data rows processed per file.
func WithMaxRows(rows int) ProcessorOption {
	return func(p *ImportProcessor) { p.maxRows = rows }
}

// WithMaxErrors caps how many row errors are retained in detail.
func WithMaxErrors(errors int) ProcessorOption {
	return func(p *ImportProcessor) { p.maxErrors = errors }
}

// WithPreviewRows sets how many valid rows are echoed back as a preview.
func WithPreviewRows(rows int) ProcessorOption {
	return func(p *ImportProcessor) { p.previewRows = rows }
}

// WithReferenceLookup supplies the resolver for columns declared with
// a Reference rule.
func WithReferenceLookup(fn func(refType, value string) (bool, error)) ProcessorOption {
	return func(p *ImportProcessor) { p.referenceLookup = fn }
}

// WithUniqueLookup supplies the existence check for columns declared Unique,
// guarding against rows that already exist in the database.
func WithUniqueLookup(fn func(entityType, field, value string) (bool, error)) ProcessorOption {
	return func(p *ImportProcessor) { p.uniqueLookup = fn }
}

// NewImportProcessor creates a processor with default limits.
func NewImportProcessor(opts ...ProcessorOption) *ImportProcessor {
	p := &ImportProcessor{
		maxFileSize: defaultMaxFileSize,
		maxRows:     defaultMaxRows,
		maxErrors:   defaultMaxErrors,
		previewRows: defaultPreviewRows,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// rowCheck bundles the validators for one validation pass.
type rowCheck struct {
	rules  []FieldRule
	entity EntityType
	field  *FieldValidator
	ref    *ReferenceValidator
	unique *UniquenessValidator
}

func (p *ImportProcessor) newRowCheck(rules []FieldRule, entity EntityType) *rowCheck {
	c := &rowCheck{
		rules:  rules,
		entity: entity,
		field:  NewFieldValidator(rules, p.maxErrors),
	}
	if p.referenceLookup != nil {
		c.ref = NewReferenceValidator(p.referenceLookup, p.maxErrors)
	}
	if p.uniqueLookup != nil {
		c.unique = NewUniquenessValidator(p.uniqueLookup, p.maxErrors)
	}
	return c
}

// pass reports whether the row cleared field, reference and uniqueness
// validation. Failures land in the validators' collections.
func (c *rowCheck) pass(row *Row) bool {
	ok := c.field.ValidateRow(row)
	for _, rule := range c.rules {
		if c.ref != nil && rule.Reference != "" {
			if !c.ref.ValidateReference(row.LineNumber, rule.Column, rule.Reference, row.Get(rule.Column)) {
				ok = false
			}
		}
		if c.unique != nil && rule.Unique {
			if !c.unique.ValidateUnique(row.LineNumber, rule.Column, string(c.entity), row.Get(rule.Column)) {
				ok = false
			}
		}
	}
	return ok
}

func (c *rowCheck) drainInto(dst *ErrorCollection) {
	for _, e := range c.field.Errors().Errors() {
		dst.Add(e)
	}
	if c.ref != nil {
		for _, e := range c.ref.Errors().Errors() {
			dst.Add(e)
		}
	}
	if c.unique != nil {
		for _, e := range c.unique.Errors().Errors() {
			dst.Add(e)
		}
	}
}

// Validate checks every row of the file against the rules without writing
// anything. The session ends in StateValidated, StateFailed or
// StateCancelled, with counts and errors attached.
func (p *ImportProcessor) Validate(ctx context.Context, session *ImportSession, reader io.Reader, rules []FieldRule) (*ValidationResult, error) {
	session.UpdateState(StateValidating)

	if p.maxFileSize > 0 && session.FileSize > p.maxFileSize {
		session.UpdateState(StateFailed)
		return nil, ErrFileTooLarge
	}

	parser, err := NewCSVParser(reader)
	if err != nil {
		session.UpdateState(StateFailed)
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		session.UpdateState(StateFailed)
		return nil, err
	}

	check := p.newRowCheck(rules, session.EntityType)
	parseErrors := NewErrorCollection(p.maxErrors)
	result := NewValidationResult(session.ID.String())

	var total, valid, bad int
	for {
		select {
		case <-ctx.Done():
			session.UpdateState(StateCancelled)
			return nil, ctx.Err()
		default:
		}

		row, err := parser.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			parseErrors.Add(NewRowError(parser.CurrentRow(), "", ErrCodeImportCSVParsing, err.Error()))
			bad++
			continue
		}
		if row.IsEmpty() {
			continue
		}

		total++
		if total > p.maxRows {
			parseErrors.Add(NewRowError(row.LineNumber, "", ErrCodeImportValidation,
				"exceeded maximum number of rows"))
			break
		}

		if !check.pass(row) {
			bad++
			continue
		}
		valid++
		if len(result.Preview) < p.previewRows {
			result.AddPreview(row.Values())
		}
	}

	all := NewErrorCollection(p.maxErrors)
	for _, e := range parseErrors.Errors() {
		all.Add(e)
	}
	check.drainInto(all)

	result.SetCounts(total, valid, bad)
	result.SetErrors(all)

	session.SetValidationResult(result)
	if bad > 0 {
		session.UpdateState(StateFailed)
	} else {
		session.UpdateState(StateValidated)
	}
	return result, nil
}
