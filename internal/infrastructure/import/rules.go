package csvimport

import "github.com/shopspring/decimal"

// FieldType represents the expected type of a field
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInt     FieldType = "int"
	TypeDecimal FieldType = "decimal"
	TypeDate    FieldType = "date"
	TypeBool    FieldType = "bool"
)

// FieldRule defines the validation applied to one CSV column
type FieldRule struct {
	Column     string
	Type       FieldType
	Required   bool
	MinLength  int
	MaxLength  int
	MinValue   *decimal.Decimal
	MaxValue   *decimal.Decimal
	DateFormat string
	Unique     bool
	Reference  string // referenced entity kind, e.g. "product"
	CustomFunc func(value string) error
}

// FieldRuleBuilder builds field rules fluently
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field starts a rule for the named column. The type defaults to string
// and dates to the 2006-01-02 layout.
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{rule: FieldRule{
		Column:     column,
		Type:       TypeString,
		DateFormat: "2006-01-02",
	}}
}

func (b *FieldRuleBuilder) Required() *FieldRuleBuilder { b.rule.Required = true; return b }

func (b *FieldRuleBuilder) String() *FieldRuleBuilder  { b.rule.Type = TypeString; return b }
func (b *FieldRuleBuilder) Int() *FieldRuleBuilder     { b.rule.Type = TypeInt; return b }
func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder { b.rule.Type = TypeDecimal; return b }
func (b *FieldRuleBuilder) Date() *FieldRuleBuilder    { b.rule.Type = TypeDate; return b }
func (b *FieldRuleBuilder) Bool() *FieldRuleBuilder    { b.rule.Type = TypeBool; return b }

// DateFormat overrides the expected date layout
func (b *FieldRuleBuilder) DateFormat(format string) *FieldRuleBuilder {
	b.rule.DateFormat = format
	return b
}

func (b *FieldRuleBuilder) MinLength(n int) *FieldRuleBuilder { b.rule.MinLength = n; return b }
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder { b.rule.MaxLength = n; return b }

func (b *FieldRuleBuilder) MinValue(v decimal.Decimal) *FieldRuleBuilder {
	b.rule.MinValue = &v
	return b
}

func (b *FieldRuleBuilder) MaxValue(v decimal.Decimal) *FieldRuleBuilder {
	b.rule.MaxValue = &v
	return b
}

// Unique marks the field as unique within the file and, when the processor
// has a uniqueness lookup, against existing rows
func (b *FieldRuleBuilder) Unique() *FieldRuleBuilder { b.rule.Unique = true; return b }

// Reference names the entity kind this column must resolve against
func (b *FieldRuleBuilder) Reference(refType string) *FieldRuleBuilder {
	b.rule.Reference = refType
	return b
}

// Custom sets a custom validation function
func (b *FieldRuleBuilder) Custom(fn func(value string) error) *FieldRuleBuilder {
	b.rule.CustomFunc = fn
	return b
}

// Build returns the built field rule
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}
