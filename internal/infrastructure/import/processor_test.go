package csvimport

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validateCSV(t *testing.T, p *ImportProcessor, entity EntityType, csv string, rules []FieldRule) (*ValidationResult, *ImportSession) {
	t.Helper()
	session := NewImportSession(entity, "upload.csv", int64(len(csv)))
	result, err := p.Validate(context.Background(), session, strings.NewReader(csv), rules)
	require.NoError(t, err)
	return result, session
}

func TestImportProcessor_Validate(t *testing.T) {
	t.Run("clean file validates every row", func(t *testing.T) {
		rules := []FieldRule{
			Field("code").Required().String().MaxLength(50).Build(),
			Field("name").Required().String().MaxLength(200).Build(),
			Field("category").Required().String().MaxLength(100).Build(),
		}
		csv := "code,name,category\nSKU-001,Widget,Electronics\nSKU-002,Gadget,Electronics\nSKU-003,Gizmo,Home"

		result, session := validateCSV(t, NewImportProcessor(), EntityProducts, csv, rules)

		assert.Equal(t, 3, result.TotalRows)
		assert.Equal(t, 3, result.ValidRows)
		assert.Equal(t, 0, result.ErrorRows)
		assert.True(t, result.IsValid())
		assert.Equal(t, StateValidated, session.State)
	})

	t.Run("missing required fields fail their rows", func(t *testing.T) {
		rules := []FieldRule{
			Field("code").Required().Build(),
			Field("name").Required().Build(),
			Field("category").Required().Build(),
		}
		csv := "code,name,category\nSKU-001,Widget,Electronics\n,Gadget,Electronics\nSKU-003,,Home"

		result, session := validateCSV(t, NewImportProcessor(), EntityProducts, csv, rules)

		assert.Equal(t, 3, result.TotalRows)
		assert.Equal(t, 1, result.ValidRows)
		assert.Equal(t, 2, result.ErrorRows)
		assert.False(t, result.IsValid())
		assert.GreaterOrEqual(t, len(result.Errors), 2)
		assert.Equal(t, StateFailed, session.State)
	})

	t.Run("preview holds the first valid rows", func(t *testing.T) {
		rules := []FieldRule{
			Field("code").Build(),
			Field("name").Build(),
		}
		csv := "code,name\nSKU-001,A\nSKU-002,B\nSKU-003,C\nSKU-004,D\nSKU-005,E"

		result, _ := validateCSV(t, NewImportProcessor(WithPreviewRows(3)), EntityProducts, csv, rules)

		require.Len(t, result.Preview, 3)
		assert.Equal(t, "SKU-001", result.Preview[0]["code"])
		assert.Equal(t, "SKU-002", result.Preview[1]["code"])
		assert.Equal(t, "SKU-003", result.Preview[2]["code"])
	})

	t.Run("unresolved references fail their rows", func(t *testing.T) {
		processor := NewImportProcessor(WithReferenceLookup(func(refType, value string) (bool, error) {
			return value == "SKU-001", nil
		}))
		rules := []FieldRule{
			Field("product_code").Required().Reference("product").Build(),
			Field("current_stock").Required().Build(),
		}
		csv := "product_code,current_stock\nSKU-001,10\nSKU-999,20"

		result, _ := validateCSV(t, processor, EntityInventory, csv, rules)

		assert.Equal(t, 1, result.ErrorRows)
	})

	t.Run("values already in the database fail their rows", func(t *testing.T) {
		processor := NewImportProcessor(WithUniqueLookup(func(entityType, field, value string) (bool, error) {
			return value == "EXISTING", nil
		}))
		rules := []FieldRule{
			Field("code").Required().Unique().Build(),
			Field("name").Required().Build(),
		}
		csv := "code,name\nNEW,Widget\nEXISTING,Gadget"

		result, _ := validateCSV(t, processor, EntityProducts, csv, rules)

		assert.Equal(t, 1, result.ErrorRows)
	})

	t.Run("oversized upload is rejected up front", func(t *testing.T) {
		processor := NewImportProcessor(WithMaxFileSize(16))
		session := NewImportSession(EntityProducts, "upload.csv", 1024)

		_, err := processor.Validate(context.Background(), session, strings.NewReader("code\nSKU-001"), nil)

		assert.ErrorIs(t, err, ErrFileTooLarge)
		assert.Equal(t, StateFailed, session.State)
	})

	t.Run("row cap stops processing", func(t *testing.T) {
		processor := NewImportProcessor(WithMaxRows(2))
		rules := []FieldRule{Field("code").Build()}
		csv := "code\nSKU-001\nSKU-002\nSKU-003"

		result, _ := validateCSV(t, processor, EntityProducts, csv, rules)

		assert.Equal(t, 3, result.TotalRows)
		assert.Equal(t, 2, result.ValidRows)
		assert.GreaterOrEqual(t, len(result.Errors), 1)
	})

	t.Run("cancellation aborts the pass", func(t *testing.T) {
		processor := NewImportProcessor()
		session := NewImportSession(EntityProducts, "upload.csv", 1024)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := processor.Validate(ctx, session, strings.NewReader("code,name\nSKU-001,Widget"), []FieldRule{Field("code").Build()})

		assert.Error(t, err)
		assert.Equal(t, StateCancelled, session.State)
	})

	t.Run("empty rows are skipped silently", func(t *testing.T) {
		rules := []FieldRule{Field("code").Required().Build()}
		csv := "code,name\nSKU-001,Widget\n,\nSKU-002,Gadget"

		result, _ := validateCSV(t, NewImportProcessor(), EntityProducts, csv, rules)

		assert.Equal(t, 2, result.TotalRows)
		assert.Equal(t, 2, result.ValidRows)
	})
}
