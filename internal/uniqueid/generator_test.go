package uniqueid

import (
	"fmt"
	"testing"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/attr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniqueDef() Definition {
	return Definition{
		Name:         "uniqueID",
		Expression:   "{{first .givenName 1}}{{.familyName}}",
		Type:         TypeUnique,
		Case:         CaseLower,
		Normalize:    true,
		RemoveSpaces: true,
	}
}

func johnDoe() attr.Attributes {
	return attr.Attributes{
		"givenName":  attr.String("John"),
		"familyName": attr.String("Doe"),
	}
}

func TestGenerateNoCollision(t *testing.T) {
	gen, err := NewGenerator(uniqueDef(), nil)
	require.NoError(t, err)

	id, err := gen.Generate(johnDoe(), nil)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", id)
}

func TestGenerateResolvesCollisions(t *testing.T) {
	gen, err := NewGenerator(uniqueDef(), []string{"jdoe"})
	require.NoError(t, err)

	first, err := gen.Generate(johnDoe(), nil)
	require.NoError(t, err)
	assert.Equal(t, "jdoe1", first)

	second, err := gen.Generate(johnDoe(), nil)
	require.NoError(t, err)
	assert.Equal(t, "jdoe2", second)
}

func TestGenerateUsesMaxCounterNotFirstFreeSlot(t *testing.T) {
	existing := make([]string, 0, 100001)
	existing = append(existing, "jdoe")
	for i := 1; i <= 100000; i++ {
		existing = append(existing, fmt.Sprintf("jdoe%d", i))
	}

	gen, err := NewGenerator(uniqueDef(), existing)
	require.NoError(t, err)

	id, err := gen.Generate(johnDoe(), nil)
	require.NoError(t, err)
	assert.Equal(t, "jdoe100001", id)

	// Subsequent generations against the same base hit the counter cache.
	next, err := gen.Generate(johnDoe(), nil)
	require.NoError(t, err)
	assert.Equal(t, "jdoe100002", next)
}

func TestGenerateNeverReturnsExistingValue(t *testing.T) {
	existing := []string{"jdoe", "jdoe1", "jdoe2", "jdoe7"}
	gen, err := NewGenerator(uniqueDef(), existing)
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for _, v := range existing {
		seen[v] = struct{}{}
	}

	for i := 0; i < 10; i++ {
		id, err := gen.Generate(johnDoe(), nil)
		require.NoError(t, err)
		_, dup := seen[id]
		assert.False(t, dup, "generated duplicate %q", id)
		seen[id] = struct{}{}
	}
}

func TestGenerateZeroPadsCounter(t *testing.T) {
	def := uniqueDef()
	def.Digits = 3
	gen, err := NewGenerator(def, []string{"jdoe"})
	require.NoError(t, err)

	id, err := gen.Generate(johnDoe(), nil)
	require.NoError(t, err)
	assert.Equal(t, "jdoe001", id)
}

func TestGenerateTransliteratesAndStripsSpaces(t *testing.T) {
	gen, err := NewGenerator(uniqueDef(), nil)
	require.NoError(t, err)

	id, err := gen.Generate(attr.Attributes{
		"givenName":  attr.String("Sören"),
		"familyName": attr.String("O'Brien Møller"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "sobrienmoller", id)
}

func TestGenerateEmptyTemplateFails(t *testing.T) {
	gen, err := NewGenerator(uniqueDef(), nil)
	require.NoError(t, err)

	_, err = gen.Generate(attr.Attributes{}, nil)
	require.Error(t, err)

	var tplErr *TemplateError
	require.ErrorAs(t, err, &tplErr)
	assert.Equal(t, "uniqueID", tplErr.Attribute)
}

func TestGenerateContextOverridesAccount(t *testing.T) {
	gen, err := NewGenerator(uniqueDef(), nil)
	require.NoError(t, err)

	id, err := gen.Generate(johnDoe(), attr.Attributes{
		"familyName": attr.String("Smith"),
	})
	require.NoError(t, err)
	assert.Equal(t, "jsmith", id)
}

func TestGenerateMaxLengthTruncatesBase(t *testing.T) {
	def := uniqueDef()
	def.MaxLength = 3
	gen, err := NewGenerator(def, []string{"jdo"})
	require.NoError(t, err)

	id, err := gen.Generate(johnDoe(), nil)
	require.NoError(t, err)
	assert.Equal(t, "jdo1", id)
}

func TestGenerateCounterTemplatePlacement(t *testing.T) {
	def := Definition{
		Name:       "accountName",
		Expression: "{{.counter}}{{.familyName}}",
		Type:       TypeUnique,
		Case:       CaseLower,
	}
	gen, err := NewGenerator(def, []string{"doe"})
	require.NoError(t, err)

	id, err := gen.Generate(johnDoe(), nil)
	require.NoError(t, err)
	assert.Equal(t, "1doe", id)
}

func TestUUIDType(t *testing.T) {
	gen, err := NewGenerator(Definition{Name: "externalId", Type: TypeUUID}, nil)
	require.NoError(t, err)

	a, err := gen.Generate(nil, nil)
	require.NoError(t, err)
	b, err := gen.Generate(nil, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}

func TestCounterType(t *testing.T) {
	gen, err := NewGenerator(Definition{Name: "seq", Type: TypeCounter, Digits: 4}, []string{"0007"})
	require.NoError(t, err)

	v, err := gen.Generate(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "0008", v)
}

func TestDefinitionValidate(t *testing.T) {
	tests := []struct {
		name    string
		def     Definition
		wantErr bool
	}{
		{"valid unique", uniqueDef(), false},
		{"missing name", Definition{Type: TypeUnique, Expression: "{{.x}}"}, true},
		{"missing expression", Definition{Name: "x", Type: TypeUnique}, true},
		{"unknown type", Definition{Name: "x", Type: "random"}, true},
		{"uuid needs no expression", Definition{Name: "x", Type: TypeUUID}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
