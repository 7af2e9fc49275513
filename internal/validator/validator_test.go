package validator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/flashcards/internal/card"
)

func TestCard(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name      string
		card      card.Card
		wantField string
	}{
		{name: "valid", card: card.Card{UnknownWord: "Hund", KnownWord: "dog"}},
		{name: "blank unknown", card: card.Card{UnknownWord: "  ", KnownWord: "dog"}, wantField: "unknown_word"},
		{name: "empty known", card: card.Card{UnknownWord: "Hund"}, wantField: "known_word"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Card(tt.card)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			ve, ok := AsValidationError(err)
			require.True(t, ok, "expected ValidationError, got %v", err)
			assert.Equal(t, tt.wantField, ve.Field)
			assert.Equal(t, ReasonBlank, ve.Reason)
		})
	}
}

func TestListName(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ListName("German"))

	ve, ok := AsValidationError(v.ListName("\t"))
	require.True(t, ok)
	assert.Equal(t, "name", ve.Field)
	assert.Equal(t, "name must not be blank", ve.Error())
}

func TestDuplicate(t *testing.T) {
	err := fmt.Errorf("creating list: %w", Duplicate("name"))

	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, ReasonDuplicate, ve.Reason)
	assert.Equal(t, "name already exists", ve.Error())
}

func TestAsValidationErrorOther(t *testing.T) {
	_, ok := AsValidationError(fmt.Errorf("boom"))
	assert.False(t, ok)
}
