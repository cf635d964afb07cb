package jar

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	assert := assert.New(t)

	wrapped := fmt.Errorf("buying: %w", ErrInsufficientFunds)
	assert.True(errors.Is(wrapped, ErrInsufficientFunds))
	assert.False(errors.Is(wrapped, ErrNotOwned))
	assert.True(IsDomainError(wrapped))
	assert.False(IsValidationError(wrapped))

	verr := fmt.Errorf("adding item: %w", &ValidationError{Field: "price", Reason: "must be positive"})
	assert.True(IsValidationError(verr))
	assert.Equal("adding item: invalid price: must be positive", verr.Error())

	terr := Transient("saving user", errors.New("database is locked"))
	assert.True(errors.Is(terr, ErrTransient))
	assert.Nil(Transient("noop", nil))

	base := errors.New("missing permissions")
	eerr := &ExternalActionError{Op: "add-role", Err: base}
	assert.True(errors.Is(eerr, base))
}

func TestMessageEventValidate(t *testing.T) {
	assert := assert.New(t)

	evt := MessageEvent{AuthorID: "u1", ChannelID: "c1", Content: "hello"}
	assert.NoError(evt.Validate())

	evt.AuthorID = ""
	assert.True(IsValidationError(evt.Validate()))

	assert.Equal("<@u1>", Mention("u1"))
	assert.Equal("g1/u1", Subject{GuildID: "g1", UserID: "u1"}.String())
}
