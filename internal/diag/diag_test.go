package diag

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protoval/protoval/internal/schema"
)

func TestCollector_Ordering(t *testing.T) {
	c := NewCollector()
	c.Error(NewError(2001, "second", schema.Span{File: "b.proto", Line: 1, Column: 1}))
	c.Error(NewError(1001, "first", schema.Span{File: "a.proto", Line: 10, Column: 3}))
	c.Error(NewError(1004, "same span, larger code", schema.Span{File: "a.proto", Line: 2, Column: 5}))
	c.Error(NewError(1003, "same span", schema.Span{File: "a.proto", Line: 2, Column: 5}))

	errs := c.Errors()
	require.Len(t, errs, 4)
	assert.Equal(t, []uint32{1003, 1004, 1001, 2001}, []uint32{errs[0].Code(), errs[1].Code(), errs[2].Code(), errs[3].Code()})
}

func TestCollector_HasErrorsIn(t *testing.T) {
	c := NewCollector()
	c.Warn(NewWarning(4001, "advisory", schema.Span{File: "a.proto"}))
	assert.False(t, c.HasErrors())
	assert.False(t, c.HasErrorsIn("a.proto"))

	c.Error(NewError(1001, "bad", schema.Span{File: "b.proto"}))
	assert.True(t, c.HasErrors())
	assert.False(t, c.HasErrorsIn("a.proto"))
	assert.True(t, c.HasErrorsIn("b.proto"))
}

func TestCollector_Concurrent(t *testing.T) {
	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Error(NewError(1001, "e", schema.Span{File: "x.proto", Line: i + 1}))
			c.Warn(NewWarning(4001, "w", schema.Span{File: "x.proto", Line: i + 1}))
		}(i)
	}
	wg.Wait()
	assert.Len(t, c.Errors(), 50)
	assert.Len(t, c.Warnings(), 50)
	assert.Equal(t, 1, c.Errors()[0].Span().Line)
}

func TestFormat(t *testing.T) {
	c := NewCollector()
	c.Warn(NewWarning(4003, "never violates", schema.Span{File: "a.proto", Line: 4, Column: 2}))
	c.Error(NewError(1001, "unsupported", schema.Span{File: "a.proto", Line: 3, Column: 7}))

	var buf bytes.Buffer
	require.NoError(t, Format(&buf, c))
	assert.Equal(t, "a.proto:3:7: E1001: unsupported\na.proto:4:2: W4003: never violates\n", buf.String())
}

func TestSummary(t *testing.T) {
	c := NewCollector()
	assert.NoError(t, c.Summary())

	first := NewError(2005, "range order", schema.Span{File: "a.proto", Line: 1, Column: 1})
	c.Error(first)
	c.Error(NewError(2001, "literal", schema.Span{File: "a.proto", Line: 9, Column: 1}))

	err := c.Summary()
	require.Error(t, err)
	var de *Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, first, de)
	assert.Contains(t, err.Error(), "and 1 more errors")
}

func TestCategory(t *testing.T) {
	assert.Equal(t, Applicability, NewError(1012, "", schema.Span{}).Category())
	assert.Equal(t, Parse, NewError(2008, "", schema.Span{}).Category())
	assert.Equal(t, Template, NewError(3001, "", schema.Span{}).Category())
}
