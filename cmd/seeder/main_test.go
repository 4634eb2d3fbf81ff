package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCorrections(t *testing.T) {
	input := `product,original,new,category,reason
Mjölk,2024-01-08,2024-01-11,mejeri,höll längre
Lax,2024-01-03,2024-01-02
,2024-01-03,2024-01-04,fisk,
Banan,igår,2024-01-04,frukt,
"Bröd, fullkorn",2024-02-01,2024-02-04,bröd,"frös in, höll"
`
	corrections, skipped, err := parseCorrections(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, corrections, 3)

	assert.Equal(t, Correction{
		Product:  "Mjölk",
		Original: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		New:      time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC),
		Category: "mejeri",
		Reason:   "höll längre",
	}, corrections[0])

	assert.Equal(t, "Lax", corrections[1].Product)
	assert.Empty(t, corrections[1].Category)

	assert.Equal(t, "Bröd, fullkorn", corrections[2].Product)
	assert.Equal(t, "frös in, höll", corrections[2].Reason)
}

func TestParseCorrections_NoHeader(t *testing.T) {
	corrections, skipped, err := parseCorrections(strings.NewReader("Ost,2024-01-01,2024-01-15\n"))
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, corrections, 1)
}
