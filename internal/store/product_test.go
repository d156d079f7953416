package store

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// productRow feeds scanProduct the columns listed in productColumns.
type productRow struct {
	sizes      []byte
	sizePrices []byte
	err        error
}

func (r productRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int) = 7
	*dest[1].(*string) = "Shirt"
	*dest[2].(*string) = "Cotton"
	*dest[3].(*float64) = 10
	*dest[4].(*string) = ""
	*dest[5].(*int) = 3
	*dest[6].(*string) = "Fashion"
	*dest[7].(*string) = ""
	*dest[8].(*string) = ""
	*dest[9].(*[]byte) = r.sizes
	*dest[10].(*[]byte) = r.sizePrices
	*dest[11].(*bool) = false
	*dest[12].(*time.Time) = time.Unix(0, 0)
	*dest[13].(*time.Time) = time.Unix(0, 0)
	return nil
}

func TestScanProduct(t *testing.T) {
	product, err := scanProduct(productRow{sizes: []byte(`["S","M"]`), sizePrices: []byte(`{"M":12.5}`)})
	require.NoError(t, err)
	assert.Equal(t, 7, product.ID)
	assert.Equal(t, []string{"S", "M"}, product.Sizes)
	assert.Equal(t, map[string]float64{"M": 12.5}, product.SizePrices)
}

func TestScanProductRejectsCorruptJSON(t *testing.T) {
	_, err := scanProduct(productRow{sizes: []byte(`["S"`), sizePrices: []byte(`{}`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode sizes of product 7")

	_, err = scanProduct(productRow{sizes: []byte(`[]`), sizePrices: []byte(`{"M":"cheap"}`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode size prices of product 7")
}

func TestScanProductNoRows(t *testing.T) {
	_, err := scanProduct(productRow{err: sql.ErrNoRows})
	assert.ErrorIs(t, err, ErrNotFound)

	boom := errors.New("boom")
	_, err = scanProduct(productRow{err: boom})
	assert.ErrorIs(t, err, boom)
}
