package checkout

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptGolden(t *testing.T) {
	q, err := NewCalculator(catalog()).Quote(context.Background(), []Line{{1, 2}, {2, 1}})
	require.NoError(t, err)

	msg, err := Receipt("buyer@example.com", q)
	require.NoError(t, err)

	assert.Equal(t, "buyer@example.com", msg.To)
	assert.Equal(t, "Your EDEN Order Receipt", msg.Subject)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "receipt_text", []byte(msg.Text))
}

func TestReceiptHTMLEscapesTitles(t *testing.T) {
	q := &Quote{
		Lines:    []PricedLine{{ProductID: 1, Title: "<b>Pot</b>", Quantity: 1, UnitPrice: 500, LineTotal: 500}},
		Subtotal: 500, Tax: 60, Total: 560,
	}

	msg, err := Receipt("buyer@example.com", q)
	require.NoError(t, err)

	assert.Contains(t, msg.HTML, "&lt;b&gt;Pot&lt;/b&gt; &times; 1 &mdash; ₱5.00")
	assert.Contains(t, msg.HTML, "<strong>Total:</strong> ₱5.60")
	assert.Contains(t, msg.Text, "Tax (12%): ₱0.60")
}
