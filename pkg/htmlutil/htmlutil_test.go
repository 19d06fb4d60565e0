package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestDigitsOnly(t *testing.T) {
	testCases := []struct {
		in    string
		count int64
		ok    bool
	}{
		{in: "9,123,456 images", count: 9123456, ok: true},
		{in: "1.234 Ergebnisse", count: 1234, ok: true},
		{in: "0 results", count: 0, ok: true},
		{in: "  42\n", count: 42, ok: true},
		{in: "no results found", ok: false},
		{in: "", ok: false},
		{in: "99999999999999999999999", ok: false},
	}

	for _, test := range testCases {
		t.Run(test.in, func(t *testing.T) {
			count, ok := DigitsOnly(test.in)
			require.Equal(t, test.ok, ok)
			require.Equal(t, test.count, count)
		})
	}
}

func TestSelectionTexts(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<div>
			<span class="count">  1,234
				<b>images</b></span>
			<script>var x = 1;</script>
			<span class="count">5 photos</span>
		</div>`))
	require.NoError(t, err)

	require.Equal(t, []string{"1,234 images", "5 photos"}, SelectionTexts(doc.Find(".count")))
	require.NotContains(t, GetText(doc.Find("div").Nodes[0]), "var x")
}
