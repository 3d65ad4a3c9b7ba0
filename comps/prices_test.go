package comps

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1,249.99", 1249.99, true},
		{" 85 ", 85, true},
		{"0", 0, false},
		{"-5", 0, false},
		{"1.2.3", 0, false},
		{"Inf", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParsePrice(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParsePrice(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLoosePrice(t *testing.T) {
	if got, ok := LoosePrice("US $1,085.50"); !ok || got != 1085.5 {
		t.Errorf("LoosePrice = %v, %v", got, ok)
	}
	if _, ok := LoosePrice("free"); ok {
		t.Error("LoosePrice(free) should fail")
	}
}

func TestCurrencyPrices(t *testing.T) {
	got := CurrencyPrices("was $0.00 now $45.00, shipping $12 and $1,200.50", 10)
	want := []float64{45, 12, 1200.5}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CurrencyPrices mismatch (-want +got):\n%s", diff)
	}
	if got := CurrencyPrices("$1 $2 $3", 2); len(got) != 2 {
		t.Errorf("cap ignored: %v", got)
	}
}

func TestExtractPricesSelectorOrder(t *testing.T) {
	tests := []struct {
		name string
		html string
		want []float64
	}{
		{
			name: "approx price selector",
			html: `<div><span class="x-price-approx__price">$310.00</span><span>$5.00</span></div>`,
			want: []float64{310},
		},
		{
			name: "itemprop selector",
			html: `<div><span itemprop="price" content="99">US $99.00</span></div>`,
			want: []float64{99},
		},
		{
			name: "page-wide currency scan",
			html: `<div><p>Sold for $75.00</p><p>Sold for $125.00</p><script>var p="$9999";</script></div>`,
			want: []float64{75, 125},
		},
		{
			name: "no prices",
			html: `<div>nothing sold</div>`,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(tt.html))
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, ExtractPrices(doc, 15)); diff != "" {
				t.Errorf("ExtractPrices mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
