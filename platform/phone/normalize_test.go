package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		name   string
		input  string
		region string
		want   string
	}{
		{name: "national US", input: "(202) 456-1111", region: "US", want: "+12024561111"},
		{name: "international prefix", input: "+33 1 42 68 53 00", region: "US", want: "+33142685300"},
		{name: "default region", input: "202-456-1111", region: "", want: "+12024561111"},
		{name: "unknown region falls back", input: "202-456-1111", region: "ZZ", want: "+12024561111"},
		{name: "tel uri", input: "tel:+44 20 7219 3000", region: "US", want: "+442072193000"},
		{name: "double zero prefix", input: "0033 1 42 68 53 00", region: "US", want: "+33142685300"},
		{name: "lower case region", input: "020 7219 3000", region: "gb", want: "+442072193000"},
		{name: "garbage kept", input: "  call me  ", region: "US", want: "call me"},
		{name: "empty", input: "   ", region: "US", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeE164(tc.input, tc.region); got != tc.want {
				t.Fatalf("NormalizeE164(%q, %q) = %q, want %q", tc.input, tc.region, got, tc.want)
			}
		})
	}
}
