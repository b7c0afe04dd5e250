package slug

import "testing"

func TestMake(t *testing.T) {
	cases := map[string]string{
		"Blue Shirt":          "blue-shirt",
		"Men's T-Shirt!":      "mens-t-shirt",
		"  Summer -- Sale  ":  "summer-sale",
		"Café Latte":     "caf-latte",
		"100% Cotton":         "100-cotton",
		"---":                 "",
		"Women’s Shoes":  "womens-shoes",
		"already-a-slug":      "already-a-slug",
	}
	for in, want := range cases {
		if got := Make(in); got != want {
			t.Errorf("Make(%q) = %q, want %q", in, got, want)
		}
	}
}
