package customer

import (
	"testing"

	"github.com/storefront/admin/internal/apperr"
)

func TestNew(t *testing.T) {
	c, err := New(Input{Name: " John ", Email: " John@Example.com "})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if c.Name != "John" || c.Email != "john@example.com" {
		t.Fatalf("unexpected customer %+v", c)
	}

	for _, in := range []Input{{Email: "a@example.com"}, {Name: "A", Email: "nope"}, {Name: "A", Email: "A <a@example.com>"}} {
		if _, err := New(in); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("%+v: expected validation error, got %v", in, err)
		}
	}
}
