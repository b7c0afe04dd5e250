package order

import (
	"testing"

	"github.com/storefront/admin/internal/apperr"
)

func validInput() CreateInput {
	return CreateInput{
		CustomerID: "c1",
		Items:      []Item{{ProductID: "p1", Name: "Lamp", Price: 10, Quantity: 2}},
		ShippingAddress: Address{
			Street: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701", Country: "US",
		},
		ShippingMethod: ShippingStandard,
	}
}

func TestCalculateTotals(t *testing.T) {
	cases := []struct {
		method ShippingMethod
		items  []Item
		want   Totals
	}{
		{ShippingStandard, []Item{{Price: 10, Quantity: 2}}, Totals{Subtotal: 20, ShippingCost: 5.99, Tax: 1.6, Total: 27.59}},
		{ShippingExpress, []Item{{Price: 19.99, Quantity: 3}}, Totals{Subtotal: 59.97, ShippingCost: 12.99, Tax: 4.8, Total: 77.76}},
		{ShippingOvernight, []Item{{Price: 0.1, Quantity: 3}, {Price: 0.2, Quantity: 1}}, Totals{Subtotal: 0.5, ShippingCost: 24.99, Tax: 0.04, Total: 25.53}},
	}
	for _, tc := range cases {
		got, err := CalculateTotals(tc.items, tc.method)
		if err != nil {
			t.Fatalf("%s: %v", tc.method, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %+v, got %+v", tc.method, tc.want, got)
		}
	}

	if _, err := CalculateTotals(nil, "drone"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown method, got %v", err)
	}
}

func TestNewOrder(t *testing.T) {
	o, err := NewOrder(validInput())
	if err != nil {
		t.Fatalf("new order: %v", err)
	}
	if o.Status != StatusPending || o.PaymentStatus != PaymentPending || o.TotalAmount != 27.59 {
		t.Fatalf("unexpected order %+v", o)
	}

	in := validInput()
	in.ShippingMethod = ""
	if o, err := NewOrder(in); err != nil || o.ShippingMethod != ShippingStandard {
		t.Fatalf("expected standard shipping by default, got %q (%v)", o.ShippingMethod, err)
	}
}

func TestNewOrderValidation(t *testing.T) {
	mutations := map[string]func(*CreateInput){
		"no customer":  func(in *CreateInput) { in.CustomerID = " " },
		"no items":     func(in *CreateInput) { in.Items = nil },
		"zero qty":     func(in *CreateInput) { in.Items[0].Quantity = 0 },
		"zero price":   func(in *CreateInput) { in.Items[0].Price = 0 },
		"no product":   func(in *CreateInput) { in.Items[0].ProductID = "" },
		"bad method":   func(in *CreateInput) { in.ShippingMethod = "teleport" },
		"missing city": func(in *CreateInput) { in.ShippingAddress.City = "" },
	}
	for name, mutate := range mutations {
		in := validInput()
		mutate(&in)
		if _, err := NewOrder(in); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestTransitions(t *testing.T) {
	allowed := map[Status][]Status{
		StatusPending:    {StatusProcessing, StatusCancelled},
		StatusProcessing: {StatusShipped, StatusCancelled},
		StatusShipped:    {StatusDelivered},
	}
	all := []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}
	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			if got := from.CanTransition(to); got != want {
				t.Fatalf("%s -> %s: expected %v, got %v", from, to, want, got)
			}
		}
	}
}

func TestTransitionKeepsTrackingNumber(t *testing.T) {
	o := Order{Status: StatusProcessing}
	shipped, err := o.Transition(StatusShipped, " 1Z999 ")
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if shipped.TrackingNumber != "1Z999" || o.Status != StatusProcessing {
		t.Fatalf("unexpected transition result %+v (original %+v)", shipped, o)
	}
	delivered, err := shipped.Transition(StatusDelivered, "")
	if err != nil || delivered.TrackingNumber != "1Z999" {
		t.Fatalf("expected tracking number kept, got %+v (%v)", delivered, err)
	}
	if _, err := delivered.Transition(StatusPending, ""); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected terminal status to reject transitions, got %v", err)
	}
}

func TestApplyShippingMethod(t *testing.T) {
	o, _ := NewOrder(validInput())
	express := ShippingExpress
	updated, err := o.Apply(UpdateInput{ShippingMethod: &express})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if updated.ShippingCost != 12.99 || updated.TotalAmount != 34.59 {
		t.Fatalf("expected repriced order, got %+v", updated)
	}

	o.Status = StatusShipped
	if _, err := o.Apply(UpdateInput{ShippingMethod: &express}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected shipping method change to be rejected after pending, got %v", err)
	}
}
