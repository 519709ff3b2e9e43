package orderdomain

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boniface/scylladb-cdc-sub001/internal/eventsourcing"
)

func TestDecideCreateProducesOrderCreated(t *testing.T) {
	events, err := Decide(Order{}, Command{Create: &CreateOrder{
		OrderID:    "U1",
		CustomerID: "U2",
		Items:      []LineItem{{ProductID: "U3", Quantity: 2}},
	}})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "OrderCreated", events[0].EventType())
	require.Equal(t, "U1", events[0].Created.OrderID)
}

func TestFullLifecycleAdvancesVersionEachStep(t *testing.T) {
	created, err := Decide(Order{}, Command{Create: &CreateOrder{OrderID: "U1", CustomerID: "U2"}})
	require.NoError(t, err)
	order, err := Construct(created[0])
	require.NoError(t, err)
	require.Equal(t, int64(1), order.Version())
	require.Equal(t, StatusCreated, order.Status())

	confirmed, err := Decide(order, Command{Confirm: &ConfirmOrder{}})
	require.NoError(t, err)
	order, err = Apply(order, confirmed[0])
	require.NoError(t, err)
	require.Equal(t, int64(2), order.Version())
	require.Equal(t, StatusConfirmed, order.Status())

	shipped, err := Decide(order, Command{Ship: &ShipOrder{Tracking: "T1", Carrier: "DHL"}})
	require.NoError(t, err)
	order, err = Apply(order, shipped[0])
	require.NoError(t, err)
	require.Equal(t, int64(3), order.Version())
	require.Equal(t, StatusShipped, order.Status())

	delivered, err := Decide(order, Command{Deliver: &DeliverOrder{SignedBy: "J"}})
	require.NoError(t, err)
	order, err = Apply(order, delivered[0])
	require.NoError(t, err)
	require.Equal(t, int64(4), order.Version())
	require.Equal(t, StatusDelivered, order.Status())
}

func TestDecideRejectsShipBeforeConfirm(t *testing.T) {
	created, _ := Decide(Order{}, Command{Create: &CreateOrder{OrderID: "U1", CustomerID: "U2"}})
	order, _ := Construct(created[0])

	_, err := Decide(order, Command{Ship: &ShipOrder{Tracking: "T1", Carrier: "DHL"}})
	require.ErrorIs(t, err, eventsourcing.ErrBusinessRuleViolation)
}

func TestDecideRejectsDeliverBeforeShip(t *testing.T) {
	created, _ := Decide(Order{}, Command{Create: &CreateOrder{OrderID: "U1", CustomerID: "U2"}})
	order, _ := Construct(created[0])
	confirmed, _ := Decide(order, Command{Confirm: &ConfirmOrder{}})
	order, _ = Apply(order, confirmed[0])

	_, err := Decide(order, Command{Deliver: &DeliverOrder{SignedBy: "J"}})
	require.ErrorIs(t, err, eventsourcing.ErrBusinessRuleViolation)
}

func TestOrderJSONRoundTripPreservesState(t *testing.T) {
	created, _ := Decide(Order{}, Command{Create: &CreateOrder{OrderID: "U1", CustomerID: "U2", Items: []LineItem{{ProductID: "U3", Quantity: 2}}}})
	order, _ := Construct(created[0])

	body, err := order.MarshalJSON()
	require.NoError(t, err)

	var restored Order
	require.NoError(t, restored.UnmarshalJSON(body))
	require.Equal(t, order.AggregateID(), restored.AggregateID())
	require.Equal(t, order.Version(), restored.Version())
	require.Equal(t, order.CustomerID(), restored.CustomerID())
	require.Equal(t, order.Status(), restored.Status())
	require.Equal(t, order.Items(), restored.Items())
}

func TestIsConstructorOnlyTrueForCreate(t *testing.T) {
	require.True(t, IsConstructor(Command{Create: &CreateOrder{}}))
	require.False(t, IsConstructor(Command{Confirm: &ConfirmOrder{}}))
}
