// Package orderdomain is the example aggregate exercising the generic
// event-sourcing contracts: an order moves through
// created -> confirmed -> shipped -> delivered, each transition producing
// exactly one event and refusing to run out of sequence.
package orderdomain

import (
	"encoding/json"

	"github.com/boniface/scylladb-cdc-sub001/internal/eventsourcing"
)

// LineItem is one product/quantity pair on an order.
type LineItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Status is the order's lifecycle stage.
type Status string

const (
	StatusCreated   Status = "created"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
)

// Order is the aggregate root. Its state is entirely the fold of its
// event history; command handlers never mutate it directly.
type Order struct {
	id         string
	version    int64
	customerID string
	items      []LineItem
	status     Status
	tracking   string
	carrier    string
	signedBy   string
}

func (o Order) AggregateID() string { return o.id }
func (o Order) Version() int64      { return o.version }
func (o Order) Status() Status      { return o.status }
func (o Order) CustomerID() string  { return o.customerID }
func (o Order) Items() []LineItem   { return o.items }

// orderSnapshot is Order's exported wire shape, used only for snapshot
// serialization since the aggregate's own fields are unexported to keep
// state changes confined to Apply.
type orderSnapshot struct {
	ID         string     `json:"id"`
	Version    int64      `json:"version"`
	CustomerID string     `json:"customer_id"`
	Items      []LineItem `json:"items"`
	Status     Status     `json:"status"`
	Tracking   string     `json:"tracking"`
	Carrier    string     `json:"carrier"`
	SignedBy   string     `json:"signed_by"`
}

// MarshalJSON implements json.Marshaler for snapshot persistence (C3).
func (o Order) MarshalJSON() ([]byte, error) {
	return json.Marshal(orderSnapshot{
		ID:         o.id,
		Version:    o.version,
		CustomerID: o.customerID,
		Items:      o.items,
		Status:     o.status,
		Tracking:   o.tracking,
		Carrier:    o.carrier,
		SignedBy:   o.signedBy,
	})
}

// UnmarshalJSON implements json.Unmarshaler for snapshot persistence (C3).
func (o *Order) UnmarshalJSON(data []byte) error {
	var s orderSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.id = s.ID
	o.version = s.Version
	o.customerID = s.CustomerID
	o.items = s.Items
	o.status = s.Status
	o.tracking = s.Tracking
	o.carrier = s.Carrier
	o.signedBy = s.SignedBy
	return nil
}

// Event is the union of every event type this aggregate can produce.
// Exactly one of the pointer fields is set, mirroring how the event
// store dispatches by EventType.
type Event struct {
	Created   *OrderCreated   `json:"created,omitempty"`
	Confirmed *OrderConfirmed `json:"confirmed,omitempty"`
	Shipped   *OrderShipped   `json:"shipped,omitempty"`
	Delivered *OrderDelivered `json:"delivered,omitempty"`
}

func (e Event) EventType() string {
	switch {
	case e.Created != nil:
		return "OrderCreated"
	case e.Confirmed != nil:
		return "OrderConfirmed"
	case e.Shipped != nil:
		return "OrderShipped"
	case e.Delivered != nil:
		return "OrderDelivered"
	default:
		return "OrderUnknown"
	}
}

func (e Event) EventVersion() int { return 1 }

// OrderCreated is the constructor event.
type OrderCreated struct {
	OrderID    string     `json:"order_id"`
	CustomerID string     `json:"customer_id"`
	Items      []LineItem `json:"items"`
}

// OrderConfirmed marks an order as accepted for fulfillment.
type OrderConfirmed struct{}

// OrderShipped records the carrier handoff.
type OrderShipped struct {
	Tracking string `json:"tracking"`
	Carrier  string `json:"carrier"`
}

// OrderDelivered records final receipt.
type OrderDelivered struct {
	SignedBy string `json:"signed_by"`
}

// Command is the union of every command this aggregate accepts.
type Command struct {
	Create   *CreateOrder
	Confirm  *ConfirmOrder
	Ship     *ShipOrder
	Deliver  *DeliverOrder
}

// CreateOrder is the only constructor-style command.
type CreateOrder struct {
	OrderID    string
	CustomerID string
	Items      []LineItem
}

// ConfirmOrder transitions created -> confirmed.
type ConfirmOrder struct{}

// ShipOrder transitions confirmed -> shipped.
type ShipOrder struct {
	Tracking string
	Carrier  string
}

// DeliverOrder transitions shipped -> delivered.
type DeliverOrder struct {
	SignedBy string
}

// IsConstructor reports whether cmd may create a new Order, per C4's
// "constructor-style command" gate.
func IsConstructor(cmd Command) bool {
	return cmd.Create != nil
}

// Construct builds the first version of an Order from its creation event.
func Construct(first Event) (Order, error) {
	if first.Created == nil {
		return Order{}, &eventsourcing.BusinessRuleViolationError{Reason: "first event for an order must be OrderCreated"}
	}
	c := first.Created
	return Order{
		id:         c.OrderID,
		version:    1,
		customerID: c.CustomerID,
		items:      c.Items,
		status:     StatusCreated,
	}, nil
}

// Apply folds one subsequent event onto an already-constructed Order.
func Apply(o Order, event Event) (Order, error) {
	o.version++
	switch {
	case event.Confirmed != nil:
		o.status = StatusConfirmed
	case event.Shipped != nil:
		o.status = StatusShipped
		o.tracking = event.Shipped.Tracking
		o.carrier = event.Shipped.Carrier
	case event.Delivered != nil:
		o.status = StatusDelivered
		o.signedBy = event.Delivered.SignedBy
	default:
		return o, &eventsourcing.BusinessRuleViolationError{Reason: "unrecognized order event"}
	}
	return o, nil
}

// Decide is the pure command-decision function: given the order's current
// state (the zero value when constructing) and a command, it returns the
// events the command produces or rejects the command outright.
func Decide(o Order, cmd Command) ([]Event, error) {
	switch {
	case cmd.Create != nil:
		return []Event{{Created: &OrderCreated{
			OrderID:    cmd.Create.OrderID,
			CustomerID: cmd.Create.CustomerID,
			Items:      cmd.Create.Items,
		}}}, nil

	case cmd.Confirm != nil:
		if o.status != StatusCreated {
			return nil, &eventsourcing.BusinessRuleViolationError{Reason: "order must be created before it can be confirmed"}
		}
		return []Event{{Confirmed: &OrderConfirmed{}}}, nil

	case cmd.Ship != nil:
		if o.status != StatusConfirmed {
			return nil, &eventsourcing.BusinessRuleViolationError{Reason: "order must be confirmed before it can ship"}
		}
		return []Event{{Shipped: &OrderShipped{Tracking: cmd.Ship.Tracking, Carrier: cmd.Ship.Carrier}}}, nil

	case cmd.Deliver != nil:
		if o.status != StatusShipped {
			return nil, &eventsourcing.BusinessRuleViolationError{Reason: "order must be shipped before it can be delivered"}
		}
		return []Event{{Delivered: &OrderDelivered{SignedBy: cmd.Deliver.SignedBy}}}, nil

	default:
		return nil, &eventsourcing.BusinessRuleViolationError{Reason: "empty command"}
	}
}
