package marketplace

import (
	"fmt"

	"github.com/refit-labs/ledger"
	"github.com/refit-labs/ledger/codec"
	"github.com/refit-labs/ledger/coin"
	"github.com/refit-labs/ledger/errors"
	"github.com/refit-labs/ledger/orm"
)

// ListingStatus is the lifecycle state of a listing.
type ListingStatus int32

const (
	ListingActive ListingStatus = iota + 1
	ListingPendingEscrow
	ListingShipped
	ListingSold
	ListingCancelled
)

var listingStatusNames = map[ListingStatus]string{
	ListingActive:        "active",
	ListingPendingEscrow: "pending_escrow",
	ListingShipped:       "shipped",
	ListingSold:          "sold",
	ListingCancelled:     "cancelled",
}

func (s ListingStatus) String() string {
	if n, ok := listingStatusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("ListingStatus(%d)", s)
}

func (s ListingStatus) Validate() error {
	if _, ok := listingStatusNames[s]; !ok {
		return errors.Wrapf(errors.ErrState, "invalid listing status %d", s)
	}
	return nil
}

// EscrowStatus is the lifecycle state of an escrow order.
type EscrowStatus int32

const (
	EscrowAwaitingShipment EscrowStatus = iota + 1
	EscrowShipped
	EscrowCompleted
	EscrowRefunded
	EscrowDisputed
	EscrowAutoReleased
	EscrowResolved
)

var escrowStatusNames = map[EscrowStatus]string{
	EscrowAwaitingShipment: "awaiting_shipment",
	EscrowShipped:          "shipped",
	EscrowCompleted:        "completed",
	EscrowRefunded:         "refunded",
	EscrowDisputed:         "disputed",
	EscrowAutoReleased:     "auto_released",
	EscrowResolved:         "resolved",
}

func (s EscrowStatus) String() string {
	if n, ok := escrowStatusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("EscrowStatus(%d)", s)
}

func (s EscrowStatus) Validate() error {
	if _, ok := escrowStatusNames[s]; !ok {
		return errors.Wrapf(errors.ErrState, "invalid escrow status %d", s)
	}
	return nil
}

// escrowTransitions lists every allowed escrow status change. Statuses
// without an entry are terminal.
var escrowTransitions = map[EscrowStatus][]EscrowStatus{
	EscrowAwaitingShipment: {EscrowShipped, EscrowDisputed},
	EscrowShipped:          {EscrowCompleted, EscrowAutoReleased, EscrowDisputed},
	EscrowDisputed:         {EscrowRefunded, EscrowCompleted, EscrowResolved},
}

// CanTransition returns true if an order in this status may move to next.
func (s EscrowStatus) CanTransition(next EscrowStatus) bool {
	for _, n := range escrowTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transition is possible.
func (s EscrowStatus) IsTerminal() bool {
	return len(escrowTransitions[s]) == 0
}

var listingTransitions = map[ListingStatus][]ListingStatus{
	ListingActive:        {ListingPendingEscrow, ListingCancelled},
	ListingPendingEscrow: {ListingShipped, ListingSold, ListingCancelled},
	ListingShipped:       {ListingSold, ListingCancelled},
}

// CanTransition returns true if a listing in this status may move to next.
// Listing status only moves forward.
func (s ListingStatus) CanTransition(next ListingStatus) bool {
	for _, n := range listingTransitions[s] {
		if n == next {
			return true
		}
	}
	return false
}

// DisputeStatus is the lifecycle state of a dispute.
type DisputeStatus int32

const (
	DisputeOpen DisputeStatus = iota + 1
	DisputeUnderReview
	DisputeResolved
)

var disputeStatusNames = map[DisputeStatus]string{
	DisputeOpen:        "open",
	DisputeUnderReview: "under_review",
	DisputeResolved:    "resolved",
}

func (s DisputeStatus) String() string {
	if n, ok := disputeStatusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("DisputeStatus(%d)", s)
}

func (s DisputeStatus) Validate() error {
	if _, ok := disputeStatusNames[s]; !ok {
		return errors.Wrapf(errors.ErrState, "invalid dispute status %d", s)
	}
	return nil
}

// ResolutionKind is the outcome chosen by the arbiter.
type ResolutionKind int32

const (
	FavorBuyer ResolutionKind = iota + 1
	FavorSeller
	Split
)

var resolutionKindNames = map[ResolutionKind]string{
	FavorBuyer:  "favor_buyer",
	FavorSeller: "favor_seller",
	Split:       "split",
}

func (k ResolutionKind) String() string {
	if n, ok := resolutionKindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("ResolutionKind(%d)", k)
}

// Resolution is the decision closing a dispute. BuyerPercentage is used only
// by the Split kind.
type Resolution struct {
	Kind            ResolutionKind `cbor:"1,keyasint,omitempty" json:"kind"`
	BuyerPercentage uint8          `cbor:"2,keyasint,omitempty" json:"buyer_percentage,omitempty"`
}

func (r *Resolution) Validate() error {
	if _, ok := resolutionKindNames[r.Kind]; !ok {
		return errors.Wrapf(errors.ErrInput, "invalid resolution kind %d", r.Kind)
	}
	if r.Kind != Split && r.BuyerPercentage != 0 {
		return errors.Wrapf(errors.ErrInput, "buyer percentage not allowed for %s", r.Kind)
	}
	if r.BuyerPercentage > 100 {
		return errors.Wrapf(errors.ErrInput, "buyer percentage %d above 100", r.BuyerPercentage)
	}
	return nil
}

const (
	maxModelLen          = 50
	maxBrandLen          = 20
	maxStorageLen        = 10
	maxConditionLen      = 20
	maxCarrierStatusLen  = 20
	maxIMEILen           = 20
	maxIssuesLen         = 200
	maxImagesURLLen      = 500
	maxBatteryHealth     = 100
	maxReasonLen         = 500
	maxTrackingNumberLen = 50
	maxCarrierLen        = 20
)

// PhoneMetadata describes the device offered by a listing.
type PhoneMetadata struct {
	Model         string `cbor:"1,keyasint,omitempty" json:"model"`
	Brand         string `cbor:"2,keyasint,omitempty" json:"brand,omitempty"`
	Storage       string `cbor:"3,keyasint,omitempty" json:"storage,omitempty"`
	Condition     string `cbor:"4,keyasint,omitempty" json:"condition"`
	CarrierStatus string `cbor:"5,keyasint,omitempty" json:"carrier_status,omitempty"`
	IMEI          string `cbor:"6,keyasint,omitempty" json:"imei,omitempty"`
	BatteryHealth uint8  `cbor:"7,keyasint,omitempty" json:"battery_health,omitempty"`
	Issues        string `cbor:"8,keyasint,omitempty" json:"issues,omitempty"`
	ImagesURL     string `cbor:"9,keyasint,omitempty" json:"images_url,omitempty"`
}

func (m *PhoneMetadata) Validate() error {
	if m == nil {
		return errors.Wrap(errors.ErrEmpty, "metadata")
	}
	var errs error
	errs = errors.AppendField(errs, "Model", requiredText(m.Model, maxModelLen))
	errs = errors.AppendField(errs, "Brand", boundedText(m.Brand, maxBrandLen))
	errs = errors.AppendField(errs, "Storage", boundedText(m.Storage, maxStorageLen))
	errs = errors.AppendField(errs, "Condition", requiredText(m.Condition, maxConditionLen))
	errs = errors.AppendField(errs, "CarrierStatus", boundedText(m.CarrierStatus, maxCarrierStatusLen))
	errs = errors.AppendField(errs, "IMEI", boundedText(m.IMEI, maxIMEILen))
	if m.BatteryHealth > maxBatteryHealth {
		errs = errors.AppendField(errs, "BatteryHealth",
			errors.Wrapf(errors.ErrInput, "must not exceed %d", maxBatteryHealth))
	}
	errs = errors.AppendField(errs, "Issues", boundedText(m.Issues, maxIssuesLen))
	errs = errors.AppendField(errs, "ImagesURL", boundedText(m.ImagesURL, maxImagesURLLen))
	return errs
}

func requiredText(s string, max int) error {
	if s == "" {
		return errors.Wrap(errors.ErrEmpty, "required")
	}
	return boundedText(s, max)
}

func boundedText(s string, max int) error {
	if len(s) > max {
		return errors.Wrapf(errors.ErrInput, "longer than %d bytes", max)
	}
	return nil
}

// Listing is an item offered for sale by a seller.
type Listing struct {
	ID           []byte          `cbor:"1,keyasint,omitempty" json:"id"`
	Seller       ledger.Address  `cbor:"2,keyasint,omitempty" json:"seller"`
	Metadata     *PhoneMetadata  `cbor:"3,keyasint,omitempty" json:"metadata"`
	Price        coin.Coin       `cbor:"4,keyasint" json:"price"`
	Status       ListingStatus   `cbor:"5,keyasint,omitempty" json:"status"`
	CreatedAt    ledger.UnixTime `cbor:"6,keyasint,omitempty" json:"created_at"`
	Buyer        ledger.Address  `cbor:"7,keyasint,omitempty" json:"buyer,omitempty"`
	RequireStake bool            `cbor:"8,keyasint,omitempty" json:"require_stake,omitempty"`
	// EscrowAccount is the reference derived from the listing ID.
	EscrowAccount ledger.Address `cbor:"9,keyasint,omitempty" json:"escrow_account"`
	// AssetRef points to an externally minted asset representing the
	// device. It can be set only once.
	AssetRef []byte `cbor:"10,keyasint,omitempty" json:"asset_ref,omitempty"`
}

var _ orm.Model = (*Listing)(nil)

func (l *Listing) Validate() error {
	var errs error
	if len(l.ID) != IDLen {
		errs = errors.AppendField(errs, "ID", errors.Wrapf(errors.ErrInput, "must be %d bytes", IDLen))
	}
	errs = errors.AppendField(errs, "Seller", l.Seller.Validate())
	errs = errors.AppendField(errs, "Metadata", l.Metadata.Validate())
	if !l.Price.IsPositive() {
		errs = errors.AppendField(errs, "Price", errors.Wrap(errors.ErrAmount, "must be positive"))
	}
	errs = errors.AppendField(errs, "Price", l.Price.Validate())
	errs = errors.AppendField(errs, "Status", l.Status.Validate())
	errs = errors.AppendField(errs, "CreatedAt", l.CreatedAt.Validate())
	errs = errors.AppendField(errs, "EscrowAccount", l.EscrowAccount.Validate())

	switch l.Status {
	case ListingActive:
		if l.Buyer != nil {
			errs = errors.AppendField(errs, "Buyer", errors.Wrap(errors.ErrState, "active listing has no buyer"))
		}
	case ListingPendingEscrow, ListingShipped, ListingSold:
		errs = errors.AppendField(errs, "Buyer", l.Buyer.Validate())
	case ListingCancelled:
		if l.Buyer != nil {
			errs = errors.AppendField(errs, "Buyer", l.Buyer.Validate())
		}
	}
	return errs
}

func (l *Listing) Marshal() ([]byte, error) {
	return codec.Marshal(l)
}

func (l *Listing) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, l)
}

// TrackingInfo is recorded once when the seller ships the device.
type TrackingInfo struct {
	TrackingNumber   string          `cbor:"1,keyasint,omitempty" json:"tracking_number"`
	Carrier          string          `cbor:"2,keyasint,omitempty" json:"carrier"`
	ShippedAt        ledger.UnixTime `cbor:"3,keyasint,omitempty" json:"shipped_at"`
	DeliveryDeadline ledger.UnixTime `cbor:"4,keyasint,omitempty" json:"delivery_deadline"`
}

func (t *TrackingInfo) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "TrackingNumber", requiredText(t.TrackingNumber, maxTrackingNumberLen))
	errs = errors.AppendField(errs, "Carrier", requiredText(t.Carrier, maxCarrierLen))
	errs = errors.AppendField(errs, "ShippedAt", t.ShippedAt.Validate())
	if t.DeliveryDeadline <= t.ShippedAt {
		errs = errors.AppendField(errs, "DeliveryDeadline", errors.Wrap(errors.ErrState, "must be after shipment"))
	}
	return errs
}

// EscrowOrder holds the buyer funds of a purchase until the device is
// delivered or a dispute is resolved.
type EscrowOrder struct {
	ID               []byte          `cbor:"1,keyasint,omitempty" json:"id"`
	ListingID        []byte          `cbor:"2,keyasint,omitempty" json:"listing_id"`
	Buyer            ledger.Address  `cbor:"3,keyasint,omitempty" json:"buyer"`
	Seller           ledger.Address  `cbor:"4,keyasint,omitempty" json:"seller"`
	Amount           coin.Coin       `cbor:"5,keyasint" json:"amount"`
	Status           EscrowStatus    `cbor:"6,keyasint,omitempty" json:"status"`
	CreatedAt        ledger.UnixTime `cbor:"7,keyasint,omitempty" json:"created_at"`
	ShippingDeadline ledger.UnixTime `cbor:"8,keyasint,omitempty" json:"shipping_deadline"`
	Tracking         *TrackingInfo   `cbor:"9,keyasint,omitempty" json:"tracking,omitempty"`
	// Custody is the address holding the locked amount.
	Custody ledger.Address `cbor:"10,keyasint,omitempty" json:"custody"`
	// ReleaseTaskID references the scheduled auto release, if any.
	ReleaseTaskID []byte `cbor:"11,keyasint,omitempty" json:"release_task_id,omitempty"`
}

var _ orm.Model = (*EscrowOrder)(nil)

func (o *EscrowOrder) Validate() error {
	var errs error
	if len(o.ID) != IDLen {
		errs = errors.AppendField(errs, "ID", errors.Wrapf(errors.ErrInput, "must be %d bytes", IDLen))
	}
	if len(o.ListingID) != IDLen {
		errs = errors.AppendField(errs, "ListingID", errors.Wrapf(errors.ErrInput, "must be %d bytes", IDLen))
	}
	errs = errors.AppendField(errs, "Buyer", o.Buyer.Validate())
	errs = errors.AppendField(errs, "Seller", o.Seller.Validate())
	if !o.Amount.IsPositive() {
		errs = errors.AppendField(errs, "Amount", errors.Wrap(errors.ErrAmount, "must be positive"))
	}
	errs = errors.AppendField(errs, "Amount", o.Amount.Validate())
	errs = errors.AppendField(errs, "Status", o.Status.Validate())
	errs = errors.AppendField(errs, "CreatedAt", o.CreatedAt.Validate())
	if o.ShippingDeadline <= o.CreatedAt {
		errs = errors.AppendField(errs, "ShippingDeadline", errors.Wrap(errors.ErrState, "must be after creation"))
	}
	if o.Tracking != nil {
		errs = errors.AppendField(errs, "Tracking", o.Tracking.Validate())
	}
	errs = errors.AppendField(errs, "Custody", o.Custody.Validate())
	return errs
}

func (o *EscrowOrder) Marshal() ([]byte, error) {
	return codec.Marshal(o)
}

func (o *EscrowOrder) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, o)
}

// transition moves the order to the next status or fails if that change
// is not allowed.
func (o *EscrowOrder) transition(next EscrowStatus) error {
	if !o.Status.CanTransition(next) {
		return errors.Wrapf(ErrInvalidEscrowStatus, "%s to %s", o.Status, next)
	}
	o.Status = next
	return nil
}

// Dispute is a conflict raised by one of the order parties.
type Dispute struct {
	ID         []byte          `cbor:"1,keyasint,omitempty" json:"id"`
	OrderID    []byte          `cbor:"2,keyasint,omitempty" json:"order_id"`
	Initiator  ledger.Address  `cbor:"3,keyasint,omitempty" json:"initiator"`
	Reason     string          `cbor:"4,keyasint,omitempty" json:"reason"`
	Status     DisputeStatus   `cbor:"5,keyasint,omitempty" json:"status"`
	CreatedAt  ledger.UnixTime `cbor:"6,keyasint,omitempty" json:"created_at"`
	Resolution *Resolution     `cbor:"7,keyasint,omitempty" json:"resolution,omitempty"`
}

var _ orm.Model = (*Dispute)(nil)

func (d *Dispute) Validate() error {
	var errs error
	if len(d.ID) != IDLen {
		errs = errors.AppendField(errs, "ID", errors.Wrapf(errors.ErrInput, "must be %d bytes", IDLen))
	}
	if len(d.OrderID) != IDLen {
		errs = errors.AppendField(errs, "OrderID", errors.Wrapf(errors.ErrInput, "must be %d bytes", IDLen))
	}
	errs = errors.AppendField(errs, "Initiator", d.Initiator.Validate())
	errs = errors.AppendField(errs, "Reason", requiredText(d.Reason, maxReasonLen))
	errs = errors.AppendField(errs, "Status", d.Status.Validate())
	errs = errors.AppendField(errs, "CreatedAt", d.CreatedAt.Validate())
	switch {
	case d.Status == DisputeResolved && d.Resolution == nil:
		errs = errors.AppendField(errs, "Resolution", errors.Wrap(errors.ErrEmpty, "required when resolved"))
	case d.Status != DisputeResolved && d.Resolution != nil:
		errs = errors.AppendField(errs, "Resolution", errors.Wrap(errors.ErrState, "only resolved dispute has a resolution"))
	case d.Resolution != nil:
		errs = errors.AppendField(errs, "Resolution", d.Resolution.Validate())
	}
	return errs
}

func (d *Dispute) Marshal() ([]byte, error) {
	return codec.Marshal(d)
}

func (d *Dispute) Unmarshal(raw []byte) error {
	return codec.Unmarshal(raw, d)
}

// NewListingBucket returns a bucket for storing listings, indexed by seller.
func NewListingBucket() orm.ModelBucket {
	return orm.NewModelBucket("listings", &Listing{},
		orm.WithIndex("seller", listingSellerIndexer, false),
	)
}

func listingSellerIndexer(obj orm.Object) ([]byte, error) {
	l, ok := obj.Value().(*Listing)
	if !ok {
		return nil, errors.WithType(errors.ErrType, obj.Value())
	}
	return l.Seller, nil
}

// NewOrderBucket returns a bucket for storing orders, indexed by buyer,
// seller and listing.
func NewOrderBucket() orm.ModelBucket {
	return orm.NewModelBucket("orders", &EscrowOrder{},
		orm.WithIndex("buyer", orderIndexer(func(o *EscrowOrder) []byte { return o.Buyer }), false),
		orm.WithIndex("seller", orderIndexer(func(o *EscrowOrder) []byte { return o.Seller }), false),
		orm.WithIndex("listing", orderIndexer(func(o *EscrowOrder) []byte { return o.ListingID }), false),
	)
}

func orderIndexer(field func(*EscrowOrder) []byte) orm.Indexer {
	return func(obj orm.Object) ([]byte, error) {
		o, ok := obj.Value().(*EscrowOrder)
		if !ok {
			return nil, errors.WithType(errors.ErrType, obj.Value())
		}
		return field(o), nil
	}
}

// NewDisputeBucket returns a bucket for storing disputes, indexed by order.
func NewDisputeBucket() orm.ModelBucket {
	return orm.NewModelBucket("disputes", &Dispute{},
		orm.WithIndex("order", disputeOrderIndexer, false),
	)
}

func disputeOrderIndexer(obj orm.Object) ([]byte, error) {
	d, ok := obj.Value().(*Dispute)
	if !ok {
		return nil, errors.WithType(errors.ErrType, obj.Value())
	}
	return d.OrderID, nil
}
