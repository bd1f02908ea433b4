// Package settlement translates fills and cancellations into movements
// against the token ledger collaborator. A real fungible-token ledger is
// a separate concern entirely; this package only defines the contract
// the engine needs and a thin driver that calls it.
package settlement

import "clobd/internal/common"

// Ledger is the external asset-accounting collaborator. Pull takes
// custody of amount of asset from trader into the engine's own balance;
// Push releases custody from the engine's balance to trader. Failures
// are surfaced to the caller, not wrapped or retried here.
type Ledger interface {
	Pull(asset common.AssetID, trader string, amount common.Quantity) error
	Push(asset common.AssetID, trader string, amount common.Quantity) error
}

// Driver binds a Ledger to the pair of assets one book trades, so the
// engine can talk about "numeraire" and "index" instead of repeating
// asset ids at every call site.
type Driver struct {
	ledger    Ledger
	numeraire common.AssetID
	index     common.AssetID
}

// NewDriver returns a Driver settling against ledger for the given
// numeraire/index asset pair.
func NewDriver(ledger Ledger, numeraire, index common.AssetID) *Driver {
	return &Driver{ledger: ledger, numeraire: numeraire, index: index}
}

// PullNumeraire takes custody of a BID's posted cash.
func (d *Driver) PullNumeraire(trader string, amount common.Quantity) error {
	return d.ledger.Pull(d.numeraire, trader, amount)
}

// PullIndex takes custody of an ASK's posted inventory.
func (d *Driver) PullIndex(trader string, amount common.Quantity) error {
	return d.ledger.Pull(d.index, trader, amount)
}

// PushNumeraire releases cash to trader (a fill credit, a cancel refund,
// or a market-order dust refund).
func (d *Driver) PushNumeraire(trader string, amount common.Quantity) error {
	if amount == 0 {
		return nil
	}
	return d.ledger.Push(d.numeraire, trader, amount)
}

// PushIndex releases inventory to trader.
func (d *Driver) PushIndex(trader string, amount common.Quantity) error {
	if amount == 0 {
		return nil
	}
	return d.ledger.Push(d.index, trader, amount)
}
