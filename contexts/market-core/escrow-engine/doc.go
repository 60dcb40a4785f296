// Package escrowengine contains the Caravel marketplace escrow engine.
//
// The engine takes custody of listed assets, settles sales with a royalty
// split, and projects market state for reads. Domain/application logic stays
// decoupled from runtime/platform concerns through ports and adapter
// composition.
package escrowengine
