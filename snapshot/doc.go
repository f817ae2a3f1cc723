//Package snapshot serializes parameter collections to JSON, so programs
//written in other languages can read the parameters assigned to a topology.
//A snapshot is sent as a stream of lines: one with the information on the
//whole collection, then one per interaction category.
package snapshot
