// Package relation abstracts a world state into logical facts (OnTable, On,
// Clear, Above) and keeps them in an ordered Set that the executor updates
// incrementally and the comparator matches against goal facts.
package relation
