// Package storage provides the in-memory side table that associated
// properties read and write.
//
// A Table[O] maps (object identity, assoc.Key) to a value. Object identity is
// a weak pointer, so attaching state never keeps an object alive: when the
// object is collected its slots are dropped by a runtime cleanup.
//
// Policies:
//
//	assign, retain, weak      store the value as given
//	copy                      store a deep copy (Copier or layering.Clone)
//	*_atomic                  same as above, with the copy taken under the table lock
//
// Writing nil removes the slot, so a later Get reports it as missing.
package storage
