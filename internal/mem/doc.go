// Package mem provides aligned heap blocks for the arena.
//
// Offsets handed out by the arena are multiples of its alignment. Backing the
// block with an aligned base makes those offsets aligned addresses as well.
package mem
