// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package zkvm

// Guest is the view a program has of the environment during a run.
type Guest interface {
	// Input returns the bytes the run was started with.
	Input() []byte
	// Commit appends [b] to the public journal.
	Commit(b []byte)
	// Write appends [b] to the private output.
	Write(b []byte)
}

// Program is a deterministic function of its input. It must not read
// anything other than the Guest it is given.
type Program func(Guest) error

var _ Guest = &guest{}

type guest struct {
	input   []byte
	journal []byte
	output  []byte
}

func newGuest(input []byte) *guest {
	return &guest{input: append([]byte(nil), input...)}
}

func (g *guest) Input() []byte {
	return append([]byte(nil), g.input...)
}

func (g *guest) Commit(b []byte) { g.journal = append(g.journal, b...) }

func (g *guest) Write(b []byte) { g.output = append(g.output, b...) }
