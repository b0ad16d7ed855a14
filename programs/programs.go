// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package programs is the registry of program identities shared by every
// party that creates or verifies receipts.
package programs

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
)

// Kind selects one of the two ledger programs. The numeric values are the
// method IDs of the validation RPC.
type Kind uint8

const (
	Init  Kind = 1
	Issue Kind = 2
)

// CurrentVersion is the table used when no version is configured.
const CurrentVersion uint16 = 1

// Identities of the version 1 programs. These are fixed values; they are
// never recomputed at runtime.
var (
	InitID = ids.ID{
		0x26, 0xca, 0xd3, 0x7c, 0x7d, 0xbf, 0xe8, 0xbc,
		0x4e, 0x4c, 0x62, 0x9a, 0x96, 0x32, 0xa9, 0x1e,
		0x55, 0x76, 0x22, 0x31, 0x32, 0xcc, 0x30, 0x11,
		0x38, 0xeb, 0x98, 0x83, 0xe4, 0x67, 0xfa, 0xa3,
	}
	IssueID = ids.ID{
		0xa2, 0xd2, 0xdf, 0xdf, 0xd5, 0xa4, 0x59, 0xd8,
		0xae, 0xc2, 0xa5, 0x51, 0xd6, 0x8d, 0xd2, 0x7b,
		0xc7, 0xce, 0x61, 0xce, 0x22, 0x3c, 0x29, 0x85,
		0xe3, 0x9c, 0xe0, 0x3b, 0xf0, 0x11, 0x76, 0x03,
	}

	errUnknownKind    = errors.New("unknown program kind")
	errUnknownVersion = errors.New("unknown program table version")

	tables = map[uint16]Table{
		1: {Version: 1, Init: InitID, Issue: IssueID},
	}
)

// Table binds each program kind to its identity for one release.
type Table struct {
	Version uint16
	Init    ids.ID
	Issue   ids.ID
}

// Current returns the table for CurrentVersion.
func Current() Table { return tables[CurrentVersion] }

// Lookup returns the table registered for [version].
func Lookup(version uint16) (Table, error) {
	t, ok := tables[version]
	if !ok {
		return Table{}, fmt.Errorf("%w: %d", errUnknownVersion, version)
	}
	return t, nil
}

// ID returns the identity of program [k].
func (t Table) ID(k Kind) (ids.ID, error) {
	switch k {
	case Init:
		return t.Init, nil
	case Issue:
		return t.Issue, nil
	default:
		return ids.Empty, fmt.Errorf("%w: %d", errUnknownKind, k)
	}
}

// KindOf reports which program [id] identifies in this table.
func (t Table) KindOf(id ids.ID) (Kind, bool) {
	switch id {
	case t.Init:
		return Init, true
	case t.Issue:
		return Issue, true
	default:
		return 0, false
	}
}

// KindFromMethodID maps a validation method ID to a kind. Only 1 and 2 are
// recognized.
func KindFromMethodID(methodID int32) (Kind, bool) {
	switch methodID {
	case int32(Init):
		return Init, true
	case int32(Issue):
		return Issue, true
	default:
		return 0, false
	}
}

// MethodID is the validation method ID for [k].
func (k Kind) MethodID() int32 { return int32(k) }

func (k Kind) String() string {
	switch k {
	case Init:
		return "init"
	case Issue:
		return "issue"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// ParseKind parses the String form of a kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "init":
		return Init, nil
	case "issue":
		return Issue, nil
	default:
		return 0, fmt.Errorf("%w: %q", errUnknownKind, s)
	}
}
