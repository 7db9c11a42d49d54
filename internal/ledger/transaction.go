package ledger

import (
	"golang.org/x/crypto/blake2b"

	"github.com/popchain/popchain-core/pkg/bcs"
)

// CallArg is either pure bytes or an object input.
type CallArg struct {
	Pure   []byte
	Object *ObjectArg
}

type ObjectArg struct {
	Shared               bool
	Ref                  ObjectRef
	ID                   ObjectID
	InitialSharedVersion uint64
	Mutable              bool
}

func OwnedObjectArg(ref ObjectRef) ObjectArg {
	return ObjectArg{Ref: ref, ID: ref.ObjectID}
}

func SharedObjectArg(id ObjectID, initialSharedVersion uint64, mutable bool) ObjectArg {
	return ObjectArg{Shared: true, ID: id, InitialSharedVersion: initialSharedVersion, Mutable: mutable}
}

type argumentKind uint32

const (
	argGasCoin argumentKind = iota
	argInput
	argResult
	argNestedResult
)

type Argument struct {
	kind   argumentKind
	index  uint16
	nested uint16
}

func GasCoin() Argument {
	return Argument{kind: argGasCoin}
}

func Input(i uint16) Argument {
	return Argument{kind: argInput, index: i}
}

func Result(i uint16) Argument {
	return Argument{kind: argResult, index: i}
}

func NestedResult(cmd uint16, i uint16) Argument {
	return Argument{kind: argNestedResult, index: cmd, nested: i}
}

type ProgrammableMoveCall struct {
	Package   ObjectID
	Module    string
	Function  string
	Arguments []Argument
}

type SplitCoins struct {
	Coin    Argument
	Amounts []Argument
}

// Command holds exactly one of its fields.
type Command struct {
	MoveCall   *ProgrammableMoveCall
	SplitCoins *SplitCoins
}

type ProgrammableTransaction struct {
	Inputs   []CallArg
	Commands []Command
}

func (pt *ProgrammableTransaction) addInput(a CallArg) uint16 {
	pt.Inputs = append(pt.Inputs, a)
	return uint16(len(pt.Inputs) - 1)
}

func (pt *ProgrammableTransaction) addCommand(c Command) uint16 {
	pt.Commands = append(pt.Commands, c)
	return uint16(len(pt.Commands) - 1)
}

type GasData struct {
	Payment []ObjectRef
	Owner   Address
	Price   uint64
	Budget  uint64
}

// TransactionData is the V1 transaction envelope without expiration.
type TransactionData struct {
	Sender Address
	Kind   *ProgrammableTransaction
	Gas    GasData
}

// enum variant indexes of the wire format
const (
	transactionDataV1         = 0
	kindProgrammable          = 0
	callArgPure               = 0
	callArgObject             = 1
	objectArgImmOrOwned       = 0
	objectArgShared           = 1
	commandMoveCall           = 0
	commandSplitCoins         = 2
	transactionExpirationNone = 0
)

// Marshal returns the BCS encoding that gets signed and submitted.
func (td *TransactionData) Marshal() []byte {
	e := bcs.NewEncoder()
	e.Variant(transactionDataV1)
	e.Variant(kindProgrammable)
	encodeProgrammable(e, td.Kind)
	e.Fixed(td.Sender[:])
	e.Len(len(td.Gas.Payment))
	for _, ref := range td.Gas.Payment {
		encodeObjectRef(e, ref)
	}
	e.Fixed(td.Gas.Owner[:])
	e.U64(td.Gas.Price)
	e.U64(td.Gas.Budget)
	e.Variant(transactionExpirationNone)
	return e.Result()
}

func encodeProgrammable(e *bcs.Encoder, pt *ProgrammableTransaction) {
	e.Len(len(pt.Inputs))
	for _, in := range pt.Inputs {
		if in.Object == nil {
			e.Variant(callArgPure)
			e.Bytes(in.Pure)
			continue
		}
		e.Variant(callArgObject)
		if in.Object.Shared {
			e.Variant(objectArgShared)
			e.Fixed(in.Object.ID[:])
			e.U64(in.Object.InitialSharedVersion)
			e.Bool(in.Object.Mutable)
		} else {
			e.Variant(objectArgImmOrOwned)
			encodeObjectRef(e, in.Object.Ref)
		}
	}
	e.Len(len(pt.Commands))
	for _, c := range pt.Commands {
		switch {
		case c.MoveCall != nil:
			e.Variant(commandMoveCall)
			e.Fixed(c.MoveCall.Package[:])
			e.String(c.MoveCall.Module)
			e.String(c.MoveCall.Function)
			e.Len(0) // type arguments
			encodeArguments(e, c.MoveCall.Arguments)
		case c.SplitCoins != nil:
			e.Variant(commandSplitCoins)
			encodeArgument(e, c.SplitCoins.Coin)
			encodeArguments(e, c.SplitCoins.Amounts)
		default:
			panic("ledger: empty command")
		}
	}
}

func encodeObjectRef(e *bcs.Encoder, ref ObjectRef) {
	e.Fixed(ref.ObjectID[:])
	e.U64(ref.Version)
	e.Bytes(ref.Digest)
}

func encodeArguments(e *bcs.Encoder, args []Argument) {
	e.Len(len(args))
	for _, a := range args {
		encodeArgument(e, a)
	}
}

func encodeArgument(e *bcs.Encoder, a Argument) {
	e.Variant(uint32(a.kind))
	switch a.kind {
	case argInput, argResult:
		e.U16(a.index)
	case argNestedResult:
		e.U16(a.index)
		e.U16(a.nested)
	}
}

var transactionDigestPrefix = []byte("TransactionData::")

// TransactionDigest computes the base58 digest the ledger assigns to signed
// transaction bytes.
func TransactionDigest(txBytes []byte) string {
	buf := make([]byte, 0, len(transactionDigestPrefix)+len(txBytes))
	buf = append(buf, transactionDigestPrefix...)
	buf = append(buf, txBytes...)
	sum := blake2b.Sum256(buf)
	return EncodeDigest(sum[:])
}
