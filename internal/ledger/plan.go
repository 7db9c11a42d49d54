package ledger

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/popchain/popchain-core/pkg/bcs"
)

type ArgKind int

const (
	ArgPure ArgKind = iota
	ArgObject
	ArgGasSplit
)

// Arg is one argument of a Move call, before object resolution.
type Arg struct {
	Kind    ArgKind
	Pure    []byte
	Object  ObjectID
	Mutable bool
	Amount  uint64
}

// Pure wraps an already BCS encoded value.
func Pure(encoded []byte) Arg {
	return Arg{Kind: ArgPure, Pure: encoded}
}

func PureAddress(a Address) Arg {
	return Pure(a.Bytes())
}

func PureU8(v uint8) Arg {
	return Pure(bcs.U8(v))
}

func PureU64(v uint64) Arg {
	return Pure(bcs.U64(v))
}

func PureBytes(b []byte) Arg {
	return Pure(bcs.ByteVector(b))
}

// ObjectInput passes an on-chain object by reference.
func ObjectInput(id ObjectID, mutable bool) Arg {
	return Arg{Kind: ArgObject, Object: id, Mutable: mutable}
}

// SplitGas passes a coin of amount split off the gas coin.
func SplitGas(amount uint64) Arg {
	return Arg{Kind: ArgGasSplit, Amount: amount}
}

// MoveCall is an unresolved call plan: the target function and its arguments.
type MoveCall struct {
	Package  ObjectID
	Module   string
	Function string
	Args     []Arg
}

func (c MoveCall) Target() string {
	return fmt.Sprintf("%s::%s::%s", c.Package, c.Module, c.Function)
}

// GasSplitTotal is the amount the gas coin must cover on top of the gas budget.
func (c MoveCall) GasSplitTotal() uint64 {
	var total uint64
	for _, a := range c.Args {
		if a.Kind == ArgGasSplit {
			total += a.Amount
		}
	}
	return total
}

// ObjectResolver turns an object id into a transaction input.
type ObjectResolver func(id ObjectID, mutable bool) (ObjectArg, error)

// Compile lowers the call to a programmable transaction. Gas splits become
// SplitCoins commands ahead of the call.
func (c MoveCall) Compile(resolve ObjectResolver) (*ProgrammableTransaction, error) {
	if c.Module == "" || c.Function == "" {
		return nil, errors.New("move call without target")
	}
	pt := &ProgrammableTransaction{}
	args := make([]Argument, 0, len(c.Args))
	for i, a := range c.Args {
		switch a.Kind {
		case ArgPure:
			args = append(args, Input(pt.addInput(CallArg{Pure: a.Pure})))
		case ArgObject:
			obj, err := resolve(a.Object, a.Mutable)
			if err != nil {
				return nil, errors.Wrapf(err, "resolve argument %d (%s)", i, a.Object)
			}
			args = append(args, Input(pt.addInput(CallArg{Object: &obj})))
		case ArgGasSplit:
			amount := Input(pt.addInput(CallArg{Pure: bcs.U64(a.Amount)}))
			cmd := pt.addCommand(Command{SplitCoins: &SplitCoins{Coin: GasCoin(), Amounts: []Argument{amount}}})
			args = append(args, NestedResult(cmd, 0))
		default:
			return nil, errors.Errorf("argument %d: unknown kind %d", i, a.Kind)
		}
	}
	pt.addCommand(Command{MoveCall: &ProgrammableMoveCall{
		Package:   c.Package,
		Module:    c.Module,
		Function:  c.Function,
		Arguments: args,
	}})
	return pt, nil
}
