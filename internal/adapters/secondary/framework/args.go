// Package framework adapts the host framework's argument-passing mechanism:
// an opaque list of values looked up by declared name and type.
package framework

import (
	"github.com/gridsec/pilotproxy/internal/core/domain"
	"github.com/gridsec/pilotproxy/internal/core/ports"
)

// Argument names and declared types used by the host framework.
const (
	ArgPayloadChain = "px509_chain"
	ArgPayloadPEM   = "pem_string"
	ArgFQANCount    = "nfqan"
	ArgFQANList     = "fqan_list"

	TypeChain       = "*domain.Chain"
	TypeString      = "string"
	TypeInt         = "int"
	TypeStringSlice = "[]string"
)

// Argument is one framework-supplied value with its declared name and type.
type Argument struct {
	Name  string
	Type  string
	Value any
}

// Arguments is a map-backed ports.ArgumentSource over a framework argument
// list. Lookups match on both name and declared type, mirroring the host
// framework's contract.
type Arguments struct {
	args []Argument
}

var _ ports.ArgumentSource = (*Arguments)(nil)

// NewArguments creates an Arguments source over the given values.
func NewArguments(args ...Argument) *Arguments {
	return &Arguments{args: args}
}

// WithPayloadChain returns a copy with a pre-parsed payload chain argument
// appended.
func (a *Arguments) WithPayloadChain(chain *domain.Chain) *Arguments {
	return a.with(Argument{Name: ArgPayloadChain, Type: TypeChain, Value: chain})
}

// WithPayloadPEM returns a copy with a payload PEM string argument
// appended.
func (a *Arguments) WithPayloadPEM(pem string) *Arguments {
	return a.with(Argument{Name: ArgPayloadPEM, Type: TypeString, Value: pem})
}

// WithFQANs returns a copy with the FQAN count and list arguments appended.
func (a *Arguments) WithFQANs(fqans []string) *Arguments {
	return a.with(
		Argument{Name: ArgFQANCount, Type: TypeInt, Value: len(fqans)},
		Argument{Name: ArgFQANList, Type: TypeStringSlice, Value: fqans},
	)
}

func (a *Arguments) with(args ...Argument) *Arguments {
	combined := make([]Argument, 0, len(a.args)+len(args))
	combined = append(combined, a.args...)
	combined = append(combined, args...)
	return &Arguments{args: combined}
}

// lookup finds the first argument with the given name and declared type.
func (a *Arguments) lookup(name, typ string) (any, bool) {
	for _, arg := range a.args {
		if arg.Name == name && arg.Type == typ {
			return arg.Value, true
		}
	}
	return nil, false
}

// PayloadChain implements ports.ArgumentSource.
func (a *Arguments) PayloadChain() (*domain.Chain, bool) {
	value, ok := a.lookup(ArgPayloadChain, TypeChain)
	if !ok {
		return nil, false
	}
	chain, ok := value.(*domain.Chain)
	if !ok || chain == nil {
		return nil, false
	}
	return chain, true
}

// PayloadPEM implements ports.ArgumentSource.
func (a *Arguments) PayloadPEM() (string, bool) {
	value, ok := a.lookup(ArgPayloadPEM, TypeString)
	if !ok {
		return "", false
	}
	pem, ok := value.(string)
	if !ok || pem == "" {
		return "", false
	}
	return pem, true
}

// FQANs implements ports.ArgumentSource. The list is truncated to the
// declared count when the framework supplied a shorter count.
func (a *Arguments) FQANs() ([]string, bool) {
	countValue, ok := a.lookup(ArgFQANCount, TypeInt)
	if !ok {
		return nil, false
	}
	count, ok := countValue.(int)
	if !ok || count <= 0 {
		return nil, false
	}

	listValue, ok := a.lookup(ArgFQANList, TypeStringSlice)
	if !ok {
		return nil, false
	}
	fqans, ok := listValue.([]string)
	if !ok {
		return nil, false
	}
	if count < len(fqans) {
		fqans = fqans[:count]
	}
	return fqans, true
}
