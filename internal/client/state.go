// Package client holds the session-scoped state containers a storefront UI
// drives: who is signed in, and what is in their cart.
package client

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/flicky/storefront/internal/model"
)

type Status int

const (
	StatusUninitialized Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "uninitialized"
	}
}

var (
	ErrNotAuthenticated  = errors.New("sign in to place an order")
	ErrInsufficientStock = errors.New("not enough stock")
)

// AuthState is a snapshot of an AuthContainer. Err is set only in StatusError
// and the previous User and Token are kept alongside it.
type AuthState struct {
	Status Status
	User   *model.User
	Token  string
	Err    string
}

func (s AuthState) Authenticated() bool { return s.User != nil && s.Token != "" }

func (s AuthState) userID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// CartState is a snapshot of a CartContainer. Lines are copies.
type CartState struct {
	Status Status
	Lines  []model.CartLine
	Guest  bool
	Err    string
}

func (s CartState) Total() decimal.Decimal { return model.Total(s.Lines) }

func (s CartState) ItemCount() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}
