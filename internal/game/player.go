package game

import (
	"fmt"

	"github.com/lox/pokerd/internal/protocol"
)

// LoanAmount is the chip value of a single loan grant or refund.
const LoanAmount = 1000

// Player holds the chip state of one seated player. Chip mutations go
// through Take/Add so the non-negative invariant holds at all times.
type Player struct {
	id    string
	name  string
	chips int
	loans int
	ready bool
}

// NewPlayer creates a player with the given chip stack and loan count.
func NewPlayer(id, name string, chips, loans int) *Player {
	return &Player{id: id, name: name, chips: chips, loans: loans}
}

func (p *Player) ID() string   { return p.id }
func (p *Player) Name() string { return p.name }
func (p *Player) Chips() int   { return p.chips }
func (p *Player) Loans() int   { return p.loans }
func (p *Player) Ready() bool  { return p.ready }

// SetReady updates the readiness flag reported by the ping-state probe.
func (p *Player) SetReady(ready bool) { p.ready = ready }

// Take removes n chips from the stack. Taking zero is a legal no-op.
func (p *Player) Take(n int) error {
	if n < 0 {
		return fmt.Errorf("cannot take a negative amount: %d", n)
	}
	if n > p.chips {
		return fmt.Errorf("player %s has %d chips, cannot take %d", p.id, p.chips, n)
	}
	p.chips -= n
	return nil
}

// Add credits n chips to the stack.
func (p *Player) Add(n int) error {
	if n <= 0 {
		return fmt.Errorf("cannot add a non-positive amount: %d", n)
	}
	p.chips += n
	return nil
}

// AddLoan grants a loan: chips up by LoanAmount, loan count up by one.
func (p *Player) AddLoan() {
	p.chips += LoanAmount
	p.loans++
}

// RefundLoans returns times loans to the bank.
func (p *Player) RefundLoans(times int) error {
	if times > p.loans {
		return fmt.Errorf("player %s has %d loans, cannot refund %d", p.id, p.loans, times)
	}
	if times*LoanAmount > p.chips {
		return fmt.Errorf("player %s has %d chips, cannot refund %d loans", p.id, p.chips, times)
	}
	p.chips -= times * LoanAmount
	p.loans -= times
	return nil
}

// DTO returns the public wire view of the player.
func (p *Player) DTO() protocol.PlayerDTO {
	return protocol.PlayerDTO{
		ID:    p.id,
		Name:  p.name,
		Chips: p.chips,
		Loans: p.loans,
	}
}

func (p *Player) String() string {
	return fmt.Sprintf("player %s", p.id)
}
