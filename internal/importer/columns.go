package importer

import "strings"

// columnRole is the meaning inferred for a header cell
type columnRole int

const (
	roleDate columnRole = iota
	rolePayment
	rolePrincipal
	roleInterest
	roleBalance
)

// rolePriority is the order in which roles claim header cells.
var rolePriority = []columnRole{roleDate, rolePayment, rolePrincipal, roleInterest, roleBalance}

var roleKeywords = map[columnRole][]string{
	roleDate:      {"date"},
	rolePayment:   {"payment", "installment", "amount"},
	rolePrincipal: {"principal"},
	roleInterest:  {"interest"},
	roleBalance:   {"balance", "remaining", "outstanding"},
}

// A payment cell that also names one of these is a breakdown or a row counter, not the total.
var paymentExclusions = []string{"principal", "interest", "balance", "remaining", "#", "number", "no."}

func (r columnRole) String() string {
	switch r {
	case roleDate:
		return "date"
	case rolePayment:
		return "payment"
	case rolePrincipal:
		return "principal"
	case roleInterest:
		return "interest"
	case roleBalance:
		return "balance"
	}
	return "unknown"
}

func (r columnRole) matches(cell string) bool {
	if !containsAny(cell, roleKeywords[r]) {
		return false
	}
	if r == rolePayment && containsAny(cell, paymentExclusions) {
		return false
	}
	return true
}

// columnMap holds the cell index of each role, -1 when the file has no such column.
type columnMap struct {
	date      int
	payment   int
	principal int
	interest  int
	balance   int
}

func (m columnMap) has(role columnRole) bool {
	return m.index(role) >= 0
}

func (m columnMap) index(role columnRole) int {
	switch role {
	case roleDate:
		return m.date
	case rolePayment:
		return m.payment
	case rolePrincipal:
		return m.principal
	case roleInterest:
		return m.interest
	case roleBalance:
		return m.balance
	}
	return -1
}

func (m *columnMap) set(role columnRole, idx int) {
	switch role {
	case roleDate:
		m.date = idx
	case rolePayment:
		m.payment = idx
	case rolePrincipal:
		m.principal = idx
	case roleInterest:
		m.interest = idx
	case roleBalance:
		m.balance = idx
	}
}

// classifyColumns maps normalized header cells to roles. Each role, in
// priority order, claims the first cell not already claimed.
func classifyColumns(header []string) columnMap {
	m := columnMap{date: -1, payment: -1, principal: -1, interest: -1, balance: -1}
	claimed := make([]bool, len(header))

	for _, role := range rolePriority {
		for idx, cell := range header {
			if claimed[idx] || !role.matches(cell) {
				continue
			}
			m.set(role, idx)
			claimed[idx] = true
			break
		}
	}
	return m
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
