// Package model defines the domain types of the shadow payroll calculator.
//
// Inputs are mutable so they can be edited field by field; each setter
// validates before it assigns. Calculation and estimation results are
// immutable: their fields are unexported and only readable through accessors
// that return copies.
package model
