// Package repository provides persistence for indicators, execution
// records and alert states over GORM.
package repository

import "errors"

// ErrIndicatorNotFound is returned when an indicator ID does not exist.
var ErrIndicatorNotFound = errors.New("indicator not found")
