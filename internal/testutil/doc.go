// Package testutil holds deterministic fixtures shared by package tests.
package testutil
