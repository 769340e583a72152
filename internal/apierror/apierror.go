/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package apierror defines the network-facing error taxonomy: a small
// set of typed errors, each carrying the HTTP status its wire handler
// should report, modeled on common/errors' Reason-bearing error types.
package apierror

import "net/http"

// SignatureInvalidError is returned when a proposal, envelope, endorsement,
// or block signature fails verification.
type SignatureInvalidError struct{ Reason string }

func (e SignatureInvalidError) Error() string   { return e.Reason }
func (e SignatureInvalidError) HTTPStatus() int { return http.StatusBadRequest }

// NotFoundError is returned for a missing chaincode, block, or route.
type NotFoundError struct{ Reason string }

func (e NotFoundError) Error() string   { return e.Reason }
func (e NotFoundError) HTTPStatus() int { return http.StatusNotFound }

// BadRequestError is returned for a missing query parameter or malformed
// body.
type BadRequestError struct{ Reason string }

func (e BadRequestError) Error() string   { return e.Reason }
func (e BadRequestError) HTTPStatus() int { return http.StatusBadRequest }

// ChaincodeExecutionError is returned when chaincode simulation throws.
type ChaincodeExecutionError struct{ Reason string }

func (e ChaincodeExecutionError) Error() string   { return e.Reason }
func (e ChaincodeExecutionError) HTTPStatus() int { return http.StatusUnprocessableEntity }

// StorageError wraps an underlying KV store failure.
type StorageError struct{ Reason string }

func (e StorageError) Error() string   { return e.Reason }
func (e StorageError) HTTPStatus() int { return http.StatusInternalServerError }

// HTTPStatusOf inspects err for an HTTPStatus() int method and returns it,
// defaulting to 500 for errors that don't opt into the taxonomy above.
func HTTPStatusOf(err error) int {
	type statusCoder interface{ HTTPStatus() int }
	if sc, ok := err.(statusCoder); ok {
		return sc.HTTPStatus()
	}
	return http.StatusInternalServerError
}
