package domain

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")

	// Relay errors
	ErrProvider     = errors.New("payment provider error")
	ErrLinkNotFound = errors.New("approval link not found in provider response")
	ErrVerification = errors.New("webhook verification failed")
	ErrPersistence  = errors.New("payment record persistence failed")
	ErrDispatch     = errors.New("webhook dispatch failed")

	// ErrSignatureRejected accompanies ErrVerification when the provider evaluated
	// the signature and answered something other than SUCCESS.
	ErrSignatureRejected = errors.New("webhook signature rejected")
)
