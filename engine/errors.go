package engine

import "errors"

var (
	ErrInvalidBid       = errors.New("invalid bid")
	ErrIneligibleWinner = errors.New("ineligible winner")
	ErrNoOpenRound      = errors.New("no open round")
	ErrDuplicateMember  = errors.New("duplicate member")
	ErrInvalidCircle    = errors.New("invalid circle")
	ErrPotMismatch      = errors.New("total pot does not match circle state")
	ErrUnknownRound     = errors.New("unknown round")
)
