package main

import "errors"

// errInvalidArgs flags missing or malformed positional arguments
// (spec §6's exit code 1 case: "invalid arguments or missing file").
var errInvalidArgs = errors.New("invalid arguments")
