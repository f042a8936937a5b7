// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fabricsrv

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/dharc-go/fabric/services/fabric/wire"
)

// validate runs struct-tag validation beyond what gin's binding already
// applies inline (arity, variant range); used here for the one check that
// depends on runtime configuration rather than a static tag: a define
// request's longest sub-path against the fabric's configured recursion
// bound, which only the handler (holding the Fabric's Config) can know.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Gin's ShouldBindJSON already applies "binding" tags for us; reusing
	// the same tag name here lets validateDefinePath run the identical
	// struct rules explicitly, once config-dependent checks are added on
	// top (see below) rather than maintaining two parallel tag sets.
	v.SetTagName("binding")
	return v
}

// validateDefinePath checks req's struct rules and rejects any sub-path
// longer than maxDepth+1 nodes, maxDepth being the fabric's
// Config.MaxRecursionDepth (spec §5). This is a boundary limit of its
// own: the path evaluator releases its depth after each fold step, so a
// long linear sub-path does not by itself reach ErrRecursionLimit at
// query time. Oversized paths fail fast as InvalidRequest (spec §7).
func validateDefinePath(req wire.DefineRequest, maxDepth int) error {
	if err := validate.Struct(req); err != nil {
		return err
	}
	for i, sub := range req.Path {
		if len(sub) > maxDepth+1 {
			return fmt.Errorf("sub-path %d has %d nodes, exceeding the recursion bound of %d", i, len(sub), maxDepth)
		}
	}
	return nil
}
