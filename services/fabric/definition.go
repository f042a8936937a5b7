// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fabric

// DefinitionKind discriminates a Definition's tagged union.
type DefinitionKind uint8

const (
	// DefinitionConstant is a fixed head Node.
	DefinitionConstant DefinitionKind = iota
	// DefinitionPath is a normalized path: a disjunction of conjunctive
	// sub-paths, resolved by the path evaluator (spec §4.5).
	DefinitionPath
)

// Path is a normalized path expression: the outer slice is the set of
// parallel sub-paths, each inner slice a linear sequence folded left-to-right
// via Fabric.Query (spec §3, §4.5).
type Path [][]Node

// Definition is the rule that produces a harc's head: either a fixed
// Constant or a computed Path (spec §3). Never both at once.
type Definition struct {
	Kind     DefinitionKind
	Constant Node
	Path     Path
}

// ConstantDefinition builds a Constant-kind Definition.
func ConstantDefinition(n Node) Definition {
	return Definition{Kind: DefinitionConstant, Constant: n}
}

// PathDefinition builds a Path-kind Definition.
func PathDefinition(p Path) Definition {
	return Definition{Kind: DefinitionPath, Path: p}
}
