package cfg

import (
	"fmt"
	"sort"
)

func sortedKeys(m map[int]struct{}) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Dump prints the block/edge structure of a CFG, in the teacher's plain
// stdout debug-dump style rather than through structured logging.
func Dump(c *CFG) {
	fmt.Printf("========== CFG: %s ==========\n", c.Name)
	for i, block := range c.Blocks {
		fmt.Printf("  Block %d: %d statement(s)\n", i, len(block.Statements))
		fmt.Printf("    predecessors: %v\n", sortedKeys(block.Predecessors))
		fmt.Printf("    successors:   %v\n", sortedKeys(block.Successors))
	}
	fmt.Println()
}
