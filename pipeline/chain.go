package pipeline

import (
	"github.com/samoyed-instruments/meascore/block"
	"github.com/samoyed-instruments/meascore/status"
)

// Chain is a singly linked sequence of nodes executed head-to-tail. A node
// belongs to at most one chain; Chain itself never allocates once built.
type Chain struct {
	head *Node
	tail *Node
}

// Append adds n to the end of the chain.
func (c *Chain) Append(n *Node) {
	if c.head == nil {
		c.head = n
		c.tail = n
		return
	}
	c.tail.Next = n
	c.tail = n
}

// Head returns the first node, or nil for an empty chain.
func (c *Chain) Head() *Node { return c.head }

// Run traverses the chain from head to tail, forwarding each node's output
// as the next node's input, and stops on the first non-Ok status.
func (c *Chain) Run(input block.Block) (block.Block, status.Status) {
	cur := c.head
	b := input
	for cur != nil {
		out, st := cur.Process(b)
		if st != status.Ok {
			return out, st
		}
		b = out
		cur = cur.Next
	}
	return b, status.Ok
}

// Reset calls Reset on every node in the chain.
func (c *Chain) Reset() {
	for n := c.head; n != nil; n = n.Next {
		n.Reset()
	}
}
