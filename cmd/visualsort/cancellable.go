package main

import (
	"context"

	"github.com/russellsayshi/visualsort/pkg/sorts"
)

// cancellableArray stops a sort between steps once ctx is done. Reads stay
// local and are never refused; every step that talks to the server is.
type cancellableArray struct {
	ctx context.Context
	arr sorts.Array
}

func (c *cancellableArray) Len() int {
	return c.arr.Len()
}

func (c *cancellableArray) Get(i int) (int32, error) {
	return c.arr.Get(i)
}

func (c *cancellableArray) Set(i int, v int32) error {
	if err := c.ctx.Err(); err != nil {
		return err
	}
	return c.arr.Set(i, v)
}

func (c *cancellableArray) Mark(i int) error {
	if err := c.ctx.Err(); err != nil {
		return err
	}
	return c.arr.Mark(i)
}

func (c *cancellableArray) MarkRange(start, end int) error {
	if err := c.ctx.Err(); err != nil {
		return err
	}
	return c.arr.MarkRange(start, end)
}

func (c *cancellableArray) Point(i int) error {
	if err := c.ctx.Err(); err != nil {
		return err
	}
	return c.arr.Point(i)
}
