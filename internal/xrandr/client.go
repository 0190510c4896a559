package xrandr

import (
	"context"
	"fmt"

	"autoscreen/internal/display"
)

// Executor runs the tool with the given arguments.
type Executor interface {
	Run(ctx context.Context, args ...string) (Result, error)
}

// Client issues the query, placement and reset forms of xrandr.
type Client struct {
	exec Executor
}

// NewClient returns a Client backed by exec.
func NewClient(exec Executor) *Client {
	return &Client{exec: exec}
}

// Report runs xrandr without arguments and returns its listing.
func (c *Client) Report(ctx context.Context) (string, error) {
	res, err := c.exec.Run(ctx)
	if err != nil {
		return "", fmt.Errorf("query outputs: %w", err)
	}
	return res.Stdout, nil
}

// Status queries the tool and parses the state of output.
func (c *Client) Status(ctx context.Context, output string) (display.Status, error) {
	report, err := c.Report(ctx)
	if err != nil {
		return display.Status{}, err
	}
	return Parse(report, output), nil
}

// Outputs queries the tool and decodes every output.
func (c *Client) Outputs(ctx context.Context) ([]display.Output, error) {
	report, err := c.Report(ctx)
	if err != nil {
		return nil, err
	}
	return ParseOutputs(report), nil
}

// PlaceRightOf sets output to resolution and positions it right of relative.
func (c *Client) PlaceRightOf(ctx context.Context, output, relative, resolution string) error {
	if _, err := c.exec.Run(ctx, PlaceRightOfArgs(output, relative, resolution)...); err != nil {
		return fmt.Errorf("place %s right of %s: %w", output, relative, err)
	}
	return nil
}

// Auto restores the automatic layout.
func (c *Client) Auto(ctx context.Context) error {
	if _, err := c.exec.Run(ctx, AutoArgs()...); err != nil {
		return fmt.Errorf("reset layout: %w", err)
	}
	return nil
}

// PlaceRightOfArgs returns the arguments of the placement form.
func PlaceRightOfArgs(output, relative, resolution string) []string {
	return []string{"--output", output, "--mode", resolution, "--right-of", relative}
}

// AutoArgs returns the arguments of the reset form.
func AutoArgs() []string {
	return []string{"--auto"}
}
