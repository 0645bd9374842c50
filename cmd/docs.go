package cmd

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

// https://pmarsceill.github.io/just-the-docs/docs/navigation-structure/
const rootPage = `---
layout: default
title: %s
nav_order: %d
has_children: true
permalink: /
---
`

// child command without children
const childPage = `---
layout: default
title: %s
parent: %s
nav_order: %d
---
`

// child with children
const childParentPage = `---
layout: default
title: %s
parent: %s
nav_order: %d
has_children: true
---
`

// grandchildren
const grandchildPage = `---
layout: default
title: %s
parent: %s
grand_parent: %s
nav_order: %d
---
`

// docsCmd is for writing the Markdown reference of every command
var docsCmd = &cobra.Command{
	Use:    "docs",
	Short:  "Write Markdown documentation for every command",
	RunE:   runDocs,
	Hidden: true,
}

func runDocs(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return doc.GenMarkdownTreeCustom(rootCmd, dir, filePrepender, linkHandler)
}

// filePrepender adds the YAML headings required by the just-the-docs theme.
// A page's place in the navigation follows from its command's place in the
// command tree and its order among its siblings.
func filePrepender(filename string) string {
	c := commandFor(filename)
	if c == nil {
		return ""
	}

	order := 0
	if p := c.Parent(); p != nil {
		for _, sibling := range p.Commands() {
			if sibling == c {
				break
			}
			if sibling.IsAvailableCommand() {
				order++
			}
		}
	}

	switch {
	case !c.HasParent():
		return fmt.Sprintf(rootPage, c.Name(), order)
	case !c.Parent().HasParent() && c.HasAvailableSubCommands():
		return fmt.Sprintf(childParentPage, c.Name(), c.Parent().Name(), order)
	case !c.Parent().HasParent():
		return fmt.Sprintf(childPage, c.Name(), c.Parent().Name(), order)
	default:
		return fmt.Sprintf(grandchildPage, c.Name(), c.Parent().Name(), c.Parent().Parent().Name(), order)
	}
}

// linkHandler returns the URL to a documentation page
func linkHandler(filename string) string {
	base := pageBase(filename)
	if base == rootCmd.Name() {
		return "/"
	}
	return base
}

// commandFor finds the command a generated page documents, ex: music_generate_train.md
func commandFor(filename string) *cobra.Command {
	names := strings.Split(pageBase(filename), "_")
	if len(names) == 0 || names[0] != rootCmd.Name() {
		return nil
	}
	c, rest, err := rootCmd.Find(names[1:])
	if err != nil || len(rest) > 0 {
		return nil
	}
	return c
}

func pageBase(filename string) string {
	name := filepath.Base(filename)
	return strings.TrimSuffix(name, path.Ext(name))
}

func init() {
	docsCmd.Flags().String("dir", "./docs", "output directory")

	rootCmd.AddCommand(docsCmd)
}
